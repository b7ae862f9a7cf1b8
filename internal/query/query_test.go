package query

import (
	"encoding/json"
	"strings"
	"testing"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("invalid fixture: %v", err)
	}
	return v
}

func TestApplySelectsField(t *testing.T) {
	body := decode(t, `{"type":"ListResult","result":[{"name":"db1"},{"name":"db2"}]}`)

	got, err := Apply(body, true, "result[].name")
	if err != nil {
		t.Fatalf("Apply() returned error: %v", err)
	}
	names, ok := got.([]interface{})
	if !ok || len(names) != 2 || names[0] != "db1" || names[1] != "db2" {
		t.Errorf("Expected [db1 db2], got %v", got)
	}
}

func TestApplyEmptyExpressionReturnsBody(t *testing.T) {
	body := decode(t, `{"a":1}`)
	got, err := Apply(body, true, "")
	if err != nil {
		t.Fatalf("Apply() returned error: %v", err)
	}
	if m, ok := got.(map[string]any); !ok || m["a"] != float64(1) {
		t.Errorf("Expected body unchanged, got %v", got)
	}
}

func TestApplyRejectsRawBody(t *testing.T) {
	if _, err := Apply("<html></html>", false, "a"); err == nil {
		t.Error("Expected error for raw body")
	}
}

func TestApplyDecodedJSONString(t *testing.T) {
	got, err := Apply("OK", true, "@")
	if err != nil {
		t.Fatalf("Apply() returned error for a JSON string document: %v", err)
	}
	if got != "OK" {
		t.Errorf("Expected OK, got %v", got)
	}
}

func TestApplyJSONNumbers(t *testing.T) {
	dec := json.NewDecoder(strings.NewReader(`{"result":[{"name":"db1","size":10},{"name":"db2","size":300}]}`))
	dec.UseNumber()
	var body any
	if err := dec.Decode(&body); err != nil {
		t.Fatalf("invalid fixture: %v", err)
	}

	got, err := Apply(body, true, "result[?size > `100`].name")
	if err != nil {
		t.Fatalf("Apply() returned error: %v", err)
	}
	names, ok := got.([]interface{})
	if !ok || len(names) != 1 || names[0] != "db2" {
		t.Errorf("Expected [db2], got %v", got)
	}
}

func TestApplyInvalidExpression(t *testing.T) {
	_, err := Apply(decode(t, `{}`), true, "result[")
	if err == nil || !strings.Contains(err.Error(), "invalid JMESPath") {
		t.Errorf("Expected invalid expression error, got %v", err)
	}
}

func TestRender(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{"plain", "plain"},
		{[]any{"a"}, "[\n  \"a\"\n]"},
	}
	for _, tc := range cases {
		got, err := Render(tc.in)
		if err != nil {
			t.Fatalf("Render(%v) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("Render(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("result[?type=='OracleDatabaseContainer'].name") {
		t.Error("Expected filter expression to be valid")
	}
	if IsValid("result[") {
		t.Error("Expected unterminated expression to be invalid")
	}
}
