package delphix

import "testing"

func TestConfigBaseURL(t *testing.T) {
	tests := []struct {
		cfg  Config
		want string
	}{
		{Config{Server: "engine"}, "http://engine"},
		{Config{Server: "engine:8443", Scheme: "https"}, "https://engine:8443"},
		{Config{Server: " https://engine/ "}, "https://engine"},
	}
	for _, tt := range tests {
		if got := tt.cfg.BaseURL(); got != tt.want {
			t.Errorf("BaseURL(%+v) = %s, want %s", tt.cfg, got, tt.want)
		}
	}
}

func TestConfigOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Verbose = true
	cfg.NormalizeKeys = true
	cfg.Timeout = 0

	client := New(cfg.options()...)
	if client.Timeout() != DefaultTimeout {
		t.Errorf("Expected default timeout, got %v", client.Timeout())
	}
	if !client.debug.Load() || !client.normalizeKeys {
		t.Error("Expected verbose and normalized keys to carry over")
	}
	if _, ok := client.logger.(*SimpleLogger); !ok {
		t.Errorf("Expected *SimpleLogger, got %T", client.logger)
	}
}
