package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/riddopic/delphix"
	"github.com/riddopic/delphix/internal/profile"
	"github.com/riddopic/delphix/internal/query"
)

// errNotOK is returned when the appliance answered with a non-2xx status, so
// the process exits non-zero after the body has been printed.
var errNotOK = errors.New("request failed")

// buildConfig merges the profile file (if any) and the flags into a Config.
func buildConfig(cmd *cobra.Command) (delphix.Config, error) {
	cfg := delphix.DefaultConfig()

	path := flagConfig
	explicit := path != ""
	if !explicit {
		path = profile.DefaultPath()
	}
	if f, err := profile.Load(path); err == nil {
		if flagProfile != "" || f.Default != "" || len(f.Profiles) == 1 {
			p, err := f.Get(flagProfile)
			if err != nil {
				return cfg, err
			}
			if err := p.Apply(&cfg); err != nil {
				return cfg, err
			}
		}
	} else if explicit || flagProfile != "" {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.Server = flagServer
	}
	if flags.Changed("scheme") {
		cfg.Scheme = flagScheme
	}
	if flags.Changed("user") {
		cfg.User = flagUser
	}
	if flags.Changed("password") {
		cfg.Password = flagPassword
	} else if pw := os.Getenv("DELPHIX_PASSWORD"); pw != "" {
		cfg.Password = pw
	}
	if flagAPIVersion != "" {
		v, err := delphix.ParseAPIVersion(flagAPIVersion)
		if err != nil {
			return cfg, err
		}
		cfg.APIVersion = v
	}
	if flagTimeout != "" {
		d, err := time.ParseDuration(flagTimeout)
		if err != nil {
			return cfg, fmt.Errorf("invalid timeout %q: %w", flagTimeout, err)
		}
		cfg.Timeout = d
	}
	if len(flagHeaders) > 0 {
		headers, err := parseHeaders(flagHeaders)
		if err != nil {
			return cfg, err
		}
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			cfg.Headers[k] = v
		}
	}
	if flagVerbose {
		cfg.Verbose = true
	}
	if flagRaw {
		cfg.BodyMode = delphix.BodyModeRaw
	}
	if flagNormalize {
		cfg.NormalizeKeys = true
	}

	if cfg.Server == "" {
		return cfg, fmt.Errorf("no server configured (use --server or a profile)")
	}
	return cfg, nil
}

func newSession(cmd *cobra.Command) (*delphix.Session, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}
	opts := []delphix.Option{}
	if cfg.Verbose {
		opts = append(opts, delphix.WithLogger(delphix.NewSimpleLoggerTo(cmd.ErrOrStderr())))
	}
	return delphix.NewSession(cfg, opts...), nil
}

func runCall(cmd *cobra.Command, method string, args []string) error {
	if flagQuery != "" && !query.IsValid(flagQuery) {
		return fmt.Errorf("invalid --query expression %q", flagQuery)
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	target := resolveTarget(s, args[0])

	var params any
	if method == delphix.MethodGet {
		pairs, err := parsePairs(args[1:])
		if err != nil {
			return err
		}
		if len(pairs) > 0 {
			params = pairs
		}
	} else {
		params, err = requestBody(flagData, args[1:])
		if err != nil {
			return err
		}
	}

	if !flagNoLogin {
		if err := s.EnsureSession(ctx); err != nil {
			return err
		}
	}

	var resp *delphix.Response
	switch method {
	case delphix.MethodGet:
		resp, err = s.Get(ctx, target, params)
	case delphix.MethodPost:
		resp, err = s.Post(ctx, target, params)
	default:
		resp, err = s.Delete(ctx, target, params)
	}
	if err != nil {
		return err
	}
	return printResponse(cmd.OutOrStdout(), resp)
}

func runLogin(cmd *cobra.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.EnsureSession(ctx); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Logged in to %s\n", s.BaseURL())
	for _, c := range s.Cookies() {
		fmt.Fprintf(out, "%s=%s\n", c.Name, c.Value)
	}
	return nil
}

// resolveTarget accepts a resource name, an absolute path or a full URL.
func resolveTarget(s *delphix.Session, target string) string {
	switch {
	case strings.Contains(target, "://"):
		return target
	case strings.HasPrefix(target, "/"):
		return s.BaseURL() + target
	}
	if r, err := delphix.ParseResource(target); err == nil {
		return s.ResourceURL(r)
	}
	return s.BaseURL() + delphix.ResourcePrefix + strings.TrimLeft(target, "/")
}

// parsePairs turns key=value arguments into a parameter map.
func parsePairs(args []string) (map[string]string, error) {
	pairs := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q (expected key=value)", arg)
		}
		pairs[k] = v
	}
	return pairs, nil
}

// parseHeaders turns key:value arguments into a header map.
func parseHeaders(args []string) (map[string]string, error) {
	headers := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, ":")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid header %q (expected key:value)", arg)
		}
		headers[k] = strings.TrimSpace(v)
	}
	return headers, nil
}

// requestBody builds a POST/DELETE body from --data, or from key=value pairs
// when --data is empty.
func requestBody(data string, pairs []string) (any, error) {
	if data == "" {
		if len(pairs) == 0 {
			return nil, nil
		}
		m, err := parsePairs(pairs)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	if len(pairs) > 0 {
		return nil, fmt.Errorf("cannot combine --data with key=value parameters")
	}

	raw := []byte(data)
	if strings.HasPrefix(data, "@") {
		b, err := os.ReadFile(data[1:])
		if err != nil {
			return nil, fmt.Errorf("failed to read body file: %w", err)
		}
		raw = b
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("--data is not valid JSON")
	}
	return json.RawMessage(raw), nil
}

func printResponse(w io.Writer, resp *delphix.Response) error {
	if resp.Err != nil {
		return fmt.Errorf("transport failure: %w", resp.Err)
	}

	if flagFull {
		fmt.Fprintf(w, "%s\n", resp.Status)
		keys := make([]string, 0, len(resp.Header))
		for k := range resp.Header {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s: %s\n", k, strings.Join(resp.Header[k], ", "))
		}
		fmt.Fprintln(w)
	}

	body := resp.Body
	if flagQuery != "" {
		projected, err := query.Apply(body, resp.Decoded, flagQuery)
		if err != nil {
			return err
		}
		body = projected
	}
	text, err := query.Render(body)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, text)

	if !resp.OK() {
		return fmt.Errorf("%w: %s", errNotOK, resp.Status)
	}
	return nil
}
