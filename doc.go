// Package delphix is a client binding for the Delphix appliance JSON API.
//
//   - Request construction: query strings for reads, JSON bodies for writes,
//     Date / Request-ID stamping and lower-cased header merging
//   - Response wrapping: status, headers, cookies and a best-effort JSON body
//     that degrades to the raw payload when it cannot be decoded
//   - Synchronous dispatch and asynchronous dispatch through a Future with an
//     optional completion callback
//   - A Session facade holding server address, credentials, API version,
//     timeout and default headers, with memoized cookie bootstrap and login
//   - Prometheus metrics and lightweight structured debug logging
//
// Only malformed URLs and transport timeouts are returned as errors. Non 2xx
// replies and connection failures are data: inspect Response.Code,
// Response.Body and Response.Err.
//
// Typical usage:
//
//	cfg := delphix.DefaultConfig()
//	cfg.Server = "engine.example.com"
//	cfg.User, cfg.Password = "delphix_admin", "secret"
//
//	s := delphix.NewSession(cfg, delphix.WithSimpleLogger())
//	if err := s.EnsureSession(ctx); err != nil {
//	    return err
//	}
//	resp, err := s.Get(ctx, s.ResourceURL(delphix.ResourceDatabase), nil)
package delphix
