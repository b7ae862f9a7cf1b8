// Package profile loads named appliance connection profiles from YAML.
//
//	default: lab
//	profiles:
//	  lab:
//	    server: engine.lab.local
//	    user: delphix_admin
//	    password: delphix
//	    api_version: 1.4.3
//	    timeout: 30s
//	    headers:
//	      X-Team: dba
package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/riddopic/delphix"
)

// ErrNotFound is returned when a named profile does not exist.
var ErrNotFound = errors.New("profile not found")

// Profile is one appliance connection.
type Profile struct {
	Server        string            `yaml:"server"`
	Scheme        string            `yaml:"scheme,omitempty"`
	User          string            `yaml:"user,omitempty"`
	Password      string            `yaml:"password,omitempty"`
	APIVersion    string            `yaml:"api_version,omitempty"`
	Timeout       time.Duration     `yaml:"timeout,omitempty"`
	Headers       map[string]string `yaml:"headers,omitempty"`
	Verbose       bool              `yaml:"verbose,omitempty"`
	RawBody       bool              `yaml:"raw_body,omitempty"`
	NormalizeKeys bool              `yaml:"normalize_keys,omitempty"`
}

// File is the on-disk profile document.
type File struct {
	Default  string             `yaml:"default,omitempty"`
	Profiles map[string]Profile `yaml:"profiles"`
}

// DefaultPath returns ~/.config/delphix/profiles.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "profiles.yaml"
	}
	return filepath.Join(dir, "delphix", "profiles.yaml")
}

// Load reads and parses a profile file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a profile document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse profile file: %w", err)
	}
	if f.Profiles == nil {
		f.Profiles = make(map[string]Profile)
	}
	return &f, nil
}

// Get returns the named profile, or the default one when name is empty.
func (f *File) Get(name string) (Profile, error) {
	if name == "" {
		name = f.Default
	}
	if name == "" && len(f.Profiles) == 1 {
		for _, p := range f.Profiles {
			return p, nil
		}
	}
	p, ok := f.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (available: %s)", ErrNotFound, name, strings.Join(f.Names(), ", "))
	}
	return p, nil
}

// Names returns the profile names in sorted order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Profiles))
	for n := range f.Profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Apply copies the non-empty fields of p onto cfg.
func (p Profile) Apply(cfg *delphix.Config) error {
	if p.Server != "" {
		cfg.Server = p.Server
	}
	if p.Scheme != "" {
		cfg.Scheme = p.Scheme
	}
	if p.User != "" {
		cfg.User = p.User
	}
	if p.Password != "" {
		cfg.Password = p.Password
	}
	if p.APIVersion != "" {
		v, err := delphix.ParseAPIVersion(p.APIVersion)
		if err != nil {
			return err
		}
		cfg.APIVersion = v
	}
	if p.Timeout > 0 {
		cfg.Timeout = p.Timeout
	}
	if len(p.Headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(p.Headers))
		}
		for k, v := range p.Headers {
			cfg.Headers[k] = v
		}
	}
	if p.Verbose {
		cfg.Verbose = true
	}
	if p.RawBody {
		cfg.BodyMode = delphix.BodyModeRaw
	}
	if p.NormalizeKeys {
		cfg.NormalizeKeys = true
	}
	return nil
}
