package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// DefaultPollInterval is used when the settings file does not override the
// spacing between task status polls.
const DefaultPollInterval = 500 * time.Millisecond

type AuthConfig struct {
	// Provider type key (e.g., "basic", "token", "oauth2")
	Type string `mapstructure:"type" yaml:"type"`
	// Provider-specific configuration
	Config map[string]interface{} `mapstructure:"config" yaml:"config"`
}

type ShellConfig struct {
	// Transport selects how commands run: "local" (default) or "ssh".
	Transport string `mapstructure:"transport" yaml:"transport"`
	Host      string `mapstructure:"host" yaml:"host"`
	Port      int    `mapstructure:"port" yaml:"port"`
	User      string `mapstructure:"user" yaml:"user"`
	KeyFile   string `mapstructure:"key_file" yaml:"key_file"`
}

type StoreConfig struct {
	Disabled bool   `mapstructure:"disabled" yaml:"disabled"`
	Type     string `mapstructure:"type" yaml:"type"` // sqlite (default) or postgres
	Path     string `mapstructure:"path" yaml:"path"` // sqlite file path
	DSN      string `mapstructure:"dsn" yaml:"dsn"`   // postgres DSN
}

type BugTrackerConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

type LoggingConfig struct {
	Level         string `mapstructure:"level" yaml:"level"`   // error, warn, info, debug
	Format        string `mapstructure:"format" yaml:"format"` // text, json
	MaskSensitive *bool  `mapstructure:"mask_sensitive" yaml:"mask_sensitive"`
}

type ClientConfig struct {
	Insecure      bool   `mapstructure:"insecure" yaml:"insecure"`
	MinTLSVersion string `mapstructure:"min_tls_version" yaml:"min_tls_version"`
	MaxTLSVersion string `mapstructure:"max_tls_version" yaml:"max_tls_version"`
}

// RequestDefaults are merged under every request a client sends.
// Headers and Query are replaced wholesale by per-call overrides, never
// merged key-by-key.
type RequestDefaults struct {
	Headers map[string]string      `mapstructure:"headers" yaml:"headers"`
	Query   map[string]string      `mapstructure:"query" yaml:"query"`
	Timeout string                 `mapstructure:"timeout" yaml:"timeout"`
	Body    map[string]interface{} `mapstructure:"body" yaml:"body"`
}

// Config is the per-process snapshot of harness settings. A Client copies it
// at construction so later mutation by one caller cannot leak into another.
type Config struct {
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	// Version is the server's API version as a semantic version string.
	// It selects Pulp-2 (call report) vs Pulp-3 (task href) task semantics.
	Version      string           `mapstructure:"version" yaml:"version"`
	PollInterval string           `mapstructure:"poll_interval" yaml:"poll_interval"`
	Client       ClientConfig     `mapstructure:"client" yaml:"client"`
	Request      RequestDefaults  `mapstructure:"request" yaml:"request"`
	Auth         []AuthConfig     `mapstructure:"auth" yaml:"auth"`
	Shell        ShellConfig      `mapstructure:"shell" yaml:"shell"`
	Store        StoreConfig      `mapstructure:"store" yaml:"store"`
	BugTracker   BugTrackerConfig `mapstructure:"bug_tracker" yaml:"bug_tracker"`
	Logging      LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// Validate checks the fields the core cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("config: base_url is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("config: invalid base_url: %w", err)
	}
	if strings.TrimSpace(c.Version) != "" {
		if _, err := semver.NewVersion(c.Version); err != nil {
			return fmt.Errorf("config: invalid version %q: %w", c.Version, err)
		}
	}
	return nil
}

// SemVersion parses the configured API version. A missing version defaults
// to 2.0.0 so an unconfigured harness keeps the older, stricter call-report
// semantics.
func (c *Config) SemVersion() (*semver.Version, error) {
	v := strings.TrimSpace(c.Version)
	if v == "" {
		v = "2.0.0"
	}
	return semver.NewVersion(v)
}

// IsPulp3 reports whether the configured server speaks the task-href API.
func (c *Config) IsPulp3() bool {
	v, err := c.SemVersion()
	if err != nil {
		return false
	}
	return v.Major() >= 3
}

// Interval returns the poll spacing, falling back to the default when the
// setting is absent or malformed.
func (c *Config) Interval() time.Duration {
	s := strings.TrimSpace(c.PollInterval)
	if s == "" {
		return DefaultPollInterval
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return DefaultPollInterval
	}
	return d
}

// Base returns the parsed base URL.
func (c *Config) Base() (*url.URL, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("config: invalid base_url: %w", err)
	}
	return u, nil
}

// Clone returns a deep copy. Clients snapshot their config with it so one
// client's defaults cannot be mutated through another.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	dup := *c
	dup.Request.Headers = cloneStringMap(c.Request.Headers)
	dup.Request.Query = cloneStringMap(c.Request.Query)
	if c.Request.Body != nil {
		body := make(map[string]interface{}, len(c.Request.Body))
		for k, v := range c.Request.Body {
			body[k] = v
		}
		dup.Request.Body = body
	}
	if c.Auth != nil {
		dup.Auth = make([]AuthConfig, len(c.Auth))
		for i, a := range c.Auth {
			dup.Auth[i] = a
			if a.Config != nil {
				spec := make(map[string]interface{}, len(a.Config))
				for k, v := range a.Config {
					spec[k] = v
				}
				dup.Auth[i].Config = spec
			}
		}
	}
	return &dup
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
