package httpc

import (
	"crypto/tls"

	"github.com/go-resty/resty/v2"
)

// Httpc builds resty clients with the harness' TLS and auth settings applied.
type Httpc struct {
	TlsConfig *tls.Config
	Username  string
	Password  string
	// AuthHeader/AuthValue carry a pre-acquired credential (e.g. a bearer
	// token). When set they take precedence over Username/Password.
	AuthHeader string
	AuthValue  string
}

// New returns a resty.Client configured according to the receiver's settings.
// Defaults: MinVersion TLS1.3 when MinVersion is zero.
func (h *Httpc) New() *resty.Client {
	c := resty.New()
	if h.AuthHeader != "" && h.AuthValue != "" {
		c.SetHeader(h.AuthHeader, h.AuthValue)
	} else if h.Username != "" {
		c.SetBasicAuth(h.Username, h.Password)
	}
	cfg := h.TlsConfig
	if cfg == nil {
		return c
	}
	if cfg.MinVersion == 0 {
		cfg.MinVersion = tls.VersionTLS13
	}
	c.SetTLSClientConfig(cfg)
	return c
}
