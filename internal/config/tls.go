package config

import (
	"crypto/tls"
	"strings"
)

// ParseTLSVersion converts a TLS version string to the corresponding
// crypto/tls constant. Supports various formats: "1.2", "12", "tls1.2",
// "tls12", etc. Returns 0 if the version string is not recognized.
func ParseTLSVersion(version string) uint16 {
	switch strings.TrimSpace(strings.ToLower(version)) {
	case "1.0", "10", "tls1.0", "tls10":
		return tls.VersionTLS10
	case "1.1", "11", "tls1.1", "tls11":
		return tls.VersionTLS11
	case "1.2", "12", "tls1.2", "tls12":
		return tls.VersionTLS12
	case "1.3", "13", "tls1.3", "tls13":
		return tls.VersionTLS13
	default:
		return 0
	}
}

// TLSConfig builds the tls.Config applied to every client the harness
// creates, honoring the insecure flag and min/max version overrides.
func (c *Config) TLSConfig() *tls.Config {
	minV := ParseTLSVersion(c.Client.MinTLSVersion)
	maxV := ParseTLSVersion(c.Client.MaxTLSVersion)

	// #nosec G402 -- version floors are operator-controlled settings
	cfg := &tls.Config{MinVersion: minV, MaxVersion: maxV}
	if c.Client.Insecure {
		// #nosec G402 -- self-signed server certificates are common on test deployments
		cfg.InsecureSkipVerify = true
	}
	return cfg
}
