package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pulpprobe/pulpprobe/internal/common"
)

// TokenConfig configures the static bearer token provider.
type TokenConfig struct {
	Token  string `mapstructure:"token"`
	Header string `mapstructure:"header"`
}

type tokenMethod struct{ c TokenConfig }

// Acquire returns the configured token as a bearer credential. When the
// token parses as a JWT its expiry is inspected: an expired token is an
// error rather than a guaranteed 401 later, an imminent expiry only warns.
func (m tokenMethod) Acquire(_ context.Context) (string, string, error) {
	tok := strings.TrimSpace(m.c.Token)
	if tok == "" {
		return "", "", errors.New("auth: token provider requires a token")
	}
	if exp, ok := jwtExpiry(tok); ok {
		now := time.Now()
		if exp.Before(now) {
			return "", "", fmt.Errorf("auth: bearer token expired at %s", exp.Format(time.RFC3339))
		}
		if exp.Before(now.Add(time.Minute)) {
			common.GetLogger().WithComponent("auth").Warn("bearer token expires soon", "expires_at", exp.Format(time.RFC3339))
		}
	}
	header := strings.TrimSpace(m.c.Header)
	if header == "" {
		header = "Authorization"
	}
	return header, "Bearer " + tok, nil
}

// jwtExpiry extracts the exp claim without verifying the signature. The
// harness is a client; validation is the server's job.
func jwtExpiry(token string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func newToken(spec map[string]interface{}) (Method, error) {
	var c TokenConfig
	if err := mapstructure.Decode(spec, &c); err != nil {
		return nil, fmt.Errorf("auth: decode token config: %w", err)
	}
	return tokenMethod{c: c}, nil
}

func init() {
	Register("token", newToken)
}
