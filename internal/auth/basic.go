package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// BasicConfig configures the basic auth provider.
type BasicConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type basicMethod struct{ c BasicConfig }

func (m basicMethod) Acquire(_ context.Context) (string, string, error) {
	if m.c.Username == "" {
		return "", "", errors.New("auth: basic provider requires a username")
	}
	raw := m.c.Username + ":" + m.c.Password
	return "Authorization", "Basic " + base64.StdEncoding.EncodeToString([]byte(raw)), nil
}

func newBasic(spec map[string]interface{}) (Method, error) {
	var c BasicConfig
	if err := mapstructure.Decode(spec, &c); err != nil {
		return nil, fmt.Errorf("auth: decode basic config: %w", err)
	}
	return basicMethod{c: c}, nil
}

func init() {
	Register("basic", newBasic)
}
