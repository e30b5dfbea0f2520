package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// OAuth2Config configures the client-credentials grant provider.
type OAuth2Config struct {
	ClientID  string   `mapstructure:"client_id"`
	ClientSec string   `mapstructure:"client_secret"`
	TokenURL  string   `mapstructure:"token_url"`
	Scopes    []string `mapstructure:"scopes"`
}

type oauth2Method struct{ c OAuth2Config }

func (m oauth2Method) Acquire(ctx context.Context) (string, string, error) {
	clientID := strings.TrimSpace(m.c.ClientID)
	clientSecret := strings.TrimSpace(m.c.ClientSec)
	tokenURL := strings.TrimSpace(m.c.TokenURL)
	if tokenURL == "" {
		return "", "", errors.New("auth: token_url is required for the oauth2 provider")
	}
	if clientID == "" || clientSecret == "" {
		return "", "", errors.New("auth: client_id and client_secret are required for the oauth2 provider")
	}
	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       m.c.Scopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tok, err := cc.Token(ctx)
	if err != nil {
		return "", "", fmt.Errorf("auth: acquire oauth2 token: %w", err)
	}
	typ := tok.TokenType
	if typ == "" {
		typ = "Bearer"
	}
	return "Authorization", typ + " " + tok.AccessToken, nil
}

func newOAuth2(spec map[string]interface{}) (Method, error) {
	var c OAuth2Config
	if err := mapstructure.Decode(spec, &c); err != nil {
		return nil, fmt.Errorf("auth: decode oauth2 config: %w", err)
	}
	return oauth2Method{c: c}, nil
}

func init() {
	Register("oauth2", newOAuth2)
}
