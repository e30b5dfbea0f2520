// Package auth acquires the credential header a client attaches to every
// request. Providers are registered by type key and configured from the
// settings file's auth section.
package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Method is a credential provider. Acquire returns the header name and
// value to attach (typically "Authorization" and a Basic/Bearer value).
type Method interface {
	Acquire(ctx context.Context) (header, value string, err error)
}

// Factory builds a Method from its raw settings map.
type Factory func(spec map[string]interface{}) (Method, error)

var (
	regMu    sync.RWMutex
	registry = map[string]Factory{}
)

// Register installs a provider factory under a type key. Later
// registrations replace earlier ones, which lets embedders override the
// built-ins.
func Register(typ string, f Factory) {
	key := strings.ToLower(strings.TrimSpace(typ))
	if key == "" || f == nil {
		return
	}
	regMu.Lock()
	registry[key] = f
	regMu.Unlock()
}

// New builds the provider registered under typ.
func New(typ string, spec map[string]interface{}) (Method, error) {
	key := strings.ToLower(strings.TrimSpace(typ))
	regMu.RLock()
	f, ok := registry[key]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("auth: unknown provider type %q (registered: %s)", typ, strings.Join(registered(), ", "))
	}
	return f(spec)
}

func registered() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
