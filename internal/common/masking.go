package common

import (
	"regexp"
	"strings"
)

// SensitivePattern represents a pattern to detect and mask sensitive information
type SensitivePattern struct {
	Name        string         // Pattern name (e.g., "password", "bearer_token")
	Regex       *regexp.Regexp // Regular expression to match sensitive data
	Replacement string         // Replacement string
	Keys        []string       // Header/key names to mask wholesale (case-insensitive)
}

// DefaultSensitivePatterns covers the credentials that can appear in request
// headers surfaced by diagnostics (the malformed-202 warning in particular).
var DefaultSensitivePatterns = []SensitivePattern{
	{
		Name:        "bearer_token",
		Regex:       regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-._~+/]+=*`),
		Replacement: "Bearer ***MASKED***",
		Keys:        []string{"authorization"},
	},
	{
		Name:        "basic_auth",
		Regex:       regexp.MustCompile(`(?i)Basic\s+[A-Za-z0-9+/]+=*`),
		Replacement: "Basic ***MASKED***",
		Keys:        []string{"authorization"},
	},
	{
		Name:        "password",
		Regex:       regexp.MustCompile(`(?i)(password|passwd|pwd)["'\s]*[:=]["'\s]*([^"',}\]\s]+)`),
		Replacement: `${1}":"***MASKED***"`,
		Keys:        []string{"password", "passwd", "pwd"},
	},
	{
		Name:        "api_token",
		Regex:       regexp.MustCompile(`(?i)(token|api[_-]?key)["'\s]*[:=]["'\s]*([^"',}\]\s]+)`),
		Replacement: `${1}":"***MASKED***"`,
		Keys:        []string{"token", "api_key", "x-api-key"},
	},
}

// Masker handles masking of sensitive information in diagnostics
type Masker struct {
	patterns []SensitivePattern
	enabled  bool
}

// NewMasker creates a new masker with default patterns
func NewMasker() *Masker {
	return &Masker{
		patterns: DefaultSensitivePatterns,
		enabled:  true,
	}
}

// Enable turns masking on or off
func (m *Masker) Enable(on bool) { m.enabled = on }

// MaskString masks sensitive substrings in an arbitrary string
func (m *Masker) MaskString(s string) string {
	if !m.enabled {
		return s
	}
	out := s
	for _, p := range m.patterns {
		out = p.Regex.ReplaceAllString(out, p.Replacement)
	}
	return out
}

// MaskHeaders returns a copy of headers with sensitive values replaced.
// Keys listed in a pattern are masked wholesale; other values go through
// the regex pass so embedded credentials are still caught.
func (m *Masker) MaskHeaders(headers map[string][]string) map[string][]string {
	if !m.enabled || len(headers) == 0 {
		return headers
	}
	out := make(map[string][]string, len(headers))
	for name, vals := range headers {
		if m.isSensitiveKey(name) {
			out[name] = []string{"***MASKED***"}
			continue
		}
		masked := make([]string, len(vals))
		for i, v := range vals {
			masked[i] = m.MaskString(v)
		}
		out[name] = masked
	}
	return out
}

func (m *Masker) isSensitiveKey(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, p := range m.patterns {
		for _, k := range p.Keys {
			if lower == k {
				return true
			}
		}
	}
	return false
}

// Global masker used by diagnostics
var defaultMasker = NewMasker()

// GetMasker returns the process-wide masker
func GetMasker() *Masker { return defaultMasker }

// EnableMasking toggles the process-wide masker
func EnableMasking(on bool) { defaultMasker.Enable(on) }
