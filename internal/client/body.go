package client

// Body is the three-way request body option for POST/PUT/PATCH. The zero
// value means "caller passed no body" and lets the client default apply;
// NoBody suppresses the default explicitly; JSONBody supplies a value.
// Making the distinction a type keeps "omitted" and "explicitly empty"
// apart without a sentinel object.
type Body struct {
	provided bool
	empty    bool
	value    any
}

// DefaultBody defers to the client's configured default body, if any.
func DefaultBody() Body { return Body{} }

// NoBody sends no request body even when the client has a default.
func NoBody() Body { return Body{provided: true, empty: true} }

// JSONBody sends v serialized as JSON.
func JSONBody(v any) Body { return Body{provided: true, value: v} }

// resolve picks the payload to send: the explicit value, nothing, or the
// client default. The second return reports whether a body is present.
func (b Body) resolve(def map[string]any) (any, bool) {
	if b.provided {
		if b.empty {
			return nil, false
		}
		return b.value, true
	}
	if def == nil {
		return nil, false
	}
	return def, true
}
