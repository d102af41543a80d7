package models

// Record is the structured data an extractor pulls out of a source. Keys are
// template placeholder names; values are strings or numbers.
type Record map[string]any

// Set stores v under key, replacing nil with an empty string so absent
// fields never render as "<nil>".
func (r Record) Set(key string, v any) Record {
	if v == nil {
		v = ""
	}
	r[key] = v
	return r
}

// String returns the value under key formatted for display, or "".
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return stringify(v)
	}
}
