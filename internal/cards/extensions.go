package cards

import (
	"bytes"
	"encoding/json"
)

// Extensions is the opaque platform-extension bag. Values are retained as raw
// JSON so unknown keys survive every normalize/serialize round trip
// byte-for-byte. Only the small set of keys the editor understands is ever
// parsed or rewritten; everything else is carried blind.
type Extensions map[string]json.RawMessage

// Recognized extension keys the editor reads or rewrites. All other keys are
// pass-through payloads.
const (
	ExtDepthPrompt       = "depth_prompt"
	ExtVisualDescription = "visual_description"
	ExtChub              = "chub"
	ExtRisuAI            = "risuai"
	ExtVoxta             = "voxta"
	ExtTagline           = "tagline"

	// ExtDialectExtras holds fields that have no equivalent in the target
	// dialect during cross-dialect export, so nothing is silently discarded.
	ExtDialectExtras = "cardex_extras"
)

// Clone returns a deep copy. Raw values are copied so mutating the clone never
// aliases the source.
func (e Extensions) Clone() Extensions {
	if e == nil {
		return nil
	}
	out := make(Extensions, len(e))
	for k, v := range e {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// Equal reports whether two bags carry the same keys with semantically equal
// JSON values (whitespace-insensitive).
func (e Extensions) Equal(other Extensions) bool {
	if len(e) != len(other) {
		return false
	}
	for k, v := range e {
		ov, ok := other[k]
		if !ok {
			return false
		}
		if !jsonEqual(v, ov) {
			return false
		}
	}
	return true
}

func jsonEqual(a, b json.RawMessage) bool {
	if bytes.Equal(a, b) {
		return true
	}
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return false
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}

// Lookup decodes the value stored under key into dst. The second return is
// false when the key is absent or the value does not parse as dst's shape.
func (e Extensions) Lookup(key string, dst any) bool {
	raw, ok := e[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// Set stores v under key, replacing any existing value.
func (e Extensions) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e[key] = raw
	return nil
}

// DepthPrompt is the depth-injected prompt extension used by several frontends.
type DepthPrompt struct {
	Prompt string `json:"prompt"`
	Depth  int    `json:"depth"`
	Role   string `json:"role,omitempty"`
}

// DepthPrompt returns the typed depth_prompt extension when present and valid.
func (e Extensions) DepthPrompt() (DepthPrompt, bool) {
	var dp DepthPrompt
	ok := e.Lookup(ExtDepthPrompt, &dp)
	return dp, ok
}

// Tagline returns the tagline extension when present.
func (e Extensions) Tagline() (string, bool) {
	var s string
	ok := e.Lookup(ExtTagline, &s)
	return s, ok
}

// VisualDescription returns the visual_description extension when present.
func (e Extensions) VisualDescription() (string, bool) {
	var s string
	ok := e.Lookup(ExtVisualDescription, &s)
	return s, ok
}
