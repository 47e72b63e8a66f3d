// Package normalize converts a parsed JSON payload of unknown (but bounded)
// dialect into the canonical card.
//
// Shape detection runs first and is the only step that can hard-fail: the
// payload must match one of three structural variants (wrapped data object,
// unwrapped legacy with root-level name, hybrid with spec at root). Every
// later step repairs quirks with documented defaults and records a warning
// instead of failing: legacy spec tokens, millisecond timestamps, numeric
// lorebook position encodings, null extension bags, and missing v3 required
// fields.
//
// Normalization is a pure function of its input; it never reorders existing
// array elements and only appends defaults when a field is wholly absent.
package normalize
