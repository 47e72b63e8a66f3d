// Package serialize emits the wrapped CCv2 and CCv3 JSON shapes from a
// canonical card. Each serializer is the logical inverse of normalization for
// its own dialect: serializing then normalizing reproduces every field the
// dialect declares, with legacy artifacts already canonicalized away.
//
// Cross-dialect conversion is normalize-then-serialize-in-target-dialect.
// Fields with no equivalent in the target dialect are parked under a
// dedicated extensions sub-key instead of being discarded, and lifted back
// out on the next normalization.
package serialize
