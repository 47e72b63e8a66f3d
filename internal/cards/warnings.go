package cards

import "fmt"

// Warning records a quirk the pipeline repaired with a documented default
// instead of failing. Warnings ride alongside successful results and are never
// discarded silently; callers surface them to the user.
type Warning struct {
	Code    string
	Message string
}

func (w Warning) String() string {
	if w.Code == "" {
		return w.Message
	}
	return w.Code + ": " + w.Message
}

// Warnings accumulates non-fatal findings in encounter order.
type Warnings []Warning

// Add appends a formatted warning.
func (w *Warnings) Add(code, format string, args ...any) {
	*w = append(*w, Warning{Code: code, Message: fmt.Sprintf(format, args...)})
}

// Merge appends every warning from other.
func (w *Warnings) Merge(other Warnings) {
	*w = append(*w, other...)
}
