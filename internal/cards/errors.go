package cards

import "errors"

// Sentinel errors for the fatal tier of the conversion pipeline. Codecs and
// the normalizer wrap these with context via fmt.Errorf("%w: ...") so callers
// can branch with errors.Is while still seeing the specific failure site.
var (
	// ErrUnrecognizedCardShape: the payload matches none of the known card
	// shapes (wrapped, unwrapped legacy, hybrid root).
	ErrUnrecognizedCardShape = errors.New("unrecognized card shape")

	// ErrContainerShapeUnknown: a ZIP archive matches neither the CHARX nor
	// the Voxta layout. Detection fails closed rather than guessing.
	ErrContainerShapeUnknown = errors.New("container shape unknown")

	// ErrNoEmbeddedCardData: a structurally valid PNG carries no recognized
	// card chunk. Recoverable; callers may treat the file as a plain image.
	ErrNoEmbeddedCardData = errors.New("no embedded card data")

	// ErrDanglingAssetRef: a card references an embeded:// URI with no
	// matching archive entry at build time.
	ErrDanglingAssetRef = errors.New("dangling embedded asset reference")

	// ErrCorruptContainer: malformed PNG chunk stream or ZIP structure.
	ErrCorruptContainer = errors.New("corrupt container")
)
