package assets

import (
	"strings"

	"cardex/internal/cards"
)

// SchemeEmbedded is the archive-local URI prefix used by CHARX cards. The
// misspelling is part of the published format and must not be corrected.
const SchemeEmbedded = "embeded://"

// Blob pairs an asset descriptor with its bytes. Data may be nil for
// reference-only assets (remote URIs that were not fetched).
type Blob struct {
	Asset cards.Asset
	Data  []byte
}

// EmbeddedPath returns the archive path an embeded:// URI points at.
func EmbeddedPath(uri string) (string, bool) {
	return strings.CutPrefix(uri, SchemeEmbedded)
}

// EmbeddedURI builds the embeded:// URI for an archive path.
func EmbeddedURI(archivePath string) string {
	return SchemeEmbedded + strings.TrimPrefix(archivePath, "/")
}

// IsRemote reports whether the URI is fetchable over HTTP.
func IsRemote(uri string) bool {
	return strings.HasPrefix(uri, "https://") || strings.HasPrefix(uri, "http://")
}

// IsPassthrough reports whether the URI uses one of the recognized schemes
// that carry no archive bytes and must be passed through unchanged.
func IsPassthrough(uri string) bool {
	if strings.HasPrefix(uri, "ccdefault:") || strings.HasPrefix(uri, "data:") {
		return true
	}
	return strings.HasPrefix(uri, "__asset:") || strings.HasPrefix(uri, "asset:")
}
