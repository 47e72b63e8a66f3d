package detect

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/jsonc"

	"cardex/internal/cards"
)

// Kind is the container classification of a raw buffer.
type Kind string

const (
	KindPNG     Kind = "png"
	KindZIP     Kind = "zip"
	KindJSON    Kind = "json"
	KindUnknown Kind = "unknown"
)

// Container distinguishes the two supported ZIP layouts.
type Container string

const (
	ContainerCHARX Container = "charx"
	ContainerVoxta Container = "voxta"
)

var (
	pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}
)

// Result describes what a buffer was classified as.
type Result struct {
	Kind Kind

	// ZIPOffset is the byte offset of the first local-file-header signature.
	// Non-zero for self-extracting archives with a prepended stub; container
	// readers slice from here.
	ZIPOffset int

	// JSON holds the payload with jsonc artifacts (comments, trailing commas)
	// stripped. Set only for KindJSON.
	JSON []byte
}

// Sniff classifies buf. JSON detection is the fallback: a tolerant decode
// through jsonc followed by a strict validity check, so cards saved with
// comments or trailing commas still import.
func Sniff(buf []byte) Result {
	if bytes.HasPrefix(buf, pngMagic) {
		return Result{Kind: KindPNG}
	}
	if off := bytes.Index(buf, zipMagic); off >= 0 {
		return Result{Kind: KindZIP, ZIPOffset: off}
	}
	if utf8.Valid(buf) {
		clean := jsonc.ToJSON(buf)
		if json.Valid(clean) && isObjectOrArray(clean) {
			return Result{Kind: KindJSON, JSON: clean}
		}
	}
	return Result{Kind: KindUnknown}
}

func isObjectOrArray(buf []byte) bool {
	trimmed := bytes.TrimLeft(buf, " \t\r\n")
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// OpenZIP opens buf as a ZIP archive, skipping any SFX stub ahead of the
// first local-file-header signature.
func OpenZIP(buf []byte) (*zip.Reader, error) {
	res := Sniff(buf)
	if res.Kind != KindZIP {
		return nil, fmt.Errorf("%w: no zip signature in buffer", cards.ErrCorruptContainer)
	}
	payload := buf[res.ZIPOffset:]
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cards.ErrCorruptContainer, err)
	}
	return zr, nil
}

// ClassifyArchive reports which supported layout a ZIP archive follows:
// a root-level card.json marks CHARX, a Characters/{uuid}/ path prefix marks
// Voxta. Anything else is ErrContainerShapeUnknown.
func ClassifyArchive(zr *zip.Reader) (Container, error) {
	for _, f := range zr.File {
		name := strings.TrimPrefix(f.Name, "./")
		if name == "card.json" {
			return ContainerCHARX, nil
		}
		if isVoxtaPath(name) {
			return ContainerVoxta, nil
		}
	}
	return "", fmt.Errorf("%w: neither card.json nor Characters/ layout present", cards.ErrContainerShapeUnknown)
}

func isVoxtaPath(name string) bool {
	rest, ok := strings.CutPrefix(name, "Characters/")
	if !ok {
		return false
	}
	// The first path segment under Characters/ is the character id.
	seg, _, found := strings.Cut(rest, "/")
	return found && seg != ""
}
