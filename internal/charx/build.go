package charx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"

	"cardex/internal/assets"
	"cardex/internal/cards"
	"cardex/internal/serialize"
)

// Build produces a CHARX archive from a canonical card and its blobs. Assets
// are written in canonical array order. Remote assets are fetched through
// fetcher when one is provided; a failed or skipped fetch degrades that asset
// to its remote URI with a warning.
func Build(ctx context.Context, card *cards.Card, blobs []assets.Blob, fetcher assets.Fetcher) ([]byte, cards.Warnings, error) {
	var warns cards.Warnings

	type pending struct {
		asset cards.Asset
		path  string
		data  []byte
	}

	taken := map[string]bool{}
	var entries []pending

	resolved := make([]cards.Asset, len(card.Assets))
	copy(resolved, card.Assets)

	for i, a := range resolved {
		data := findBlobData(blobs, a)
		if data == nil && assets.IsRemote(a.URI) && fetcher != nil {
			fetched, err := fetcher.Fetch(ctx, a.URI)
			if err != nil {
				warns.Add("asset_fetch_failed", "asset %q: %v; keeping remote reference", a.Name, err)
			} else {
				data = fetched
			}
		}
		if data == nil {
			if embedded, ok := assets.EmbeddedPath(a.URI); ok {
				return nil, warns, fmt.Errorf("%w: %s has no archive bytes", cards.ErrDanglingAssetRef, embedded)
			}
			// Reference-only asset (ccdefault:, data:, unfetched remote);
			// descriptor passes through unchanged.
			continue
		}

		path := assetPath(a, i, taken)
		taken[path] = true
		resolved[i].URI = assets.EmbeddedURI(path)
		entries = append(entries, pending{asset: resolved[i], path: path, data: data})
	}

	out := *card
	out.Spec = cards.SpecV3
	out.Assets = resolved

	cardJSON, err := serialize.Card(&out, cards.SpecV3)
	if err != nil {
		return nil, warns, fmt.Errorf("serialize card.json: %w", err)
	}

	archived := map[string]bool{}
	for _, e := range entries {
		archived[e.path] = true
	}
	if err := validateEmbeddedRefs(cardJSON, archived); err != nil {
		return nil, warns, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	if err := writeEntry(zw, "card.json", cardJSON); err != nil {
		return nil, warns, err
	}
	for _, e := range entries {
		if err := writeEntry(zw, e.path, e.data); err != nil {
			return nil, warns, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, warns, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), warns, nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// assetPath places an asset at assets/{type}/{name}.{ext}, falling back to
// the array index when the name is empty, and suffixing on collision. First
// occurrence keeps the bare name.
func assetPath(a cards.Asset, index int, taken map[string]bool) string {
	name := sanitizeName(a.Name)
	if name == "" {
		name = fmt.Sprintf("%d", index)
	}
	ext := strings.TrimPrefix(a.Ext, ".")
	if ext == "" {
		ext = "bin"
	}
	base := fmt.Sprintf("assets/%s/%s.%s", a.Type, name, ext)
	if !taken[base] {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("assets/%s/%s_%d.%s", a.Type, name, n, ext)
		if !taken[candidate] {
			return candidate
		}
	}
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	return b.String()
}

func findBlobData(blobs []assets.Blob, a cards.Asset) []byte {
	for _, b := range blobs {
		if b.Data == nil {
			continue
		}
		if a.URI != "" && b.Asset.URI == a.URI {
			return b.Data
		}
		if b.Asset.Type == a.Type && b.Asset.Name == a.Name {
			return b.Data
		}
	}
	return nil
}

// validateEmbeddedRefs walks the serialized card for embeded:// URIs and
// confirms each has a physical archive entry.
func validateEmbeddedRefs(cardJSON []byte, archived map[string]bool) error {
	var doc any
	if err := json.Unmarshal(cardJSON, &doc); err != nil {
		return fmt.Errorf("re-parse card.json: %w", err)
	}
	var dangling []string
	walkStrings(doc, func(s string) {
		path, ok := assets.EmbeddedPath(s)
		if ok && !archived[path] {
			dangling = append(dangling, path)
		}
	})
	if len(dangling) > 0 {
		return fmt.Errorf("%w: %s", cards.ErrDanglingAssetRef, strings.Join(dangling, ", "))
	}
	return nil
}

func walkStrings(v any, fn func(string)) {
	switch t := v.(type) {
	case string:
		fn(t)
	case []any:
		for _, item := range t {
			walkStrings(item, fn)
		}
	case map[string]any:
		for _, item := range t {
			walkStrings(item, fn)
		}
	}
}
