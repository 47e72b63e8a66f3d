package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cardex/internal/assets"
	"cardex/internal/cards"
)

// writeBlobs stores asset bytes under assets/{record-id}/ using a filename
// that round-trips the descriptor: {type}__{name}.{ext}.
func (s *Store) writeBlobs(id string, blobs []assets.Blob) error {
	withData := 0
	for _, b := range blobs {
		if b.Data != nil {
			withData++
		}
	}
	if withData == 0 {
		return nil
	}

	dir := filepath.Join(s.assetDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create asset directory: %w", err)
	}
	for i, b := range blobs {
		if b.Data == nil {
			continue
		}
		name := blobFilename(b.Asset, i)
		if err := os.WriteFile(filepath.Join(dir, name), b.Data, 0o644); err != nil {
			return fmt.Errorf("write asset %s: %w", name, err)
		}
	}
	return nil
}

func blobFilename(a cards.Asset, index int) string {
	name := a.Name
	if name == "" {
		name = fmt.Sprintf("%d", index)
	}
	name = strings.ReplaceAll(name, "/", "_")
	ext := strings.TrimPrefix(a.Ext, ".")
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s__%s.%s", a.Type, name, ext)
}

func assetFromFilename(filename string) cards.Asset {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	typeSeg, name, found := strings.Cut(base, "__")
	if !found {
		return cards.Asset{Type: cards.AssetCustom, Name: base, Ext: ext}
	}
	assetType := cards.AssetType(typeSeg)
	switch assetType {
	case cards.AssetIcon, cards.AssetEmotion, cards.AssetBackground, cards.AssetCustom, cards.AssetSound:
	default:
		assetType = cards.AssetCustom
	}
	return cards.Asset{Type: assetType, Name: name, Ext: ext}
}
