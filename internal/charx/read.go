package charx

import (
	"fmt"
	"io"
	"path"
	"strings"

	"cardex/internal/assets"
	"cardex/internal/cards"
	"cardex/internal/detect"
	"cardex/internal/normalize"
)

// Archive is the result of reading a CHARX container.
type Archive struct {
	Card  *cards.Card
	Blobs []assets.Blob
}

// Read parses a CHARX buffer: card.json is normalized (the container implies
// v3), and every entry under assets/ becomes a blob with its descriptor
// inferred from the path. Blob order follows the archive directory listing.
func Read(buf []byte) (*Archive, cards.Warnings, error) {
	zr, err := detect.OpenZIP(buf)
	if err != nil {
		return nil, nil, err
	}

	var cardJSON []byte
	for _, f := range zr.File {
		if strings.TrimPrefix(f.Name, "./") != "card.json" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: open card.json: %v", cards.ErrCorruptContainer, err)
		}
		cardJSON, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: read card.json: %v", cards.ErrCorruptContainer, err)
		}
		break
	}
	if cardJSON == nil {
		return nil, nil, fmt.Errorf("%w: no root card.json entry", cards.ErrContainerShapeUnknown)
	}

	card, warns, err := normalize.Card(cardJSON)
	if err != nil {
		return nil, warns, fmt.Errorf("card.json: %w", err)
	}
	card.Spec = cards.SpecV3

	var blobs []assets.Blob
	for _, f := range zr.File {
		name := strings.TrimPrefix(f.Name, "./")
		if !strings.HasPrefix(name, "assets/") || strings.HasSuffix(name, "/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, warns, fmt.Errorf("%w: open %s: %v", cards.ErrCorruptContainer, name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, warns, fmt.Errorf("%w: read %s: %v", cards.ErrCorruptContainer, name, err)
		}
		blobs = append(blobs, assets.Blob{
			Asset: descriptorFromPath(name),
			Data:  data,
		})
	}

	if card.Assets == nil {
		// Older CHARX exports omit the descriptor list; rebuild it from the
		// archive so every blob stays addressable.
		for _, b := range blobs {
			card.Assets = append(card.Assets, b.Asset)
		}
	}

	return &Archive{Card: card, Blobs: blobs}, warns, nil
}

// descriptorFromPath infers an asset descriptor from an assets/{type}/{name}
// archive path.
func descriptorFromPath(archivePath string) cards.Asset {
	rest := strings.TrimPrefix(archivePath, "assets/")
	typeSeg, file, found := strings.Cut(rest, "/")
	if !found {
		file = typeSeg
		typeSeg = string(cards.AssetCustom)
	}
	// Nested directories under the type segment keep only the final name.
	file = path.Base(file)

	ext := strings.TrimPrefix(path.Ext(file), ".")
	name := strings.TrimSuffix(file, path.Ext(file))

	assetType := cards.AssetType(typeSeg)
	switch assetType {
	case cards.AssetIcon, cards.AssetEmotion, cards.AssetBackground, cards.AssetCustom, cards.AssetSound:
	default:
		assetType = cards.AssetCustom
	}

	return cards.Asset{
		Type: assetType,
		Name: name,
		Ext:  ext,
		URI:  assets.EmbeddedURI(archivePath),
	}
}
