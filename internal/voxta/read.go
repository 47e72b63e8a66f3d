package voxta

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"cardex/internal/assets"
	"cardex/internal/cards"
	"cardex/internal/detect"
)

// Package is the result of reading a Voxta character package.
type Package struct {
	Card  *cards.Card
	Blobs []assets.Blob
}

// voxtaBook is the lossy lorebook shape inside character.json. Only keys,
// text, and the enabled flag survive a trip through Voxta.
type voxtaBook struct {
	Name    string       `json:"name,omitzero"`
	Entries []voxtaEntry `json:"entries"`
}

type voxtaEntry struct {
	Keys    []string `json:"keys"`
	Text    string   `json:"text"`
	Enabled bool     `json:"enabled"`
}

// Read parses a .voxpkg buffer. Core narrative fields map into the canonical
// card with macros compacted; every Voxta-only field is kept under
// extensions.voxta so exporting back to Voxta reproduces it.
func Read(buf []byte) (*Package, cards.Warnings, error) {
	var warns cards.Warnings

	zr, err := detect.OpenZIP(buf)
	if err != nil {
		return nil, nil, err
	}

	charRoot, rawDoc, err := findCharacterJSON(zr)
	if err != nil {
		return nil, nil, err
	}

	ch, rest, err := splitDocument(rawDoc)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: character.json does not decode: %v", cards.ErrCorruptContainer, err)
	}

	card := &cards.Card{
		Spec:         cards.SpecV3,
		Name:         ch.Name,
		Description:  compactMacros(ch.Profile),
		Personality:  compactMacros(ch.Personality),
		Scenario:     compactMacros(ch.Scenario),
		FirstMes:     compactMacros(ch.FirstMessage),
		MesExample:   compactMacros(ch.MessageExamples),
		Creator:      ch.Creator,
		CreatorNotes: ch.CreatorNotes,

		CharacterVersion:   ch.Version,
		Tags:               emptyIfNil(ch.Tags),
		AlternateGreetings: emptyIfNil(compactMacrosAll(ch.AlternateGreetings)),
		GroupOnlyGreetings: []string{},
		Extensions:         cards.Extensions{},
	}

	if rawBook, ok := rest["book"]; ok {
		var vb voxtaBook
		if err := json.Unmarshal(rawBook, &vb); err == nil {
			card.CharacterBook = bookFromVoxta(vb)
			delete(rest, "book")
		}
	}

	if len(rest) > 0 {
		raw, err := json.Marshal(rest)
		if err != nil {
			return nil, nil, fmt.Errorf("retain voxta fields: %w", err)
		}
		card.Extensions[cards.ExtVoxta] = raw
	}

	blobs, err := readBlobs(zr, charRoot, card)
	if err != nil {
		return nil, warns, err
	}

	return &Package{Card: card, Blobs: blobs}, warns, nil
}

// findCharacterJSON locates Characters/{id}/character.json, falling back to
// the first JSON file directly under a character directory. Returns the
// Characters/{id} prefix alongside the document bytes.
func findCharacterJSON(zr *zip.Reader) (string, []byte, error) {
	var fallbackFile *zip.File
	var fallbackRoot string

	for _, f := range zr.File {
		name := strings.TrimPrefix(f.Name, "./")
		rest, ok := strings.CutPrefix(name, "Characters/")
		if !ok {
			continue
		}
		id, file, found := strings.Cut(rest, "/")
		if !found || id == "" {
			continue
		}
		root := "Characters/" + id
		if file == "character.json" {
			data, err := readEntry(f)
			return root, data, err
		}
		if fallbackFile == nil && !strings.Contains(file, "/") && strings.HasSuffix(file, ".json") {
			fallbackFile = f
			fallbackRoot = root
		}
	}
	if fallbackFile != nil {
		data, err := readEntry(fallbackFile)
		return fallbackRoot, data, err
	}
	return "", nil, fmt.Errorf("%w: no character.json under Characters/", cards.ErrContainerShapeUnknown)
}

// readBlobs collects everything under {charRoot}/Assets/ and appends matching
// descriptors to the card's asset list in archive order.
func readBlobs(zr *zip.Reader, charRoot string, card *cards.Card) ([]assets.Blob, error) {
	var blobs []assets.Blob
	prefix := charRoot + "/Assets/"
	for _, f := range zr.File {
		name := strings.TrimPrefix(f.Name, "./")
		if !strings.HasPrefix(name, prefix) || strings.HasSuffix(name, "/") {
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return nil, err
		}
		file := path.Base(name)
		asset := cards.Asset{
			Type: inferAssetType(name),
			Name: strings.TrimSuffix(file, path.Ext(file)),
			Ext:  strings.TrimPrefix(path.Ext(file), "."),
			URI:  assets.EmbeddedURI(strings.TrimPrefix(name, charRoot+"/")),
		}
		card.Assets = append(card.Assets, asset)
		blobs = append(blobs, assets.Blob{Asset: asset, Data: data})
	}
	return blobs, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", cards.ErrCorruptContainer, f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", cards.ErrCorruptContainer, f.Name, err)
	}
	return data, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// bookFromVoxta lifts the lossy Voxta book back into canonical form with
// defaults for everything Voxta does not carry.
func bookFromVoxta(vb voxtaBook) *cards.Book {
	book := &cards.Book{
		Name:       vb.Name,
		Extensions: cards.Extensions{},
	}
	for i, e := range vb.Entries {
		book.Entries = append(book.Entries, cards.Entry{
			Keys:           emptyIfNil(e.Keys),
			Content:        e.Text,
			Enabled:        e.Enabled,
			InsertionOrder: i,
			Position:       cards.PositionAfterChar,
			SelectiveLogic: cards.LogicAnd,
			Extensions:     cards.Extensions{},
		})
	}
	return book
}

// inferAssetType classifies an archive asset by its path and extension.
func inferAssetType(archivePath string) cards.AssetType {
	if strings.Contains(archivePath, "/Avatars/") {
		return cards.AssetIcon
	}
	if strings.Contains(archivePath, "/Backgrounds/") {
		return cards.AssetBackground
	}
	switch strings.ToLower(strings.TrimPrefix(path.Ext(archivePath), ".")) {
	case "mp3", "wav", "ogg", "flac":
		return cards.AssetSound
	}
	return cards.AssetCustom
}
