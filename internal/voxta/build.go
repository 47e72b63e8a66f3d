package voxta

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/flate"

	"cardex/internal/assets"
	"cardex/internal/cards"
)

// Build produces a .voxpkg archive from a canonical card. The conversion is
// intentionally lossy: system_prompt, post_history_instructions, and
// extension keys outside voxta do not survive, and each such drop is
// reported as a warning. The main avatar is never written under
// Assets/Avatars; Voxta owns that data.
func Build(ctx context.Context, card *cards.Card, blobs []assets.Blob, fetcher assets.Fetcher) ([]byte, cards.Warnings, error) {
	var warns cards.Warnings

	rest := map[string]json.RawMessage{}
	if card.Extensions != nil {
		if raw, ok := card.Extensions[cards.ExtVoxta]; ok {
			if err := json.Unmarshal(raw, &rest); err != nil {
				warns.Add("voxta_ext_invalid", "extensions.voxta is not an object; ignoring")
				rest = map[string]json.RawMessage{}
			}
		}
	}

	reportDropped(card, &warns)

	id := characterID(rest)

	ch := character{
		ID:                 id,
		Name:               card.Name,
		Personality:        compactMacros(card.Personality),
		Profile:            compactMacros(card.Description),
		Scenario:           compactMacros(card.Scenario),
		FirstMessage:       compactMacros(card.FirstMes),
		AlternateGreetings: compactMacrosAll(card.AlternateGreetings),
		MessageExamples:    compactMacros(card.MesExample),
		Creator:            card.Creator,
		CreatorNotes:       card.CreatorNotes,
		Tags:               card.Tags,
		Version:            card.CharacterVersion,
	}

	if card.CharacterBook != nil {
		raw, err := json.Marshal(bookToVoxta(card.CharacterBook))
		if err != nil {
			return nil, warns, fmt.Errorf("marshal book: %w", err)
		}
		rest["book"] = raw
	}

	doc, err := mergeDocument(ch, rest)
	if err != nil {
		return nil, warns, fmt.Errorf("assemble character.json: %w", err)
	}

	root := "Characters/" + id

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	if err := writeEntry(zw, root+"/character.json", doc); err != nil {
		return nil, warns, err
	}

	mainIdx := card.MainIconIndex()
	for i, a := range card.Assets {
		if i == mainIdx {
			continue // main avatar exclusion
		}
		data := findBlobData(blobs, a)
		if data == nil && assets.IsRemote(a.URI) && fetcher != nil {
			fetched, err := fetcher.Fetch(ctx, a.URI)
			if err != nil {
				warns.Add("asset_fetch_failed", "asset %q: %v; skipping", a.Name, err)
			} else {
				data = fetched
			}
		}
		if data == nil {
			continue
		}
		if err := writeEntry(zw, root+"/"+assetPath(a), data); err != nil {
			return nil, warns, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, warns, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), warns, nil
}

// reportDropped warns about each field the Voxta mapping cannot represent.
func reportDropped(card *cards.Card, warns *cards.Warnings) {
	if card.SystemPrompt != "" {
		warns.Add("voxta_lossy", "system_prompt has no Voxta equivalent and is dropped")
	}
	if card.PostHistoryInstructions != "" {
		warns.Add("voxta_lossy", "post_history_instructions has no Voxta equivalent and is dropped")
	}
	keys := make([]string, 0, len(card.Extensions))
	for key := range card.Extensions {
		if key != cards.ExtVoxta {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		warns.Add("voxta_lossy", "extension %q is dropped on Voxta export", key)
	}
}

// characterID reuses the id a previous Voxta import preserved, otherwise
// mints a fresh one.
func characterID(rest map[string]json.RawMessage) string {
	if raw, ok := rest["id"]; ok {
		var id string
		if json.Unmarshal(raw, &id) == nil && id != "" {
			return id
		}
	}
	return uuid.NewString()
}

func bookToVoxta(book *cards.Book) voxtaBook {
	vb := voxtaBook{Name: book.Name, Entries: []voxtaEntry{}}
	for _, e := range book.Entries {
		vb.Entries = append(vb.Entries, voxtaEntry{
			Keys:    e.Keys,
			Text:    e.Content,
			Enabled: e.Enabled,
		})
	}
	return vb
}

// assetPath chooses the archive-relative location of an asset. Non-main
// avatars live under Assets/Avatars/Default, sounds under Assets/Sounds,
// backgrounds under Assets/Backgrounds, everything else under Assets.
func assetPath(a cards.Asset) string {
	file := a.Name
	if file == "" {
		file = "asset"
	}
	if ext := strings.TrimPrefix(a.Ext, "."); ext != "" {
		file += "." + ext
	}
	switch a.Type {
	case cards.AssetIcon:
		return "Assets/Avatars/Default/" + file
	case cards.AssetBackground:
		return "Assets/Backgrounds/" + file
	case cards.AssetSound:
		return "Assets/Sounds/" + file
	default:
		return "Assets/" + file
	}
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
