package voxta_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"cardex/internal/assets"
	"cardex/internal/cards"
	"cardex/internal/detect"
	"cardex/internal/testsupport"
	"cardex/internal/voxta"
)

func buildPackage(t *testing.T, card *cards.Card, blobs []assets.Blob) []byte {
	t.Helper()
	buf, _, err := voxta.Build(context.Background(), card, blobs, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return buf
}

func archiveNames(t *testing.T, buf []byte) []string {
	t.Helper()
	zr, err := detect.OpenZIP(buf)
	if err != nil {
		t.Fatalf("OpenZIP: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestBuildExcludesMainAvatar(t *testing.T) {
	card := testsupport.NewCardV3()
	card.Assets = []cards.Asset{
		{Type: cards.AssetIcon, Name: "main", URI: "ccdefault:", Ext: "png"},
		{Type: cards.AssetIcon, Name: "alt", URI: "ccdefault:", Ext: "png"},
		{Type: cards.AssetBackground, Name: "hall", URI: "ccdefault:", Ext: "png"},
	}
	blobs := []assets.Blob{
		{Asset: card.Assets[0], Data: testsupport.PNG(t)},
		{Asset: card.Assets[1], Data: testsupport.PNG(t)},
		{Asset: card.Assets[2], Data: testsupport.PNG(t)},
	}

	names := archiveNames(t, buildPackage(t, card, blobs))
	for _, n := range names {
		if strings.Contains(n, "/Avatars/") && strings.Contains(n, "main") {
			t.Fatalf("main avatar must not be written, found %q", n)
		}
	}
	hasAlt, hasBackground := false, false
	for _, n := range names {
		if strings.HasSuffix(n, "/Assets/Avatars/Default/alt.png") {
			hasAlt = true
		}
		if strings.HasSuffix(n, "/Assets/Backgrounds/hall.png") {
			hasBackground = true
		}
	}
	if !hasAlt || !hasBackground {
		t.Fatalf("secondary assets missing from archive: %v", names)
	}
}

func TestBuildExcludesOnlyMatchedMainAvatar(t *testing.T) {
	card := testsupport.NewCardV3()
	// Duplicate descriptors: only the one MainIcon resolves to is excluded.
	card.Assets = []cards.Asset{
		{Type: cards.AssetIcon, Name: "main", URI: "ccdefault:", Ext: "png"},
		{Type: cards.AssetIcon, Name: "main", URI: "ccdefault:", Ext: "png"},
	}
	blobs := []assets.Blob{
		{Asset: card.Assets[0], Data: testsupport.PNG(t)},
		{Asset: card.Assets[1], Data: testsupport.PNG(t)},
	}

	names := archiveNames(t, buildPackage(t, card, blobs))
	written := 0
	for _, n := range names {
		if strings.HasSuffix(n, "/Assets/Avatars/Default/main.png") {
			written++
		}
	}
	if written != 1 {
		t.Fatalf("expected 1 surviving duplicate avatar, got %d: %v", written, names)
	}
}

func TestAlternateGreetingsSurviveRoundTrip(t *testing.T) {
	card := testsupport.NewCardV3()
	card.AlternateGreetings = []string{"Hi {{ user }}.", "Greetings."}

	buf, warns, err := voxta.Build(context.Background(), card, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, w := range warns {
		if strings.Contains(w.Message, "alternate") {
			t.Fatalf("greetings are mapped, not dropped: %v", w)
		}
	}

	pkg, _, err := voxta.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got := pkg.Card.AlternateGreetings
	want := []string{"Hi {{user}}.", "Greetings."}
	if len(got) != len(want) {
		t.Fatalf("greetings: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("greeting %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestBuildLossyWarningOrderIsStable(t *testing.T) {
	card := testsupport.NewCardV3()
	card.Extensions["zeta_vendor"] = json.RawMessage(`1`)
	card.Extensions["alpha_vendor"] = json.RawMessage(`2`)
	card.Extensions["mid_vendor"] = json.RawMessage(`3`)

	_, warns, err := voxta.Build(context.Background(), card, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var dropped []string
	for _, w := range warns {
		if w.Code == "voxta_lossy" {
			dropped = append(dropped, w.Message)
		}
	}
	want := []string{
		`extension "alpha_vendor" is dropped on Voxta export`,
		`extension "mid_vendor" is dropped on Voxta export`,
		`extension "zeta_vendor" is dropped on Voxta export`,
	}
	if len(dropped) != len(want) {
		t.Fatalf("lossy warnings: got %v want %v", dropped, want)
	}
	for i := range want {
		if dropped[i] != want[i] {
			t.Fatalf("warning %d: got %q want %q", i, dropped[i], want[i])
		}
	}
}

func TestBuildReportsLossyDrops(t *testing.T) {
	card := testsupport.NewCardV3()
	card.SystemPrompt = "You are Amanda."
	card.PostHistoryInstructions = "Stay concise."
	card.Extensions["custom_vendor"] = json.RawMessage(`{"k":"v"}`)

	_, warns, err := voxta.Build(context.Background(), card, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	lossy := 0
	for _, w := range warns {
		if w.Code == "voxta_lossy" {
			lossy++
		}
	}
	if lossy != 3 {
		t.Fatalf("expected 3 lossy warnings, got %d: %v", lossy, warns)
	}
}

func TestBuildCompactsMacros(t *testing.T) {
	card := testsupport.NewCardV3()
	card.FirstMes = "Hello {{ user }}, I am {{ char }}."

	buf := buildPackage(t, card, nil)
	pkg, _, err := voxta.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := "Hello {{user}}, I am {{char}}."
	if pkg.Card.FirstMes != want {
		t.Fatalf("macros not compacted: got %q want %q", pkg.Card.FirstMes, want)
	}
}

func TestRoundTripKeepsVoxtaFields(t *testing.T) {
	doc := map[string]any{
		"id":              "11111111-2222-3333-4444-555555555555",
		"name":            "Amanda",
		"profile":         "An archivist.",
		"personality":     "curious",
		"scenario":        "records hall",
		"firstMessage":    "Hello.",
		"messageExamples": "",
		"creator":         "testsuite",
		"creatorNotes":    "",
		"tags":            []string{"fixture"},
		"version":         "1.0",
		"ttsVoice":        "en-GB-standard-A",
		"explicitContent": false,
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("Characters/11111111-2222-3333-4444-555555555555/character.json")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := w.Write(raw); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	pkg, _, err := voxta.Read(buf.Bytes())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if pkg.Card.Name != "Amanda" || pkg.Card.Description != "An archivist." {
		t.Fatalf("mapped fields wrong: %+v", pkg.Card)
	}

	var kept map[string]json.RawMessage
	if !pkg.Card.Extensions.Lookup(cards.ExtVoxta, &kept) {
		t.Fatal("voxta passthrough fields missing from extensions")
	}
	if string(kept["ttsVoice"]) != `"en-GB-standard-A"` {
		t.Fatalf("ttsVoice not preserved: %s", kept["ttsVoice"])
	}

	// Re-export must reuse the preserved character id and fields.
	out := buildPackage(t, pkg.Card, pkg.Blobs)
	names := archiveNames(t, out)
	found := false
	for _, n := range names {
		if n == "Characters/11111111-2222-3333-4444-555555555555/character.json" {
			found = true
		}
	}
	if !found {
		t.Fatalf("character id not reused on re-export: %v", names)
	}

	zr, err := detect.OpenZIP(out)
	if err != nil {
		t.Fatalf("OpenZIP: %v", err)
	}
	var rebuilt map[string]json.RawMessage
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, "character.json") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if err := json.NewDecoder(rc).Decode(&rebuilt); err != nil {
			t.Fatalf("decode: %v", err)
		}
		rc.Close()
	}
	if string(rebuilt["ttsVoice"]) != `"en-GB-standard-A"` {
		t.Fatalf("ttsVoice lost on re-export: %s", rebuilt["ttsVoice"])
	}
}

func TestBookSurvivesLossyShape(t *testing.T) {
	card := testsupport.NewCardV3()

	buf := buildPackage(t, card, nil)
	pkg, _, err := voxta.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	book := pkg.Card.CharacterBook
	if book == nil {
		t.Fatal("book lost entirely")
	}
	if len(book.Entries) != len(card.CharacterBook.Entries) {
		t.Fatalf("entry count: got %d want %d", len(book.Entries), len(card.CharacterBook.Entries))
	}
	for i, e := range book.Entries {
		src := card.CharacterBook.Entries[i]
		if e.Content != src.Content {
			t.Fatalf("entry %d content: got %q want %q", i, e.Content, src.Content)
		}
		if len(e.Keys) != len(src.Keys) {
			t.Fatalf("entry %d keys: got %v want %v", i, e.Keys, src.Keys)
		}
		if e.Enabled != src.Enabled {
			t.Fatalf("entry %d enabled: got %v want %v", i, e.Enabled, src.Enabled)
		}
	}
}

func TestReadFallsBackToFirstJSON(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("Characters/deadbeef/Amanda.json")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := w.Write([]byte(`{"id":"deadbeef","name":"Amanda"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	pkg, _, err := voxta.Read(buf.Bytes())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if pkg.Card.Name != "Amanda" {
		t.Fatalf("name: got %q", pkg.Card.Name)
	}
}
