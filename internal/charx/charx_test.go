package charx_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"cardex/internal/assets"
	"cardex/internal/cards"
	"cardex/internal/charx"
	"cardex/internal/detect"
	"cardex/internal/testsupport"
)

func iconCard(t *testing.T) (*cards.Card, []assets.Blob) {
	t.Helper()
	card := testsupport.NewCardV3()
	card.Assets = []cards.Asset{
		{Type: cards.AssetIcon, Name: "main", URI: "ccdefault:", Ext: "png"},
		{Type: cards.AssetEmotion, Name: "happy", URI: "ccdefault:", Ext: "png"},
	}
	blobs := []assets.Blob{
		{Asset: card.Assets[0], Data: testsupport.PNG(t)},
		{Asset: card.Assets[1], Data: testsupport.PNG(t)},
	}
	return card, blobs
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

func TestBuildLaysOutArchive(t *testing.T) {
	card, blobs := iconCard(t)
	buf, warns, err := charx.Build(context.Background(), card, blobs, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}

	names := archiveNames(t, buf)
	want := []string{"card.json", "assets/icon/main.png", "assets/emotion/happy.png"}
	for _, w := range want {
		found := false
		for _, n := range names {
			if n == w {
				found = true
			}
		}
		if !found {
			t.Fatalf("archive missing %q, has %v", w, names)
		}
	}
}

func TestBuildMainIconIsIncluded(t *testing.T) {
	card, blobs := iconCard(t)
	buf, _, err := charx.Build(context.Background(), card, blobs, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mainCount := 0
	for _, n := range archiveNames(t, buf) {
		if strings.HasPrefix(n, "assets/icon/") && strings.Contains(n, "main") {
			mainCount++
		}
	}
	if mainCount != 1 {
		t.Fatalf("expected exactly one main icon entry, got %d", mainCount)
	}
}

func TestBuildDoesNotMutateCard(t *testing.T) {
	card, blobs := iconCard(t)
	if _, _, err := charx.Build(context.Background(), card, blobs, nil); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if card.Assets[0].URI != "ccdefault:" {
		t.Fatalf("Build rewrote the caller's asset URI: %q", card.Assets[0].URI)
	}
}

func TestBuildDeduplicatesPaths(t *testing.T) {
	card := testsupport.NewCardV3()
	card.Assets = []cards.Asset{
		{Type: cards.AssetEmotion, Name: "smile", Ext: "png"},
		{Type: cards.AssetEmotion, Name: "smile", Ext: "png"},
	}
	blobs := []assets.Blob{
		{Asset: card.Assets[0], Data: []byte("first")},
		{Asset: card.Assets[1], Data: []byte("second")},
	}
	buf, _, err := charx.Build(context.Background(), card, blobs, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	names := archiveNames(t, buf)
	has := func(want string) bool {
		for _, n := range names {
			if n == want {
				return true
			}
		}
		return false
	}
	if !has("assets/emotion/smile.png") {
		t.Fatalf("first occurrence must keep the bare name: %v", names)
	}
	if !has("assets/emotion/smile_2.png") {
		t.Fatalf("second occurrence must take a numeric suffix: %v", names)
	}
}

func TestBuildRejectsDanglingEmbeddedRef(t *testing.T) {
	card := testsupport.NewCardV3()
	card.Assets = []cards.Asset{
		{Type: cards.AssetIcon, Name: "main", URI: "embeded://assets/icon/main.png", Ext: "png"},
	}
	_, _, err := charx.Build(context.Background(), card, nil, nil)
	if !errors.Is(err, cards.ErrDanglingAssetRef) {
		t.Fatalf("expected ErrDanglingAssetRef, got %v", err)
	}
}

func TestBuildKeepsReferenceOnlyAssets(t *testing.T) {
	card := testsupport.NewCardV3()
	card.Assets = []cards.Asset{
		{Type: cards.AssetIcon, Name: "main", URI: "ccdefault:", Ext: "png"},
	}
	buf, _, err := charx.Build(context.Background(), card, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	archive, _, err := charx.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(archive.Card.Assets) != 1 || archive.Card.Assets[0].URI != "ccdefault:" {
		t.Fatalf("reference-only descriptor must pass through: %+v", archive.Card.Assets)
	}
}

func TestRoundTrip(t *testing.T) {
	card, blobs := iconCard(t)
	buf, _, err := charx.Build(context.Background(), card, blobs, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	archive, warns, err := charx.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	if archive.Card.Spec != cards.SpecV3 {
		t.Fatalf("spec: got %q want v3", archive.Card.Spec)
	}
	if archive.Card.Name != card.Name {
		t.Fatalf("name: got %q want %q", archive.Card.Name, card.Name)
	}
	if len(archive.Blobs) != 2 {
		t.Fatalf("blob count: got %d want 2", len(archive.Blobs))
	}
	for _, b := range archive.Blobs {
		if !bytes.HasPrefix(b.Data, []byte{0x89, 'P', 'N', 'G'}) {
			t.Fatalf("blob %q lost its bytes", b.Asset.Name)
		}
		if _, ok := assets.EmbeddedPath(b.Asset.URI); !ok {
			t.Fatalf("blob %q URI not embedded: %q", b.Asset.Name, b.Asset.URI)
		}
	}

	icon, ok := archive.Card.MainIcon()
	if !ok {
		t.Fatal("round-tripped card lost its main icon")
	}
	if icon.Name != "main" {
		t.Fatalf("main icon: got %q", icon.Name)
	}
}

func TestReadWithoutCardJSON(t *testing.T) {
	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	w, err := zw.Create("Characters/abc/character.json")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := w.Write([]byte(`{"id":"abc","name":"X"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, _, err = charx.Read(out.Bytes())
	if !errors.Is(err, cards.ErrContainerShapeUnknown) {
		t.Fatalf("expected ErrContainerShapeUnknown, got %v", err)
	}
}
