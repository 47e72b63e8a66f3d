// Package testsupport provides shared fixtures for conversion tests: test
// configs seeded with temp directories, canonical card builders, and a
// minimal synthetic PNG.
package testsupport

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"path/filepath"
	"testing"

	"cardex/internal/cards"
	"cardex/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Fetch.Enabled = false

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// NewCardV3 builds a populated v3 canonical card for round-trip tests.
func NewCardV3() *cards.Card {
	probability := 100
	return &cards.Card{
		Spec:        cards.SpecV3,
		Name:        "Amanda",
		Description: "A thoughtful archivist.",
		Personality: "curious, patient",
		Scenario:    "A rainy evening in the records hall.",
		FirstMes:    "Oh! I did not hear you come in, {{user}}.",
		MesExample:  "<START>{{user}}: hello\n{{char}}: Welcome back.",

		Creator:          "testsuite",
		CharacterVersion: "1.0",
		CreatorNotes:     "fixture card",

		Tags:               []string{"fixture", "archive"},
		AlternateGreetings: []string{"Back again so soon?"},
		GroupOnlyGreetings: []string{},

		CharacterBook: &cards.Book{
			Name:       "records",
			Extensions: cards.Extensions{},
			Entries: []cards.Entry{
				{
					Keys:           []string{"ledger"},
					Content:        "The ledger is kept in the east wing.",
					Priority:       10,
					InsertionOrder: 0,
					Position:       cards.PositionBeforeChar,
					Probability:    &probability,
					SelectiveLogic: cards.LogicAnd,
					Enabled:        true,
					Extensions:     cards.Extensions{},
				},
				{
					Keys:           []string{"archive", "vault"},
					Content:        "The vault opens at dawn.",
					Priority:       5,
					InsertionOrder: 1,
					Position:       cards.PositionAfterChar,
					SelectiveLogic: cards.LogicAnd,
					Enabled:        true,
					Extensions:     cards.Extensions{},
				},
			},
		},

		Extensions: cards.Extensions{},
	}
}

// NewCardV2 builds a v2 canonical card.
func NewCardV2() *cards.Card {
	card := NewCardV3()
	card.Spec = cards.SpecV2
	card.GroupOnlyGreetings = nil
	card.Assets = nil
	return card
}

// PNG builds a minimal structurally valid PNG: signature, IHDR, one IDAT,
// IEND. The pixel payload is not a real deflate stream; the card codecs only
// parse chunk framing.
func PNG(t testing.TB) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})

	// 1x1, 8-bit RGBA.
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], 1)
	binary.BigEndian.PutUint32(ihdr[4:8], 1)
	ihdr[8] = 8
	ihdr[9] = 6
	writeChunk(&buf, "IHDR", ihdr)
	writeChunk(&buf, "IDAT", []byte{0x00, 0x01, 0x02, 0x03})
	writeChunk(&buf, "IEND", nil)
	return buf.Bytes()
}

func writeChunk(buf *bytes.Buffer, chunkType string, data []byte) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	buf.Write(length[:])

	crc := crc32.NewIEEE()
	crc.Write([]byte(chunkType))
	crc.Write(data)

	buf.WriteString(chunkType)
	buf.Write(data)

	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	buf.Write(sum[:])
}
