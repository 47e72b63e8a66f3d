package pngcard

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"cardex/internal/cards"
)

// recognizedKeys lists every tEXt keyword that may carry card data, in read
// priority order. The first keyword with a decodable payload wins.
var recognizedKeys = []string{"chara", "ccv3", "chara_card_v3"}

// writeKey is the keyword new exports embed under. Readers across platforms
// all understand chara.
const writeKey = "chara"

// Read extracts the embedded card JSON from a PNG buffer. It returns
// ErrNoEmbeddedCardData when the image is structurally valid but carries no
// recognized chunk; that case is recoverable (the file is a plain image).
func Read(buf []byte) ([]byte, error) {
	chunks, err := readChunks(buf)
	if err != nil {
		return nil, err
	}

	found := map[string]string{}
	for _, ch := range chunks {
		if ch.Type != "tEXt" {
			continue
		}
		keyword := textKeyword(ch.Data)
		for _, key := range recognizedKeys {
			if keyword != key {
				continue
			}
			if _, dup := found[key]; dup {
				continue // first chunk per keyword wins
			}
			if text, ok := textValue(ch.Data); ok {
				found[key] = text
			}
		}
	}

	for _, key := range recognizedKeys {
		text, ok := found[key]
		if !ok {
			continue
		}
		payload, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			// A malformed payload under one keyword does not block a valid
			// payload under a lower-priority one.
			continue
		}
		return payload, nil
	}
	return nil, cards.ErrNoEmbeddedCardData
}

// Write embeds cardJSON into baseImage, returning a new PNG buffer. Every
// pre-existing tEXt/zTXt chunk with a recognized keyword is removed first;
// the fresh chara chunk is inserted immediately before IEND. All other chunks
// pass through byte-identical.
func Write(baseImage, cardJSON []byte) ([]byte, error) {
	chunks, err := readChunks(baseImage)
	if err != nil {
		return nil, err
	}

	payload := base64.StdEncoding.EncodeToString(cardJSON)
	embedded := chunk{Type: "tEXt", Data: encodeTextChunk(writeKey, payload)}

	var out bytes.Buffer
	out.Grow(len(baseImage) + len(embedded.Data) + 12)
	out.Write(pngSignature)

	for _, ch := range chunks {
		if (ch.Type == "tEXt" || ch.Type == "zTXt") && isRecognizedKeyword(textKeyword(ch.Data)) {
			continue
		}
		if ch.Type == "IEND" {
			writeChunk(&out, embedded)
		}
		writeChunk(&out, ch)
	}
	return out.Bytes(), nil
}

// ChunkCount reports how many tEXt/zTXt chunks carry a recognized keyword.
// Exported for re-embed idempotence checks.
func ChunkCount(buf []byte) (int, error) {
	chunks, err := readChunks(buf)
	if err != nil {
		return 0, fmt.Errorf("count card chunks: %w", err)
	}
	count := 0
	for _, ch := range chunks {
		if (ch.Type == "tEXt" || ch.Type == "zTXt") && isRecognizedKeyword(textKeyword(ch.Data)) {
			count++
		}
	}
	return count, nil
}

func isRecognizedKeyword(keyword string) bool {
	for _, key := range recognizedKeys {
		if keyword == key {
			return true
		}
	}
	return false
}
