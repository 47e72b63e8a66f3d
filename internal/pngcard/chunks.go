package pngcard

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"cardex/internal/cards"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// chunk is a single PNG chunk. Data excludes the length, type, and CRC
// framing.
type chunk struct {
	Type string
	Data []byte
}

// readChunks parses the chunk stream of a PNG buffer, verifying the signature
// and each chunk CRC. Structural damage is fatal.
func readChunks(buf []byte) ([]chunk, error) {
	if !bytes.HasPrefix(buf, pngSignature) {
		return nil, fmt.Errorf("%w: missing PNG signature", cards.ErrCorruptContainer)
	}
	r := bytes.NewReader(buf[len(pngSignature):])

	var chunks []chunk
	for {
		ch, err := readChunk(r)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		chunks = append(chunks, ch)
		if ch.Type == "IEND" {
			break
		}
	}
	if len(chunks) == 0 || chunks[len(chunks)-1].Type != "IEND" {
		return nil, fmt.Errorf("%w: IEND chunk missing", cards.ErrCorruptContainer)
	}
	return chunks, nil
}

func readChunk(r io.Reader) (chunk, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		if err == io.EOF {
			return chunk{}, io.EOF
		}
		return chunk{}, fmt.Errorf("%w: chunk length: %v", cards.ErrCorruptContainer, err)
	}

	typeAndData := make([]byte, 4+length)
	if _, err := io.ReadFull(r, typeAndData); err != nil {
		return chunk{}, fmt.Errorf("%w: chunk body: %v", cards.ErrCorruptContainer, err)
	}

	var crc uint32
	if err := binary.Read(r, binary.BigEndian, &crc); err != nil {
		return chunk{}, fmt.Errorf("%w: chunk CRC: %v", cards.ErrCorruptContainer, err)
	}

	if crc32.ChecksumIEEE(typeAndData) != crc {
		return chunk{}, fmt.Errorf("%w: CRC mismatch in %q chunk", cards.ErrCorruptContainer, string(typeAndData[:4]))
	}

	return chunk{Type: string(typeAndData[:4]), Data: typeAndData[4:]}, nil
}

func writeChunk(w *bytes.Buffer, ch chunk) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(ch.Data)))
	w.Write(length[:])

	crc := crc32.NewIEEE()
	crc.Write([]byte(ch.Type))
	crc.Write(ch.Data)

	w.WriteString(ch.Type)
	w.Write(ch.Data)

	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	w.Write(sum[:])
}

// textKeyword extracts the keyword of a tEXt or zTXt chunk without decoding
// the text segment.
func textKeyword(data []byte) string {
	idx := bytes.IndexByte(data, 0)
	if idx < 0 {
		return ""
	}
	return string(data[:idx])
}

// textValue extracts the text segment of a tEXt chunk.
func textValue(data []byte) (string, bool) {
	idx := bytes.IndexByte(data, 0)
	if idx < 0 {
		return "", false
	}
	return string(data[idx+1:]), true
}

func encodeTextChunk(keyword, text string) []byte {
	out := make([]byte, 0, len(keyword)+1+len(text))
	out = append(out, keyword...)
	out = append(out, 0)
	out = append(out, text...)
	return out
}
