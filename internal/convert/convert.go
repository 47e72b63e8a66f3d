package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"cardex/internal/assets"
	"cardex/internal/cards"
	"cardex/internal/charx"
	"cardex/internal/detect"
	"cardex/internal/normalize"
	"cardex/internal/pngcard"
	"cardex/internal/serialize"
	"cardex/internal/voxta"
)

// Format names an export target.
type Format string

const (
	FormatJSONV2 Format = "json-v2"
	FormatJSONV3 Format = "json-v3"
	FormatPNGV2  Format = "png-v2"
	FormatPNGV3  Format = "png-v3"
	FormatCHARX  Format = "charx"
	FormatVoxta  Format = "voxta"
)

// Formats lists every export target in display order.
var Formats = []Format{FormatJSONV2, FormatJSONV3, FormatPNGV2, FormatPNGV3, FormatCHARX, FormatVoxta}

// ParseFormat resolves a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (expected one of %v)", s, Formats)
}

// Spec returns the dialect a format serializes.
func (f Format) Spec() cards.Spec {
	switch f {
	case FormatJSONV2, FormatPNGV2:
		return cards.SpecV2
	default:
		return cards.SpecV3
	}
}

// Result is a completed import.
type Result struct {
	Card     *cards.Card
	Blobs    []assets.Blob
	Warnings cards.Warnings

	// Source is the detected input container kind.
	Source detect.Kind
	// Container distinguishes the ZIP layouts; empty for non-ZIP sources.
	Container detect.Container

	// PNG holds the original image bytes when the source was a PNG, so a
	// later PNG export can reuse the pixels.
	PNG []byte
}

// Import detects the container format of buf and normalizes its card. A
// fresh canonical card is constructed on every call.
func Import(buf []byte) (*Result, error) {
	sniffed := detect.Sniff(buf)
	switch sniffed.Kind {
	case detect.KindPNG:
		payload, err := pngcard.Read(buf)
		if err != nil {
			return nil, err
		}
		card, warns, err := normalize.Card(payload)
		if err != nil {
			return nil, err
		}
		return &Result{Card: card, Warnings: warns, Source: detect.KindPNG, PNG: buf}, nil

	case detect.KindZIP:
		zr, err := detect.OpenZIP(buf)
		if err != nil {
			return nil, err
		}
		container, err := detect.ClassifyArchive(zr)
		if err != nil {
			return nil, err
		}
		if container == detect.ContainerCHARX {
			archive, warns, err := charx.Read(buf)
			if err != nil {
				return nil, err
			}
			return &Result{
				Card: archive.Card, Blobs: archive.Blobs, Warnings: warns,
				Source: detect.KindZIP, Container: detect.ContainerCHARX,
			}, nil
		}
		pkg, warns, err := voxta.Read(buf)
		if err != nil {
			return nil, err
		}
		return &Result{
			Card: pkg.Card, Blobs: pkg.Blobs, Warnings: warns,
			Source: detect.KindZIP, Container: detect.ContainerVoxta,
		}, nil

	case detect.KindJSON:
		card, warns, err := normalize.Card(sniffed.JSON)
		if err != nil {
			return nil, err
		}
		return &Result{Card: card, Warnings: warns, Source: detect.KindJSON}, nil

	default:
		return nil, fmt.Errorf("%w: buffer is neither PNG, ZIP, nor JSON", cards.ErrUnrecognizedCardShape)
	}
}

// ExportOptions carries the optional collaborators an export may need.
type ExportOptions struct {
	// BaseImage supplies PNG pixels for PNG targets. When nil, the main icon
	// blob is used if it is a PNG.
	BaseImage []byte

	// Fetcher resolves remote asset URIs for container targets. Nil keeps
	// remote assets as reference-only entries.
	Fetcher assets.Fetcher
}

// Export serializes the canonical card into the target format.
func Export(ctx context.Context, card *cards.Card, blobs []assets.Blob, format Format, opts ExportOptions) ([]byte, cards.Warnings, error) {
	switch format {
	case FormatJSONV2, FormatJSONV3:
		raw, err := serialize.Card(card, format.Spec())
		if err != nil {
			return nil, nil, err
		}
		var indented bytes.Buffer
		if err := json.Indent(&indented, raw, "", "  "); err != nil {
			return nil, nil, fmt.Errorf("indent output: %w", err)
		}
		return indented.Bytes(), nil, nil

	case FormatPNGV2, FormatPNGV3:
		base := opts.BaseImage
		if base == nil {
			base = mainIconPNG(card, blobs)
		}
		if base == nil {
			return nil, nil, fmt.Errorf("png export: no base image available")
		}
		raw, err := serialize.Card(card, format.Spec())
		if err != nil {
			return nil, nil, err
		}
		out, err := pngcard.Write(base, raw)
		return out, nil, err

	case FormatCHARX:
		return charx.Build(ctx, card, blobs, opts.Fetcher)

	case FormatVoxta:
		return voxta.Build(ctx, card, blobs, opts.Fetcher)

	default:
		return nil, nil, fmt.Errorf("unknown format %q", format)
	}
}

// mainIconPNG returns the main icon's bytes when they form a valid PNG.
func mainIconPNG(card *cards.Card, blobs []assets.Blob) []byte {
	icon, ok := card.MainIcon()
	if !ok {
		return nil
	}
	for _, b := range blobs {
		if b.Data == nil {
			continue
		}
		if (icon.URI != "" && b.Asset.URI == icon.URI) ||
			(b.Asset.Type == icon.Type && b.Asset.Name == icon.Name) {
			if detect.Sniff(b.Data).Kind == detect.KindPNG {
				return b.Data
			}
		}
	}
	return nil
}
