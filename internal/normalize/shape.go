package normalize

import (
	"encoding/json"
	"fmt"

	"cardex/internal/cards"
)

// shape is the structural variant of an incoming payload. Detection tries the
// variants in a fixed priority order; a single switch on the result drives the
// rest of normalization.
type shape int

const (
	shapeWrapped shape = iota
	shapeUnwrappedLegacy
	shapeHybridRoot
)

func (s shape) String() string {
	switch s {
	case shapeWrapped:
		return "wrapped"
	case shapeUnwrappedLegacy:
		return "unwrapped-legacy"
	case shapeHybridRoot:
		return "hybrid-root"
	}
	return "unknown"
}

// detectShape classifies the root object and returns the object that holds the
// card fields. For wrapped payloads that is the inner data object: root-level
// duplicates of data fields (the Wyvern export quirk) are discarded wholesale,
// never merged or diffed against the data copies.
func detectShape(root map[string]json.RawMessage) (shape, map[string]json.RawMessage, error) {
	if raw, ok := root["data"]; ok && isObject(raw) {
		var data map[string]json.RawMessage
		if err := json.Unmarshal(raw, &data); err != nil {
			return 0, nil, fmt.Errorf("%w: data wrapper is not an object: %v", cards.ErrUnrecognizedCardShape, err)
		}
		return shapeWrapped, data, nil
	}
	if _, ok := root["name"]; ok {
		return shapeUnwrappedLegacy, root, nil
	}
	if _, ok := root["spec"]; ok {
		// Spec marker at root with no wrapper: collect the siblings into a
		// synthesized data object.
		data := make(map[string]json.RawMessage, len(root))
		for k, v := range root {
			if k == "spec" || k == "spec_version" {
				continue
			}
			data[k] = v
		}
		return shapeHybridRoot, data, nil
	}
	return 0, nil, fmt.Errorf("%w: no data wrapper, name, or spec marker", cards.ErrUnrecognizedCardShape)
}

func isObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

// resolveSpec maps any recognized spec token to the canonical dialect.
// Unrecognized tokens degrade to v2 with a warning, never a hard failure.
// Payloads with no spec marker at all are legacy v2 exports.
func resolveSpec(token string, present bool, warns *cards.Warnings) cards.Spec {
	if !present {
		return cards.SpecV2
	}
	switch token {
	case cards.SpecIDV2, "chara_card_v2.0", "v2", "2.0", "2":
		return cards.SpecV2
	case cards.SpecIDV3, "chara_card_v3.0", "v3", "3.0", "3":
		return cards.SpecV3
	default:
		warns.Add("spec_unrecognized", "unrecognized spec %q, treating as v2", token)
		return cards.SpecV2
	}
}
