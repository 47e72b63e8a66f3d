package normalize

import (
	"encoding/json"
	"fmt"

	"cardex/internal/cards"
)

// msThreshold is the cutoff above which a numeric timestamp is treated as
// milliseconds and divided by 1000. Values at or below it are already seconds.
// The ambiguity around year-2286 seconds vs 1970 milliseconds is accepted;
// changing the threshold would silently alter round trips for existing cards.
const msThreshold = 10_000_000_000

// rawData mirrors the union of CCv2 and CCv3 data-object fields with lenient
// types: pointers distinguish absent/null from empty, json.RawMessage defers
// fields that need coercion.
type rawData struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Personality *string `json:"personality"`
	Scenario    *string `json:"scenario"`
	FirstMes    *string `json:"first_mes"`
	MesExample  *string `json:"mes_example"`

	Creator          *string `json:"creator"`
	CharacterVersion *string `json:"character_version"`
	CreatorNotes     *string `json:"creator_notes"`
	Nickname         *string `json:"nickname"`

	SystemPrompt            *string `json:"system_prompt"`
	PostHistoryInstructions *string `json:"post_history_instructions"`

	Tags               []string `json:"tags"`
	AlternateGreetings []string `json:"alternate_greetings"`
	GroupOnlyGreetings []string `json:"group_only_greetings"`

	CharacterBook json.RawMessage `json:"character_book"`

	Assets []rawAsset `json:"assets"`

	Extensions map[string]json.RawMessage `json:"extensions"`

	CreationDate     json.RawMessage `json:"creation_date"`
	ModificationDate json.RawMessage `json:"modification_date"`
}

type rawAsset struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
	Name string `json:"name"`
	Ext  string `json:"ext"`
}

// Card normalizes a parsed JSON payload into the canonical card. The returned
// warnings list the quirks that were repaired; only shape detection can fail.
func Card(raw json.RawMessage) (*cards.Card, cards.Warnings, error) {
	var warns cards.Warnings

	var root map[string]json.RawMessage
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, nil, fmt.Errorf("%w: payload is not a JSON object: %v", cards.ErrUnrecognizedCardShape, err)
	}

	_, data, err := detectShape(root)
	if err != nil {
		return nil, nil, err
	}

	specToken, specPresent := "", false
	if rawSpec, ok := root["spec"]; ok {
		specPresent = true
		_ = json.Unmarshal(rawSpec, &specToken)
	}
	spec := resolveSpec(specToken, specPresent, &warns)

	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("reassemble data object: %w", err)
	}
	var rd rawData
	if err := json.Unmarshal(dataBytes, &rd); err != nil {
		return nil, nil, fmt.Errorf("%w: data fields do not decode: %v", cards.ErrUnrecognizedCardShape, err)
	}

	card := &cards.Card{
		Spec:        spec,
		Name:        str(rd.Name),
		Description: str(rd.Description),
		Personality: str(rd.Personality),
		Scenario:    str(rd.Scenario),
		FirstMes:    str(rd.FirstMes),
		MesExample:  str(rd.MesExample),

		Creator:          str(rd.Creator),
		CharacterVersion: str(rd.CharacterVersion),
		CreatorNotes:     str(rd.CreatorNotes),
		Nickname:         str(rd.Nickname),

		SystemPrompt:            str(rd.SystemPrompt),
		PostHistoryInstructions: str(rd.PostHistoryInstructions),

		Tags:               rd.Tags,
		AlternateGreetings: rd.AlternateGreetings,
		GroupOnlyGreetings: rd.GroupOnlyGreetings,

		Extensions: normalizeExtensions(rd.Extensions),

		CreationDate:     coerceTimestamp(rd.CreationDate),
		ModificationDate: coerceTimestamp(rd.ModificationDate),
	}

	for _, a := range rd.Assets {
		card.Assets = append(card.Assets, cards.Asset{
			Type: coerceAssetType(a.Type, &warns),
			Name: a.Name,
			URI:  a.URI,
			Ext:  a.Ext,
		})
	}

	book, err := normalizeBook(rd.CharacterBook, &warns)
	if err != nil {
		return nil, nil, err
	}
	card.CharacterBook = book

	restoreDialectExtras(card)

	if spec == cards.SpecV3 {
		backfillV3(card)
	}

	return card, warns, nil
}

// backfillV3 fills the fields v3 declares required with empty defaults when
// the source omitted them. Values are never inferred from content.
func backfillV3(card *cards.Card) {
	if card.Tags == nil {
		card.Tags = []string{}
	}
	if card.GroupOnlyGreetings == nil {
		card.GroupOnlyGreetings = []string{}
	}
	if card.AlternateGreetings == nil {
		card.AlternateGreetings = []string{}
	}
}

// restoreDialectExtras lifts fields a previous cross-dialect export parked
// under the cardex_extras extension back into their canonical slots, then
// removes the marker key.
func restoreDialectExtras(card *cards.Card) {
	if card.Extensions == nil {
		return
	}
	raw, ok := card.Extensions[cards.ExtDialectExtras]
	if !ok {
		return
	}
	var extras struct {
		Nickname           *string    `json:"nickname"`
		GroupOnlyGreetings []string   `json:"group_only_greetings"`
		Assets             []rawAsset `json:"assets"`
	}
	if err := json.Unmarshal(raw, &extras); err != nil {
		return
	}
	if extras.Nickname != nil && card.Nickname == "" {
		card.Nickname = *extras.Nickname
	}
	if card.GroupOnlyGreetings == nil {
		card.GroupOnlyGreetings = extras.GroupOnlyGreetings
	}
	if card.Assets == nil {
		for _, a := range extras.Assets {
			card.Assets = append(card.Assets, cards.Asset{
				Type: cards.AssetType(a.Type), Name: a.Name, URI: a.URI, Ext: a.Ext,
			})
		}
	}
	delete(card.Extensions, cards.ExtDialectExtras)
}

func normalizeExtensions(m map[string]json.RawMessage) cards.Extensions {
	if m == nil {
		return cards.Extensions{}
	}
	return cards.Extensions(m)
}

// coerceTimestamp reads a numeric timestamp leniently and applies the
// milliseconds heuristic. Non-numeric or absent values become zero.
func coerceTimestamp(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		// Some exporters write timestamps as strings.
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		if _, err := fmt.Sscanf(s, "%f", &f); err != nil {
			return 0
		}
	}
	v := int64(f)
	if v > msThreshold {
		return v / 1000
	}
	return v
}

func coerceAssetType(t string, warns *cards.Warnings) cards.AssetType {
	switch cards.AssetType(t) {
	case cards.AssetIcon, cards.AssetEmotion, cards.AssetBackground, cards.AssetCustom, cards.AssetSound:
		return cards.AssetType(t)
	case "":
		return cards.AssetCustom
	default:
		warns.Add("asset_type_unknown", "unknown asset type %q, treating as custom", t)
		return cards.AssetCustom
	}
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
