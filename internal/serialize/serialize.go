package serialize

import (
	"encoding/json"
	"fmt"

	"cardex/internal/cards"
)

// envelope is the wrapped on-disk shape shared by both dialects.
type envelope struct {
	Spec        string          `json:"spec"`
	SpecVersion string          `json:"spec_version"`
	Data        json.RawMessage `json:"data"`
}

// dataV2 is the CCv2 data object. Slices use omitzero so a field that was
// absent on import (nil) stays absent, while a present-but-empty array is
// still emitted.
type dataV2 struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Personality string `json:"personality"`
	Scenario    string `json:"scenario"`
	FirstMes    string `json:"first_mes"`
	MesExample  string `json:"mes_example"`

	CreatorNotes            string `json:"creator_notes,omitzero"`
	SystemPrompt            string `json:"system_prompt,omitzero"`
	PostHistoryInstructions string `json:"post_history_instructions,omitzero"`

	AlternateGreetings []string `json:"alternate_greetings,omitzero"`
	Tags               []string `json:"tags,omitzero"`

	Creator          string `json:"creator,omitzero"`
	CharacterVersion string `json:"character_version,omitzero"`

	CharacterBook *wireBook `json:"character_book,omitempty"`

	Extensions cards.Extensions `json:"extensions"`
}

// dataV3 always carries the fields v3 declares required, defaulted when empty.
type dataV3 struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Personality string `json:"personality"`
	Scenario    string `json:"scenario"`
	FirstMes    string `json:"first_mes"`
	MesExample  string `json:"mes_example"`

	CreatorNotes            string `json:"creator_notes"`
	SystemPrompt            string `json:"system_prompt"`
	PostHistoryInstructions string `json:"post_history_instructions"`

	AlternateGreetings []string `json:"alternate_greetings"`
	Tags               []string `json:"tags"`
	GroupOnlyGreetings []string `json:"group_only_greetings"`

	Creator          string `json:"creator"`
	CharacterVersion string `json:"character_version"`
	Nickname         string `json:"nickname,omitzero"`

	CharacterBook *wireBook `json:"character_book,omitempty"`

	Assets []wireAsset `json:"assets,omitzero"`

	CreationDate     int64 `json:"creation_date,omitzero"`
	ModificationDate int64 `json:"modification_date,omitzero"`

	Extensions cards.Extensions `json:"extensions"`
}

type wireAsset struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
	Name string `json:"name"`
	Ext  string `json:"ext"`
}

// Card serializes a canonical card into the wrapped JSON shape of the target
// dialect.
func Card(card *cards.Card, target cards.Spec) (json.RawMessage, error) {
	switch target {
	case cards.SpecV2:
		return v2(card)
	case cards.SpecV3:
		return v3(card)
	default:
		return nil, fmt.Errorf("unsupported target spec %q", target)
	}
}

func v2(card *cards.Card) (json.RawMessage, error) {
	data := dataV2{
		Name:        card.Name,
		Description: card.Description,
		Personality: card.Personality,
		Scenario:    card.Scenario,
		FirstMes:    card.FirstMes,
		MesExample:  card.MesExample,

		CreatorNotes:            card.CreatorNotes,
		SystemPrompt:            card.SystemPrompt,
		PostHistoryInstructions: card.PostHistoryInstructions,

		AlternateGreetings: card.AlternateGreetings,
		Tags:               card.Tags,

		Creator:          card.Creator,
		CharacterVersion: card.CharacterVersion,

		CharacterBook: bookWire(card.CharacterBook),
		Extensions:    extensionsWithExtras(card),
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal v2 data: %w", err)
	}
	return json.Marshal(envelope{Spec: cards.SpecIDV2, SpecVersion: cards.SpecVersionV2, Data: raw})
}

func v3(card *cards.Card) (json.RawMessage, error) {
	data := dataV3{
		Name:        card.Name,
		Description: card.Description,
		Personality: card.Personality,
		Scenario:    card.Scenario,
		FirstMes:    card.FirstMes,
		MesExample:  card.MesExample,

		CreatorNotes:            card.CreatorNotes,
		SystemPrompt:            card.SystemPrompt,
		PostHistoryInstructions: card.PostHistoryInstructions,

		AlternateGreetings: emptyIfNil(card.AlternateGreetings),
		Tags:               emptyIfNil(card.Tags),
		GroupOnlyGreetings: emptyIfNil(card.GroupOnlyGreetings),

		Creator:          card.Creator,
		CharacterVersion: card.CharacterVersion,
		Nickname:         card.Nickname,

		CharacterBook: bookWire(card.CharacterBook),

		CreationDate:     card.CreationDate,
		ModificationDate: card.ModificationDate,

		Extensions: nonNil(card.Extensions),
	}
	for _, a := range card.Assets {
		data.Assets = append(data.Assets, wireAsset{
			Type: string(a.Type), URI: a.URI, Name: a.Name, Ext: a.Ext,
		})
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal v3 data: %w", err)
	}
	return json.Marshal(envelope{Spec: cards.SpecIDV3, SpecVersion: cards.SpecVersionV3, Data: raw})
}

// extensionsWithExtras builds the v2 extension bag, parking v3-only fields
// under the extras sub-key so a later re-import can restore them. The card
// itself is never mutated.
func extensionsWithExtras(card *cards.Card) cards.Extensions {
	ext := nonNil(card.Extensions).Clone()
	extras := map[string]any{}
	if card.Nickname != "" {
		extras["nickname"] = card.Nickname
	}
	if card.GroupOnlyGreetings != nil {
		extras["group_only_greetings"] = card.GroupOnlyGreetings
	}
	if len(card.Assets) > 0 {
		wire := make([]wireAsset, 0, len(card.Assets))
		for _, a := range card.Assets {
			wire = append(wire, wireAsset{Type: string(a.Type), URI: a.URI, Name: a.Name, Ext: a.Ext})
		}
		extras["assets"] = wire
	}
	if len(extras) > 0 {
		_ = ext.Set(cards.ExtDialectExtras, extras)
	}
	return ext
}

func nonNil(e cards.Extensions) cards.Extensions {
	if e == nil {
		return cards.Extensions{}
	}
	return e
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
