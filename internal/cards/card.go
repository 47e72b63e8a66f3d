package cards

// Spec identifies which dialect capability set is active on a Card. It
// determines which fields are meaningful or required when serializing.
type Spec string

const (
	SpecV2 Spec = "v2"
	SpecV3 Spec = "v3"
)

// Wire-level spec identifiers used by the wrapped JSON shapes.
const (
	SpecIDV2      = "chara_card_v2"
	SpecIDV3      = "chara_card_v3"
	SpecVersionV2 = "2.0"
	SpecVersionV3 = "3.0"
)

// Card is the canonical representation shared by every importer and exporter.
// Core string fields are always present (empty string when the source omitted
// them, never null). Slices keep source order; normalization only appends
// defaults when a field is wholly absent.
type Card struct {
	Spec Spec

	Name        string
	Description string
	Personality string
	Scenario    string
	FirstMes    string
	MesExample  string

	Creator          string
	CharacterVersion string
	CreatorNotes     string
	Nickname         string

	SystemPrompt            string
	PostHistoryInstructions string

	Tags               []string
	AlternateGreetings []string
	// GroupOnlyGreetings is a v3 concept; defaulted to an empty slice when the
	// source is v3 and the field is absent.
	GroupOnlyGreetings []string

	CharacterBook *Book

	// Assets is the v3 asset descriptor list; empty for v2 cards.
	Assets []Asset

	Extensions Extensions

	// CreationDate and ModificationDate are Unix seconds; zero means unset.
	CreationDate     int64
	ModificationDate int64
}

// Position names where a lorebook entry is inserted relative to the character
// definition.
type Position string

const (
	PositionBeforeChar Position = "before_char"
	PositionAfterChar  Position = "after_char"
)

// SelectiveLogic controls how secondary keys gate a selective entry.
type SelectiveLogic string

const (
	LogicAnd SelectiveLogic = "AND"
	LogicNot SelectiveLogic = "NOT"
)

// Book is the lorebook attached to a card. Entries keep their source ordinal
// position through the whole pipeline.
type Book struct {
	Name              string
	Description       string
	ScanDepth         *int
	TokenBudget       *int
	RecursiveScanning bool
	Entries           []Entry
	Extensions        Extensions
}

// Entry is a single keyword-triggered lorebook snippet.
type Entry struct {
	Keys          []string
	SecondaryKeys []string
	Comment       string
	Content       string

	// Priority orders insertion (higher first); ties break by InsertionOrder
	// ascending.
	Priority       int
	InsertionOrder int

	Position    Position
	Probability *int

	Selective      bool
	SelectiveLogic SelectiveLogic

	Constant      bool
	CaseSensitive bool
	Enabled       bool

	// Depth overrides the book-level scan depth for this entry.
	Depth *int

	Extensions Extensions
}

// AssetType classifies an asset descriptor.
type AssetType string

const (
	AssetIcon       AssetType = "icon"
	AssetEmotion    AssetType = "emotion"
	AssetBackground AssetType = "background"
	AssetCustom     AssetType = "custom"
	AssetSound      AssetType = "sound"
)

// Asset is a v3 asset descriptor. URI uses one of the recognized schemes
// (embeded://, ccdefault:, https://, data:, __asset:N, asset:N); unrecognized
// schemes pass through unchanged.
type Asset struct {
	Type AssetType
	Name string
	URI  string
	Ext  string
}

// MainIconIndex returns the position in Assets of the card's main avatar:
// the first icon named "main", falling back to the first icon of any name.
// Returns -1 when the card has no icon.
func (c *Card) MainIconIndex() int {
	fallback := -1
	for i, a := range c.Assets {
		if a.Type != AssetIcon {
			continue
		}
		if a.Name == "main" {
			return i
		}
		if fallback == -1 {
			fallback = i
		}
	}
	return fallback
}

// MainIcon returns the asset that serves as the card's main avatar.
func (c *Card) MainIcon() (Asset, bool) {
	i := c.MainIconIndex()
	if i < 0 {
		return Asset{}, false
	}
	return c.Assets[i], true
}
