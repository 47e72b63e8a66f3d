package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"

	"cardex/internal/cards"
)

type rawBook struct {
	Name              *string         `json:"name"`
	Description       *string         `json:"description"`
	ScanDepth         *int            `json:"scan_depth"`
	TokenBudget       *int            `json:"token_budget"`
	RecursiveScanning bool            `json:"recursive_scanning"`
	Entries           []rawEntry      `json:"entries"`
	Extensions        json.RawMessage `json:"extensions"`
}

type rawEntry struct {
	Keys          []string `json:"keys"`
	SecondaryKeys []string `json:"secondary_keys"`
	Comment       *string  `json:"comment"`
	Content       *string  `json:"content"`

	Priority       int `json:"priority"`
	InsertionOrder int `json:"insertion_order"`

	Position       json.RawMessage `json:"position"`
	Probability    *int            `json:"probability"`
	Selective      bool            `json:"selective"`
	SelectiveLogic json.RawMessage `json:"selective_logic"`
	Constant       bool            `json:"constant"`
	CaseSensitive  bool            `json:"case_sensitive"`
	Depth          *int            `json:"depth"`
	Enabled        *bool           `json:"enabled"`

	Extensions json.RawMessage `json:"extensions"`
}

// normalizeBook converts a raw character_book value. Null is identical to
// absent. Entries keep their source ordinal positions; only field values are
// coerced, never entry order.
func normalizeBook(raw json.RawMessage, warns *cards.Warnings) (*cards.Book, error) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var rb rawBook
	if err := json.Unmarshal(raw, &rb); err != nil {
		return nil, fmt.Errorf("character_book does not decode: %w", err)
	}

	book := &cards.Book{
		Name:              str(rb.Name),
		Description:       str(rb.Description),
		ScanDepth:         rb.ScanDepth,
		TokenBudget:       rb.TokenBudget,
		RecursiveScanning: rb.RecursiveScanning,
		Extensions:        rawExtensions(rb.Extensions),
	}

	for i, re := range rb.Entries {
		keys := re.Keys
		if keys == nil {
			keys = []string{}
		}
		entry := cards.Entry{
			Keys:           keys,
			SecondaryKeys:  re.SecondaryKeys,
			Comment:        str(re.Comment),
			Content:        str(re.Content),
			Priority:       re.Priority,
			InsertionOrder: re.InsertionOrder,
			Position:       coercePosition(re.Position, i, warns),
			Probability:    re.Probability,
			Selective:      re.Selective,
			SelectiveLogic: coerceSelectiveLogic(re.SelectiveLogic, re.Selective, i, warns),
			Constant:       re.Constant,
			CaseSensitive:  re.CaseSensitive,
			Depth:          re.Depth,
			Enabled:        enabledDefault(re.Enabled),
			Extensions:     rawExtensions(re.Extensions),
		}
		book.Entries = append(book.Entries, entry)
	}
	return book, nil
}

// coercePosition accepts the canonical string enum plus the legacy numeric
// encoding: 0 is before_char, any integer >= 1 is after_char. Anything else
// defaults to after_char with a warning.
func coercePosition(raw json.RawMessage, index int, warns *cards.Warnings) cards.Position {
	if len(raw) == 0 {
		return cards.PositionAfterChar
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch cards.Position(s) {
		case cards.PositionBeforeChar, cards.PositionAfterChar:
			return cards.Position(s)
		}
		warns.Add("position_unknown", "entry %d: unknown position %q, defaulting to after_char", index, s)
		return cards.PositionAfterChar
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == 0 {
			return cards.PositionBeforeChar
		}
		if n >= 1 {
			return cards.PositionAfterChar
		}
		warns.Add("position_unknown", "entry %d: negative position %d, defaulting to after_char", index, n)
		return cards.PositionAfterChar
	}
	warns.Add("position_unknown", "entry %d: unreadable position, defaulting to after_char", index)
	return cards.PositionAfterChar
}

// coerceSelectiveLogic accepts AND/NOT strings and the numeric encoding used
// by older frontends (0 = AND, 1 = NOT). Only meaningful when selective.
func coerceSelectiveLogic(raw json.RawMessage, selective bool, index int, warns *cards.Warnings) cards.SelectiveLogic {
	if len(raw) == 0 {
		return cards.LogicAnd
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch cards.SelectiveLogic(s) {
		case cards.LogicAnd, cards.LogicNot:
			return cards.SelectiveLogic(s)
		}
		if selective {
			warns.Add("selective_logic_unknown", "entry %d: unknown selective_logic %q, defaulting to AND", index, s)
		}
		return cards.LogicAnd
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil && n == 1 {
		return cards.LogicNot
	}
	return cards.LogicAnd
}

func enabledDefault(p *bool) bool {
	if p == nil {
		return true
	}
	return *p
}

// rawExtensions treats a null or absent extension bag as empty.
func rawExtensions(raw json.RawMessage) cards.Extensions {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return cards.Extensions{}
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return cards.Extensions{}
	}
	return cards.Extensions(m)
}
