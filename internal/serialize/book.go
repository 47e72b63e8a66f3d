package serialize

import "cardex/internal/cards"

type wireBook struct {
	Name              string           `json:"name,omitzero"`
	Description       string           `json:"description,omitzero"`
	ScanDepth         *int             `json:"scan_depth,omitempty"`
	TokenBudget       *int             `json:"token_budget,omitempty"`
	RecursiveScanning bool             `json:"recursive_scanning"`
	Entries           []wireEntry      `json:"entries"`
	Extensions        cards.Extensions `json:"extensions"`
}

type wireEntry struct {
	Keys          []string `json:"keys"`
	SecondaryKeys []string `json:"secondary_keys,omitzero"`
	Comment       string   `json:"comment,omitzero"`
	Content       string   `json:"content"`

	Priority       int `json:"priority"`
	InsertionOrder int `json:"insertion_order"`

	Position       string `json:"position"`
	Probability    *int   `json:"probability,omitempty"`
	Selective      bool   `json:"selective"`
	SelectiveLogic string `json:"selective_logic,omitzero"`
	Constant       bool   `json:"constant"`
	CaseSensitive  bool   `json:"case_sensitive"`
	Depth          *int   `json:"depth,omitempty"`
	Enabled        bool   `json:"enabled"`

	Extensions cards.Extensions `json:"extensions"`
}

// bookWire emits the lorebook in canonical form. Entry order is preserved
// exactly; the entries slice is always present (possibly empty) because both
// dialects declare it required on the book object.
func bookWire(book *cards.Book) *wireBook {
	if book == nil {
		return nil
	}
	wb := &wireBook{
		Name:              book.Name,
		Description:       book.Description,
		ScanDepth:         book.ScanDepth,
		TokenBudget:       book.TokenBudget,
		RecursiveScanning: book.RecursiveScanning,
		Entries:           make([]wireEntry, 0, len(book.Entries)),
		Extensions:        nonNil(book.Extensions),
	}
	for _, e := range book.Entries {
		logic := ""
		if e.Selective {
			logic = string(e.SelectiveLogic)
		}
		wb.Entries = append(wb.Entries, wireEntry{
			Keys:           emptyIfNil(e.Keys),
			SecondaryKeys:  e.SecondaryKeys,
			Comment:        e.Comment,
			Content:        e.Content,
			Priority:       e.Priority,
			InsertionOrder: e.InsertionOrder,
			Position:       string(e.Position),
			Probability:    e.Probability,
			Selective:      e.Selective,
			SelectiveLogic: logic,
			Constant:       e.Constant,
			CaseSensitive:  e.CaseSensitive,
			Depth:          e.Depth,
			Enabled:        e.Enabled,
			Extensions:     nonNil(e.Extensions),
		})
	}
	return wb
}
