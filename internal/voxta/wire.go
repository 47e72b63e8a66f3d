package voxta

import (
	"encoding/json"
	"regexp"
	"strings"
)

// mappedKeys are the character.json fields that translate to canonical core
// fields. Everything else in the document is Voxta-specific and rides in the
// extensions.voxta sub-object verbatim.
var mappedKeys = map[string]bool{
	"name":               true,
	"personality":        true,
	"profile":            true,
	"scenario":           true,
	"firstMessage":       true,
	"alternateGreetings": true,
	"messageExamples":    true,
	"creator":            true,
	"creatorNotes":       true,
	"tags":               true,
	"version":            true,
}

// character is the subset of a Voxta character.json the mapping understands.
type character struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Personality        string   `json:"personality,omitzero"`
	Profile            string   `json:"profile,omitzero"`
	Scenario           string   `json:"scenario,omitzero"`
	FirstMessage       string   `json:"firstMessage,omitzero"`
	AlternateGreetings []string `json:"alternateGreetings,omitzero"`
	MessageExamples    string   `json:"messageExamples,omitzero"`
	Creator            string   `json:"creator,omitzero"`
	CreatorNotes       string   `json:"creatorNotes,omitzero"`
	Tags               []string `json:"tags,omitzero"`
	Version            string   `json:"version,omitzero"`
}

var macroPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// compactMacros rewrites template macros to the compact form: {{ user }} and
// {{user}} are the same macro and are always emitted without padding.
func compactMacros(s string) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	return macroPattern.ReplaceAllString(s, "{{$1}}")
}

// compactMacrosAll maps compactMacros over a string list, returning nil for
// an empty input so omitzero keeps the field out of the document.
func compactMacrosAll(ss []string) []string {
	if len(ss) == 0 {
		return nil
	}
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = compactMacros(s)
	}
	return out
}

// splitDocument separates a raw character.json into the mapped struct and the
// passthrough remainder keyed for extensions.voxta.
func splitDocument(raw []byte) (character, map[string]json.RawMessage, error) {
	var ch character
	if err := json.Unmarshal(raw, &ch); err != nil {
		return character{}, nil, err
	}
	var full map[string]json.RawMessage
	if err := json.Unmarshal(raw, &full); err != nil {
		return character{}, nil, err
	}
	rest := make(map[string]json.RawMessage, len(full))
	for k, v := range full {
		if !mappedKeys[k] {
			rest[k] = v
		}
	}
	return ch, rest, nil
}

// mergeDocument rebuilds a character.json from the mapped struct plus the
// passthrough remainder. Mapped fields always win over stale copies in the
// remainder.
func mergeDocument(ch character, rest map[string]json.RawMessage) ([]byte, error) {
	base, err := json.Marshal(ch)
	if err != nil {
		return nil, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(base, &doc); err != nil {
		return nil, err
	}
	for k, v := range rest {
		if _, mapped := doc[k]; !mapped {
			doc[k] = v
		}
	}
	return json.MarshalIndent(doc, "", "  ")
}
