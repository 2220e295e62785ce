package program

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Locales is the set of languages a program is stored in.
type Locales []Language

// DefaultLocales is the locale set used when none is configured.
var DefaultLocales = Locales{"fr", "en", "pt", "es", "ar"}

// NewLocales builds a locale set from configuration. BaseLanguage is always included.
func NewLocales(codes []string) Locales {
	out := Locales{BaseLanguage}
	seen := map[Language]bool{BaseLanguage: true}
	for _, c := range codes {
		l := Language(c)
		if c == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

// Supports reports whether lang is in the set.
func (ls Locales) Supports(lang Language) bool {
	for _, l := range ls {
		if l == lang {
			return true
		}
	}
	return false
}

// Parse returns the language named by s, or BaseLanguage when s is not in the set.
func (ls Locales) Parse(s string) Language {
	if l := Language(s); ls.Supports(l) {
		return l
	}
	return BaseLanguage
}

// Format identifies which stored shape a program was decoded from.
type Format int

const (
	FormatCurrent Format = iota
	FormatLegacy
)

func (f Format) String() string {
	if f == FormatLegacy {
		return "legacy"
	}
	return "current"
}

// ConvertLegacy lifts legacy items into the multilingual shape by copying each string
// into every locale. Input order, ids and times are kept. It must only be applied to
// legacy data: running it on converted items would erase per-locale differences.
func (ls Locales) ConvertLegacy(items []LegacyItem) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		out = append(out, Item{
			ID:          it.ID,
			Time:        it.Time,
			Title:       ls.uniform(it.Title),
			Description: ls.optional(it.Description),
			Speaker:     ls.optional(it.Speaker),
			Location:    ls.optional(it.Location),
		})
	}
	return out
}

func (ls Locales) uniform(s string) LocalizedText {
	t := make(LocalizedText, len(ls))
	for _, l := range ls {
		t[l] = s
	}
	return t
}

func (ls Locales) optional(s string) LocalizedText {
	if s == "" {
		return nil
	}
	return ls.uniform(s)
}

// DecodeItems decodes a JSON array of program items in either shape. The shape is decided
// by the first item: a string title means legacy, anything else means current.
func (ls Locales) DecodeItems(raw json.RawMessage) ([]Item, Format, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []Item{}, FormatCurrent, nil
	}
	var head []struct {
		Title json.RawMessage `json:"title"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, FormatCurrent, fmt.Errorf("decode program items: %w", err)
	}
	if len(head) == 0 {
		return []Item{}, FormatCurrent, nil
	}

	title := bytes.TrimSpace(head[0].Title)
	if len(title) > 0 && title[0] == '"' {
		var legacy []LegacyItem
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return nil, FormatLegacy, fmt.Errorf("decode legacy program items: %w", err)
		}
		return ls.ConvertLegacy(legacy), FormatLegacy, nil
	}

	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, FormatCurrent, fmt.Errorf("decode program items: %w", err)
	}
	return items, FormatCurrent, nil
}

// Decode parses a stored program blob. It is the only place that tells the legacy and
// current shapes apart. A blob with hasProgram=false decodes to no items.
func (ls Locales) Decode(raw []byte) (Data, Format, error) {
	var env struct {
		HasProgram   bool            `json:"hasProgram"`
		ProgramItems json.RawMessage `json:"programItems"`
		UpdatedAt    string          `json:"updatedAt"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return Data{}, FormatCurrent, fmt.Errorf("decode program: %w", err)
	}
	items, format, err := ls.DecodeItems(env.ProgramItems)
	if err != nil {
		return Data{}, format, err
	}
	if !env.HasProgram {
		items = []Item{}
	}
	return Data{HasProgram: env.HasProgram, ProgramItems: items, UpdatedAt: env.UpdatedAt}, format, nil
}

// DetectAndNormalize reads a stored blob for display. Missing and unreadable blobs both
// become Empty(); this function never fails.
func (ls Locales) DetectAndNormalize(raw []byte) Data {
	data, _, _ := ls.normalize(raw)
	return data
}

// normalize is DetectAndNormalize that also reports the decoded format and the decode
// error it absorbed, for callers that log them.
func (ls Locales) normalize(raw []byte) (Data, Format, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Empty(), FormatCurrent, nil
	}
	data, format, err := ls.Decode(raw)
	if err != nil {
		return Empty(), format, err
	}
	return data, format, nil
}
