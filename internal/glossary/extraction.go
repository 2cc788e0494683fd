package glossary

import (
	"strings"

	"github.com/oukeidos/novtl/internal/apperrors"
	"github.com/tidwall/gjson"
)

// Categories in the order they are merged.
var Categories = []string{"characters", "places", "terms"}

// Extraction is the parsed model output for one batch.
type Extraction struct {
	Characters []Entry
	Places     []Entry
	Terms      []Entry
}

// Entries flattens the extraction: characters, then places, then terms.
func (e Extraction) Entries() []Entry {
	out := make([]Entry, 0, len(e.Characters)+len(e.Places)+len(e.Terms))
	out = append(out, e.Characters...)
	out = append(out, e.Places...)
	return append(out, e.Terms...)
}

// Len returns the total number of entries.
func (e Extraction) Len() int {
	return len(e.Characters) + len(e.Places) + len(e.Terms)
}

// ParseExtraction parses a model response of the form
// {"characters":{...},"places":{...},"terms":{...}}, tolerating a fenced code
// block around it. Unusable output is a validation error so that the caller
// retries.
func ParseExtraction(text string) (Extraction, error) {
	payload := StripCodeFence(text)
	if payload == "" {
		return Extraction{}, apperrors.New(apperrors.KindValidation, "Glossary response was empty.", nil)
	}
	if !gjson.Valid(payload) {
		return Extraction{}, apperrors.New(apperrors.KindValidation, "Glossary response was not valid JSON.", nil)
	}
	root := gjson.Parse(payload)
	if !root.IsObject() {
		return Extraction{}, apperrors.New(apperrors.KindValidation, "Glossary response was not a JSON object.", nil)
	}
	found := false
	var ex Extraction
	for _, cat := range Categories {
		group := root.Get(cat)
		if !group.Exists() {
			continue
		}
		found = true
		if !group.IsObject() {
			continue
		}
		entries := objectEntries(group)
		switch cat {
		case "characters":
			ex.Characters = entries
		case "places":
			ex.Places = entries
		case "terms":
			ex.Terms = entries
		}
	}
	if !found {
		return Extraction{}, apperrors.New(apperrors.KindValidation, "Glossary response had none of the expected categories.", nil)
	}
	return ex, nil
}

// StripCodeFence returns the contents of the first ``` fenced block in text,
// or the trimmed text when there is none.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "```")
	if start < 0 {
		return text
	}
	rest := text[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Drop the info string such as "json".
		if info := strings.TrimSpace(rest[:nl]); !strings.ContainsAny(info, "{[") {
			rest = rest[nl+1:]
		}
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}
