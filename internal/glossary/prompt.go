package glossary

import (
	"fmt"
	"strings"

	"github.com/oukeidos/novtl/internal/novel"
)

// FormatEntries renders entries as "- source = target" lines.
func FormatEntries(entries []Entry) string {
	var sb strings.Builder
	for i, e := range entries {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "- %s = %s", e.Source, e.Target)
	}
	return sb.String()
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

// ExtractionPrompt asks the model for the names and terms of one batch.
// existing biases the model towards reusing earlier translations.
func ExtractionPrompt(chapters []novel.Chapter, existing []Entry, perChapter, total int) string {
	parts := make([]string, 0, len(chapters))
	for _, ch := range chapters {
		parts = append(parts, fmt.Sprintf("Chapter %d:\n%s", ch.Number, truncateRunes(ch.Content, perChapter)))
	}
	combined := truncateRunes(strings.Join(parts, "\n\n"), total)

	var sb strings.Builder
	sb.WriteString(`You are a professional translator for Chinese web novels.

Task: Analyze the following Chinese novel chapters and create a consistent English glossary for character names, place names, special terms, and cultivation/skill terms.

Instructions:
1. Extract all important names (characters, places, organizations)
2. Extract cultivation terms, skill names, and special terminology
3. Provide consistent English translations that sound natural
4. For names, use pinyin or appropriate English equivalents
5. Return ONLY a JSON object in this exact format:

{
  "characters": {"中文名": "English Name"},
  "places": {"中文地名": "English Place"},
  "terms": {"中文术语": "English Term"}
}
`)
	if len(existing) > 0 {
		sb.WriteString("\nThese terms are already translated. Reuse them exactly and do not translate them differently:\n")
		sb.WriteString(FormatEntries(existing))
		sb.WriteString("\n")
	}
	sb.WriteString("\nChinese chapters:\n")
	sb.WriteString(combined)
	sb.WriteString("\n\nJSON glossary:")
	return sb.String()
}
