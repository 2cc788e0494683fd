package translator

import (
	"fmt"

	"github.com/oukeidos/novtl/internal/glossary"
)

func glossaryBlock(entries []glossary.Entry) string {
	if len(entries) == 0 {
		return ""
	}
	return "\nUse this glossary for consistent translations:\n" + glossary.FormatEntries(entries) + "\n"
}

// ChapterPrompt asks for a direct translation of one chapter.
func ChapterPrompt(content string, chapterNumber int, entries []glossary.Entry) string {
	return fmt.Sprintf(`You are a professional translator for Chinese web novels.

Task: Translate the following Chinese chapter to natural, fluent English.

Instructions:
1. Maintain narrative flow and readability
2. Use the provided glossary for consistency with previous chapters
3. Keep the same paragraph structure
4. Translate cultivation terms naturally
5. Remove ALL markdown formatting (**, ##, etc.) - plain text only
6. Do NOT include any notes, explanations, or meta-commentary
7. Output ONLY the translated chapter content
%s
Chapter %d content (Chinese):
%s

English translation:`, glossaryBlock(entries), chapterNumber, content)
}

// PolishPrompt frames already-English text as an editing job.
func PolishPrompt(text string, entries []glossary.Entry) string {
	return fmt.Sprintf(`You are a professional editor for web novels.

Task: Improve and polish the following English text while maintaining consistency with the glossary.

Instructions:
1. Fix any awkward phrasing or grammar
2. Use the glossary for character/place names
3. Keep the same paragraph structure
4. Make the text flow naturally
5. Do NOT add new content or events
6. Output ONLY the polished content
%s
Text to polish:
%s

Polished version:`, glossaryBlock(entries), text)
}

// DescriptionPrompt asks for a clean synopsis.
func DescriptionPrompt(description string) string {
	return fmt.Sprintf(`You are a professional translator specializing in Chinese web novels.

Task: Translate the following Chinese novel description to English.

Important instructions:
1. ONLY return the main story synopsis/description
2. Remove ALL markdown formatting (**, ##, bullets, etc.) - plain text only
3. Remove character profiles, tags, reading guides, author notes, upcoming novels
4. Remove "Latest Chapter:", "Update:", footers, advertisements
5. Remove translator notes, character descriptions, themes
6. Keep ONLY the core story plot description
7. Natural, engaging translation with proper paragraph breaks
8. No explanations, no comments - ONLY the synopsis text

Chinese text to translate:
%s

English translation:`, description)
}
