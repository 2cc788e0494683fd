// Package chunker partitions input for size-limited calls: chapters into
// fixed-size batches and long text into paragraph-aligned pieces.
package chunker

import (
	"strings"

	"github.com/rivo/uniseg"
)

// ParagraphSeparator separates paragraphs in chapter text.
const ParagraphSeparator = "\n\n"

// DefaultMaxLength keeps a chunk under the 5000 character limit of the free
// translation endpoint.
const DefaultMaxLength = 4500

// Batch is a contiguous run of items together with its position.
type Batch[T any] struct {
	Index int
	// Start is the offset of Items[0] in the original slice.
	Start int
	Items []T
}

// SplitIntoBatches splits items into contiguous batches of size, keeping order.
// The last batch may be shorter.
func SplitIntoBatches[T any](items []T, size int) []Batch[T] {
	if size <= 0 {
		size = 1
	}
	var batches []Batch[T]
	n := len(items)
	for i := 0; i < n; i += size {
		end := i + size
		if end > n {
			end = n
		}
		batches = append(batches, Batch[T]{
			Index: len(batches),
			Start: i,
			Items: items[i:end],
		})
	}
	return batches
}

// Length is the user-perceived length of s in grapheme clusters.
func Length(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// SplitParagraphs groups the paragraphs of text into chunks whose length stays
// under maxLength. A paragraph is never split: one longer than maxLength
// becomes a chunk on its own. Joining the result with ParagraphSeparator
// yields text again.
func SplitParagraphs(text string, maxLength int) []string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if Length(text) <= maxLength {
		return []string{text}
	}

	paragraphs := strings.Split(text, ParagraphSeparator)
	sepLen := Length(ParagraphSeparator)

	var chunks []string
	var current []string
	currentLen := 0
	for _, para := range paragraphs {
		paraLen := Length(para)
		added := paraLen
		if len(current) > 0 {
			added += sepLen
		}
		if currentLen+added > maxLength && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, ParagraphSeparator))
			current = nil
			currentLen = 0
			added = paraLen
		}
		current = append(current, para)
		currentLen += added
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, ParagraphSeparator))
	}
	return chunks
}

// JoinParagraphs is the inverse of SplitParagraphs.
func JoinParagraphs(chunks []string) string {
	return strings.Join(chunks, ParagraphSeparator)
}
