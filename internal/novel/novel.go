// Package novel describes the scraped input of a run.
package novel

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Chapter is one source chapter.
type Chapter struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Novel is the input document: metadata plus chapters in reading order.
type Novel struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	Chapters    []Chapter `json:"chapters"`
}

// Load reads and validates a novel JSON file.
func Load(path string) (*Novel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read novel file: %w", err)
	}
	var n Novel
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to parse novel file: %w", err)
	}
	if err := n.Normalize(); err != nil {
		return nil, err
	}
	return &n, nil
}

// Normalize sorts chapters by number and rejects unusable input.
func (n *Novel) Normalize() error {
	n.ID = strings.TrimSpace(n.ID)
	if n.ID == "" {
		return fmt.Errorf("novel id is required")
	}
	if strings.ContainsAny(n.ID, `/\`) || n.ID == "." || n.ID == ".." {
		return fmt.Errorf("novel id %q must not contain path separators", n.ID)
	}
	if len(n.Chapters) == 0 {
		return fmt.Errorf("novel %s has no chapters", n.ID)
	}
	sort.SliceStable(n.Chapters, func(i, j int) bool {
		return n.Chapters[i].Number < n.Chapters[j].Number
	})
	seen := make(map[int]bool, len(n.Chapters))
	for i, ch := range n.Chapters {
		if ch.Number <= 0 {
			return fmt.Errorf("chapter at position %d has invalid number %d", i, ch.Number)
		}
		if seen[ch.Number] {
			return fmt.Errorf("duplicate chapter number %d", ch.Number)
		}
		seen[ch.Number] = true
	}
	return nil
}
