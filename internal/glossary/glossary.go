// Package glossary keeps source-term to target-term mappings consistent
// across every chapter of a novel.
package glossary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Entry is one source → target mapping.
type Entry struct {
	Source string
	Target string
}

// Glossary is an insertion-ordered term mapping. A value is never modified in
// place: Merge returns a new Glossary, so a snapshot handed to a reader stays
// valid while a builder keeps accumulating.
type Glossary struct {
	order []string
	terms map[string]string
}

// FromEntries builds a glossary from entries; the first occurrence of a
// source term wins.
func FromEntries(entries []Entry) Glossary {
	g, _ := Glossary{}.Merge(entries)
	return g
}

// Len returns the number of terms.
func (g Glossary) Len() int { return len(g.order) }

// Lookup returns the target for source.
func (g Glossary) Lookup(source string) (string, bool) {
	v, ok := g.terms[source]
	return v, ok
}

// Entries returns all entries in insertion order.
func (g Glossary) Entries() []Entry {
	return g.Excerpt(len(g.order))
}

// Excerpt returns at most n entries, oldest first.
func (g Glossary) Excerpt(n int) []Entry {
	if n > len(g.order) {
		n = len(g.order)
	}
	if n <= 0 {
		return nil
	}
	out := make([]Entry, n)
	for i, k := range g.order[:n] {
		out[i] = Entry{Source: k, Target: g.terms[k]}
	}
	return out
}

// Map returns a copy of the mapping.
func (g Glossary) Map() map[string]string {
	m := make(map[string]string, len(g.terms))
	for k, v := range g.terms {
		m[k] = v
	}
	return m
}

// Merge returns a new glossary with entries added. A term that already exists,
// in g or earlier in entries, keeps its first value. Blank terms are skipped.
// The second return value counts terms actually added.
func (g Glossary) Merge(entries []Entry) (Glossary, int) {
	out := Glossary{
		order: make([]string, len(g.order), len(g.order)+len(entries)),
		terms: make(map[string]string, len(g.terms)+len(entries)),
	}
	copy(out.order, g.order)
	for k, v := range g.terms {
		out.terms[k] = v
	}
	added := 0
	for _, e := range entries {
		src := strings.TrimSpace(e.Source)
		dst := strings.TrimSpace(e.Target)
		if src == "" || dst == "" {
			continue
		}
		if _, exists := out.terms[src]; exists {
			continue
		}
		out.terms[src] = dst
		out.order = append(out.order, src)
		added++
	}
	return out, added
}

// MarshalJSON writes a flat {"source": "target"} object in insertion order.
func (g Glossary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range g.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(g.terms[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat object, keeping document order.
func (g *Glossary) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("glossary: invalid JSON")
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return fmt.Errorf("glossary: expected a JSON object")
	}
	*g = FromEntries(objectEntries(res))
	return nil
}

func objectEntries(obj gjson.Result) []Entry {
	var entries []Entry
	obj.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.String {
			entries = append(entries, Entry{Source: key.String(), Target: value.String()})
		}
		return true
	})
	return entries
}
