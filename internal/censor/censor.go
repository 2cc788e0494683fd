// Package censor softens vocabulary that tends to trip upstream content
// filters. It is a fixed lexical substitution with no I/O.
package censor

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultTable maps a flagged word to its euphemism.
var DefaultTable = map[string]string{
	"dick":        "member",
	"cock":        "member",
	"penis":       "member",
	"pussy":       "flower",
	"vagina":      "flower",
	"ass":         "behind",
	"asshole":     "behind",
	"anal":        "intimate",
	"sex":         "intimacy",
	"sexy":        "attractive",
	"sexual":      "intimate",
	"fuck":        "embrace",
	"fucking":     "embracing",
	"fucked":      "embraced",
	"cum":         "finish",
	"cumming":     "finishing",
	"orgasm":      "peak",
	"aroused":     "excited",
	"erection":    "reaction",
	"hard-on":     "reaction",
	"masturbate":  "touch",
	"penetrate":   "enter",
	"penetration": "entry",
	"thrust":      "move",
	"thrusting":   "moving",
	"moan":        "sound",
	"moaning":     "sounding",
	"groan":       "sound",
	"groaning":    "sounding",
	"lust":        "desire",
	"lustful":     "desirous",
	"seduce":      "attract",
	"seduction":   "attraction",
	"naked":       "unclothed",
	"nude":        "bare",
	"breast":      "chest",
	"nipple":      "tip",
	"kiss":        "touch",
	"kissing":     "touching",
	"lick":        "taste",
	"licking":     "tasting",
	"suck":        "draw",
	"sucking":     "drawing",
	"blood":       "energy",
	"bloody":      "intense",
	"corpse":      "body",
	"tortured":    "pressured",
	"pain":        "discomfort",
	"painful":     "difficult",
	"weapon":      "tool",
	"sword":       "blade",
	"knife":       "blade",
	"attack":      "strike",
	"attacked":    "struck",
	"violent":     "intense",
	"violence":    "intensity",
}

// Filter replaces whole-word, case-insensitive matches of its table.
type Filter struct {
	table map[string]string
	re    *regexp.Regexp
}

// New compiles a filter for table. Keys are matched case-insensitively.
func New(table map[string]string) *Filter {
	lowered := make(map[string]string, len(table))
	words := make([]string, 0, len(table))
	for k, v := range table {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, dup := lowered[k]; !dup {
			words = append(words, k)
		}
		lowered[k] = v
	}
	if len(words) == 0 {
		return &Filter{table: lowered}
	}
	// Longest first so "asshole" wins over "ass" at the same position.
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	re := regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	return &Filter{table: lowered, re: re}
}

// Default returns a filter over DefaultTable.
func Default() *Filter {
	return New(DefaultTable)
}

// Apply returns the censored text and the number of replacements made. A
// match starting with an upper-case letter gets a capitalized replacement.
func (f *Filter) Apply(text string) (string, int) {
	if f == nil || f.re == nil || text == "" {
		return text, 0
	}
	count := 0
	out := f.re.ReplaceAllStringFunc(text, func(match string) string {
		repl, ok := f.table[strings.ToLower(match)]
		if !ok {
			return match
		}
		count++
		first, _ := utf8.DecodeRuneInString(match)
		if unicode.IsUpper(first) {
			return capitalize(repl)
		}
		return repl
	})
	return out, count
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
