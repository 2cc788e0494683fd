package glossary

import (
	"encoding/json"
	"testing"
)

func TestMerge_FirstWriterWins(t *testing.T) {
	g := FromEntries([]Entry{{"林峰", "Lin Feng"}, {"青云宗", "Azure Cloud Sect"}})
	next, added := g.Merge([]Entry{
		{"林峰", "Lin Fung"},
		{"丹田", "dantian"},
		{"丹田", "elixir field"},
		{" ", "blank"},
	})

	if added != 1 {
		t.Fatalf("expected 1 added term, got %d", added)
	}
	if v, _ := next.Lookup("林峰"); v != "Lin Feng" {
		t.Fatalf("earlier value overwritten: %q", v)
	}
	if v, _ := next.Lookup("丹田"); v != "dantian" {
		t.Fatalf("first value in batch should win, got %q", v)
	}
	if g.Len() != 2 {
		t.Fatalf("Merge mutated its receiver: len %d", g.Len())
	}
	if _, ok := g.Lookup("丹田"); ok {
		t.Fatalf("Merge mutated its receiver")
	}
}

func TestExcerpt_OldestFirstAndBounded(t *testing.T) {
	g := FromEntries([]Entry{{"a", "A"}, {"b", "B"}, {"c", "C"}})
	ex := g.Excerpt(2)
	if len(ex) != 2 || ex[0].Source != "a" || ex[1].Source != "b" {
		t.Fatalf("unexpected excerpt %v", ex)
	}
	if got := g.Excerpt(10); len(got) != 3 {
		t.Fatalf("expected full glossary, got %d", len(got))
	}
	if got := (Glossary{}).Excerpt(5); got != nil {
		t.Fatalf("expected nil excerpt for empty glossary")
	}
}

func TestJSON_PreservesOrder(t *testing.T) {
	g := FromEntries([]Entry{{"林峰", "Lin Feng"}, {"丹田", "dantian"}, {"a\"b", "quoted"}})
	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"林峰":"Lin Feng","丹田":"dantian","a\"b":"quoted"}`
	if string(data) != want {
		t.Fatalf("Marshal = %s, want %s", data, want)
	}

	var back Glossary
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	entries := back.Entries()
	if len(entries) != 3 || entries[0].Source != "林峰" || entries[2].Target != "quoted" {
		t.Fatalf("unexpected entries %v", entries)
	}
	if err := json.Unmarshal([]byte(`["x"]`), &back); err == nil {
		t.Fatalf("expected error for non-object glossary")
	}
}

func TestParseExtraction(t *testing.T) {
	t.Run("Fenced", func(t *testing.T) {
		text := "Here you go:\n```json\n{\"characters\":{\"林峰\":\"Lin Feng\"},\"places\":{\"青云山\":\"Azure Cloud Mountain\"},\"terms\":{\"丹田\":\"dantian\",\"灵气\":\"spiritual qi\"}}\n```"
		ex, err := ParseExtraction(text)
		if err != nil {
			t.Fatalf("ParseExtraction failed: %v", err)
		}
		if len(ex.Characters) != 1 || len(ex.Places) != 1 || len(ex.Terms) != 2 {
			t.Fatalf("unexpected extraction %+v", ex)
		}
		entries := ex.Entries()
		if entries[0].Source != "林峰" || entries[1].Source != "青云山" || entries[3].Target != "spiritual qi" {
			t.Fatalf("unexpected entry order %v", entries)
		}
	})

	t.Run("BareFenceAndMissingCategory", func(t *testing.T) {
		ex, err := ParseExtraction("```\n{\"terms\":{\"丹田\":\"dantian\"}}\n```")
		if err != nil || ex.Len() != 1 {
			t.Fatalf("ParseExtraction = (%+v, %v)", ex, err)
		}
	})

	t.Run("NonStringValuesSkipped", func(t *testing.T) {
		ex, err := ParseExtraction(`{"characters":{"林峰":"Lin Feng","x":3}}`)
		if err != nil || ex.Len() != 1 {
			t.Fatalf("ParseExtraction = (%+v, %v)", ex, err)
		}
	})

	for name, text := range map[string]string{
		"empty":         "  ",
		"not json":      "I cannot help with that.",
		"array":         `[{"characters":{}}]`,
		"no categories": `{"names":{"a":"b"}}`,
	} {
		t.Run("Invalid/"+name, func(t *testing.T) {
			if _, err := ParseExtraction(text); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":                 "{\"a\":1}",
		"```json\n{\"a\":1}\n```":   "{\"a\":1}",
		"```{\"a\":1}```":           "{\"a\":1}",
		"text\n```\n{\"a\":1}\n```": "{\"a\":1}",
	}
	for in, want := range cases {
		if got := StripCodeFence(in); got != want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}
