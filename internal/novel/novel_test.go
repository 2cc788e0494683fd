package novel

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_SortsChapters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "novel.json")
	data := `{"id":"42","title":"天道","chapters":[{"number":2,"title":"二","content":"b"},{"number":1,"title":"一","content":"a"}]}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	n, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if n.ID != "42" || len(n.Chapters) != 2 || n.Chapters[0].Number != 1 {
		t.Fatalf("unexpected novel %+v", n)
	}
}

func TestNormalize_Rejects(t *testing.T) {
	cases := map[string]Novel{
		"missing id":    {Chapters: []Chapter{{Number: 1}}},
		"path id":       {ID: "../x", Chapters: []Chapter{{Number: 1}}},
		"no chapters":   {ID: "1"},
		"zero number":   {ID: "1", Chapters: []Chapter{{Number: 0}}},
		"duplicate num": {ID: "1", Chapters: []Chapter{{Number: 1}, {Number: 1}}},
	}
	for name, n := range cases {
		t.Run(name, func(t *testing.T) {
			if err := n.Normalize(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
