package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSafePath(t *testing.T) {
	t.Run("FreePathUnchanged", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "n1_report.json")
		got, changed, err := SafePath(path)
		if err != nil {
			t.Fatalf("SafePath failed: %v", err)
		}
		if changed || got != path {
			t.Fatalf("SafePath() = (%q, %v), want (%q, false)", got, changed, path)
		}
	})

	t.Run("NumberedSuffixes", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "n1_report.json")
		for _, name := range []string{"n1_report.json", "n1_report_1.json"} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0600); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
		}
		got, changed, err := SafePath(path)
		if err != nil {
			t.Fatalf("SafePath failed: %v", err)
		}
		if !changed || filepath.Base(got) != "n1_report_2.json" {
			t.Fatalf("SafePath() = (%q, %v), want n1_report_2.json", got, changed)
		}
	})

	t.Run("UUIDAfterNumbers", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "r.json")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		for i := 1; i <= maxNumberedSuffix; i++ {
			name := filepath.Join(dir, "r_"+string(rune('0'+i))+".json")
			if err := os.WriteFile(name, []byte("{}"), 0600); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
		}
		got, changed, err := SafePath(path)
		if err != nil {
			t.Fatalf("SafePath failed: %v", err)
		}
		base := filepath.Base(got)
		if !changed || !strings.HasPrefix(base, "r_") || len(base) != len("r_")+36+len(".json") {
			t.Fatalf("expected uuid suffix, got %q", got)
		}
	})

	t.Run("EmptyPath", func(t *testing.T) {
		if _, _, err := SafePath(""); err == nil {
			t.Fatalf("expected error for empty path")
		}
	})
}
