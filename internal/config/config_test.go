package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "novtl.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
provider: openai
base_url: http://localhost:8080/v1
model: gpt-4.1
concurrency: 3
spacing: 2s
redis:
  url: redis://localhost:6379/0
  ttl: 720h
wordpress:
  url: https://example.com
`)
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if f.Provider != "openai" || f.Concurrency != 3 || f.Redis.URL != "redis://localhost:6379/0" || f.WordPress.URL != "https://example.com" {
		t.Fatalf("unexpected file: %+v", f)
	}
	d, err := f.Durations()
	if err != nil {
		t.Fatalf("Durations failed: %v", err)
	}
	if d.Spacing != 2*time.Second || d.RedisTTL != 720*time.Hour || d.CallTimeout != 0 {
		t.Fatalf("unexpected durations: %+v", d)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"UnknownField", "modle: x\n", "failed to parse YAML"},
		{"BadDuration", "spacing: soon\n", "spacing"},
		{"NegativeDuration", "call_timeout: -1s\n", "must not be negative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.content))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q error, got %v", tc.want, err)
			}
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
