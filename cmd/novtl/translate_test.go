package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oukeidos/novtl/internal/pipeline"
)

func TestRunStatusError(t *testing.T) {
	cases := []struct {
		name    string
		result  pipeline.RunResult
		wantErr string
	}{
		{
			name:    "success",
			result:  pipeline.RunResult{Status: pipeline.RunStatusSuccess},
			wantErr: "",
		},
		{
			name:    "partial_with_report",
			result:  pipeline.RunResult{Status: pipeline.RunStatusPartialSuccess, ReportPath: "/tmp/out/7_report.json"},
			wantErr: "translation finished with status: partial_success (report: /tmp/out/7_report.json)",
		},
		{
			name:    "failure_without_report",
			result:  pipeline.RunResult{Status: pipeline.RunStatusFailure},
			wantErr: "translation finished with status: failure",
		},
		{
			name:    "unknown_status",
			result:  pipeline.RunResult{},
			wantErr: `translation finished with unknown status: ""`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := runStatusError(tc.result)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %q, got nil", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %q, want contains %q", err.Error(), tc.wantErr)
			}
		})
	}
}

func TestValidateNovelExtension(t *testing.T) {
	if err := validateNovelExtension("book/Novel.JSON"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := validateNovelExtension("book/novel.txt")
	if err == nil || !strings.Contains(err.Error(), `".txt"`) {
		t.Fatalf("expected extension error, got %v", err)
	}
	err = validateNovelExtension("novel")
	if err == nil || !strings.Contains(err.Error(), "(none)") {
		t.Fatalf("expected (none) in error, got %v", err)
	}
}

func stubNovelPipeline(t *testing.T, result pipeline.RunResult) *pipeline.Config {
	t.Helper()
	prev := runNovelPipeline
	got := &pipeline.Config{}
	runNovelPipeline = func(_ context.Context, cfg pipeline.Config) (pipeline.RunResult, error) {
		*got = cfg
		return result, nil
	}
	t.Cleanup(func() { runNovelPipeline = prev })
	return got
}

func TestTranslate_ConfigFileAndFlags(t *testing.T) {
	withKeyStubs(t, false, "", nil, []string{"env-1", "env-2"})
	got := stubNovelPipeline(t, pipeline.RunResult{Status: pipeline.RunStatusSuccess, TotalChapters: 2})

	dir := t.TempDir()
	novelPath := filepath.Join(dir, "novel.json")
	if err := os.WriteFile(novelPath, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(dir, "run.yaml")
	yamlText := strings.Join([]string{
		"provider: openai",
		"model: file-model",
		"concurrency: 4",
		"spacing: 2s",
		"redis:",
		"  url: redis://localhost:6379/0",
		"  ttl: 24h",
	}, "\n")
	if err := os.WriteFile(configPath, []byte(yamlText), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := executeCommand(t, "translate", novelPath, filepath.Join(dir, "out"),
		"--config", configPath, "--model", "flag-model", "--env-only")
	if err != nil {
		t.Fatalf("command failed: %v\n%s", err, out)
	}

	if got.Provider != "openai" {
		t.Errorf("Provider = %q, want openai from file", got.Provider)
	}
	if got.Model != "flag-model" {
		t.Errorf("Model = %q, explicit flag must win", got.Model)
	}
	if got.Concurrency != 4 || got.Spacing != 2*time.Second {
		t.Errorf("Concurrency/Spacing = %d/%s, want 4/2s", got.Concurrency, got.Spacing)
	}
	if got.RedisURL != "redis://localhost:6379/0" || got.RedisTTL != 24*time.Hour {
		t.Errorf("Redis = %q/%s", got.RedisURL, got.RedisTTL)
	}
	if len(got.APIKeys) != 2 {
		t.Errorf("APIKeys = %v, want both env keys", got.APIKeys)
	}
	if got.WordPressKey != "" {
		t.Errorf("WordPressKey set without --wordpress-url")
	}
	if !strings.Contains(out, "Run Summary") {
		t.Errorf("expected summary in output, got: %s", out)
	}
}

func TestTranslate_RejectsUnknownConfigKey(t *testing.T) {
	withKeyStubs(t, false, "", nil, []string{"env-1"})
	stubNovelPipeline(t, pipeline.RunResult{Status: pipeline.RunStatusSuccess})

	dir := t.TempDir()
	novelPath := filepath.Join(dir, "novel.json")
	if err := os.WriteFile(novelPath, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(dir, "run.yaml")
	if err := os.WriteFile(configPath, []byte("modle: typo\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := executeCommand(t, "translate", novelPath, filepath.Join(dir, "out"), "--config", configPath, "--env-only"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestTranslate_WordPressKey(t *testing.T) {
	withKeyStubs(t, false, "", nil, []string{"shared-key"})
	got := stubNovelPipeline(t, pipeline.RunResult{Status: pipeline.RunStatusSuccess})

	dir := t.TempDir()
	novelPath := filepath.Join(dir, "novel.json")
	if err := os.WriteFile(novelPath, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := executeCommand(t, novelPath, filepath.Join(dir, "out"),
		"--wordpress-url", "https://example.org", "--env-only"); err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if got.WordPressURL != "https://example.org" || got.WordPressKey != "shared-key" {
		t.Fatalf("WordPress = %q/%q", got.WordPressURL, got.WordPressKey)
	}
}

func TestTranslate_PartialSuccessReturnsError(t *testing.T) {
	withKeyStubs(t, false, "", nil, []string{"k"})
	stubNovelPipeline(t, pipeline.RunResult{
		Status:         pipeline.RunStatusPartialSuccess,
		TotalChapters:  3,
		FailedChapters: []int{2},
		ReportPath:     "r.json",
	})

	dir := t.TempDir()
	novelPath := filepath.Join(dir, "novel.json")
	if err := os.WriteFile(novelPath, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	out, err := executeCommand(t, "translate", novelPath, filepath.Join(dir, "out"), "--env-only")
	if err == nil || !strings.Contains(err.Error(), "partial_success") {
		t.Fatalf("expected partial_success error, got %v", err)
	}
	if !strings.Contains(out, "Failed:         2") {
		t.Fatalf("expected failed chapters in summary, got: %s", out)
	}
}

func TestTranslate_ExistingOutputDeclined(t *testing.T) {
	withKeyStubs(t, false, "", nil, []string{"k"})
	prevConfirm := confirmOverwrite
	confirmOverwrite = func(string, bool) (bool, error) { return false, nil }
	t.Cleanup(func() { confirmOverwrite = prevConfirm })

	called := false
	prev := runNovelPipeline
	runNovelPipeline = func(context.Context, pipeline.Config) (pipeline.RunResult, error) {
		called = true
		return pipeline.RunResult{}, nil
	}
	t.Cleanup(func() { runNovelPipeline = prev })

	dir := t.TempDir()
	novelPath := filepath.Join(dir, "novel.json")
	outDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(novelPath, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(outDir, pipeline.ChapterFileName(1)), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := executeCommand(t, "translate", novelPath, outDir, "--env-only"); err != nil {
		t.Fatalf("declined overwrite must not fail: %v", err)
	}
	if called {
		t.Fatalf("pipeline ran after overwrite was declined")
	}
}
