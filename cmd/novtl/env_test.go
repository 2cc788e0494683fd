package main

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func withEnvStatusStubs(t *testing.T, count int, envKeys []string) {
	t.Helper()

	prevStatus := getStatus
	prevEnv := getEnvKeys

	getStatus = func(_ string) int {
		return count
	}
	getEnvKeys = func(_ string) ([]string, bool) {
		if len(envKeys) == 0 {
			return nil, false
		}
		return envKeys, true
	}

	t.Cleanup(func() {
		getStatus = prevStatus
		getEnvKeys = prevEnv
	})
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestHandleEnv_StatusKeychain(t *testing.T) {
	withEnvStatusStubs(t, 3, []string{"sk-env-secret"})

	out, err := executeCommand(t, "env", "status", "--service", "gemini")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	if !strings.Contains(out, "Found 3 (source=Keychain)") {
		t.Fatalf("expected keychain source, got: %s", out)
	}
	if strings.Contains(out, "sk-env-secret") {
		t.Fatalf("output leaked env key")
	}
}

func TestHandleEnv_StatusEnv(t *testing.T) {
	withEnvStatusStubs(t, 0, []string{"sk-env-secret"})

	out, err := executeCommand(t, "env", "status", "--service", "openai")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	if !strings.Contains(out, "(source=Environment Variable") {
		t.Fatalf("expected env source, got: %s", out)
	}
	if strings.Contains(out, "sk-env-secret") {
		t.Fatalf("output leaked env key")
	}
}

func TestHandleEnv_StatusNotFound(t *testing.T) {
	withEnvStatusStubs(t, 0, nil)

	out, err := executeCommand(t, "env", "--service", "wordpress")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	if !strings.Contains(out, "wordpress API Key: Not Found") {
		t.Fatalf("expected not found, got: %s", out)
	}
}

func TestHandleEnv_InvalidService(t *testing.T) {
	if _, err := executeCommand(t, "env", "status", "--service", "deepl"); err == nil {
		t.Fatalf("expected invalid service error")
	}
}

func TestHandleEnvSetup_SavesKeyList(t *testing.T) {
	prevPrompt := promptForKey
	prevSave := saveKeys
	t.Cleanup(func() {
		promptForKey = prevPrompt
		saveKeys = prevSave
	})
	promptForKey = func(string) (string, error) { return "a, b,,c", nil }
	var savedService string
	var saved []string
	saveKeys = func(service string, keys []string) error {
		savedService, saved = service, keys
		return nil
	}

	out, err := executeCommand(t, "env", "setup", "--service", "gemini")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if savedService != "gemini" || !reflect.DeepEqual(saved, []string{"a", "b", "c"}) {
		t.Fatalf("saved %q %v", savedService, saved)
	}
	if !strings.Contains(out, "Saved 3 gemini API key(s)") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestHandleEnvSetup_RejectsPositionalAPIKey(t *testing.T) {
	out, err := executeCommand(t, "env", "setup", "sk-should-not-be-allowed", "--service", "openai")
	if err == nil {
		t.Fatalf("expected setup to reject positional API key argument")
	}
	if !strings.Contains(out, "unknown command") && !strings.Contains(out, "accepts 0 arg(s)") {
		t.Fatalf("expected positional-argument rejection error, got: %s", out)
	}
}

func TestHandleEnvDelete(t *testing.T) {
	prevDelete := deleteKey
	t.Cleanup(func() { deleteKey = prevDelete })
	var deleted string
	deleteKey = func(service string) error {
		deleted = service
		return nil
	}

	if _, err := executeCommand(t, "env", "delete", "--service", "WordPress"); err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if deleted != "wordpress" {
		t.Fatalf("deleted %q, want wordpress", deleted)
	}
}
