package auth

import (
	"reflect"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestParseKeys(t *testing.T) {
	got := ParseKeys(" k1, k2\nk1 ;k3\t")
	want := []string{"k1", "k2", "k3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseKeys() = %v, want %v", got, want)
	}
	if got := ParseKeys(" , "); len(got) != 0 {
		t.Fatalf("expected no keys, got %v", got)
	}
}

func TestKeychainRoundTrip(t *testing.T) {
	keyring.MockInit()

	if err := SaveKeys(ServiceGemini, []string{"a", "b", "a"}); err != nil {
		t.Fatalf("SaveKeys failed: %v", err)
	}
	keys, source := GetKeys(ServiceGemini, false)
	if !reflect.DeepEqual(keys, []string{"a", "b"}) || source != "Keychain" {
		t.Fatalf("GetKeys() = %v, %q", keys, source)
	}
	if n := GetStatus(ServiceGemini); n != 2 {
		t.Fatalf("GetStatus() = %d, want 2", n)
	}
	if n := GetStatus(ServiceWordPress); n != 0 {
		t.Fatalf("wordpress keys must be separate, got %d", n)
	}
	if err := DeleteKey(ServiceGemini); err != nil {
		t.Fatalf("DeleteKey failed: %v", err)
	}
	if keys, _ := GetKeys(ServiceGemini, false); len(keys) != 0 {
		t.Fatalf("expected no keys after delete, got %v", keys)
	}
}

func TestGetKeys_Env(t *testing.T) {
	keyring.MockInit()
	t.Setenv("GEMINI_API_KEYS", "e1,e2")
	t.Setenv("GEMINI_API_KEY", "single")

	if keys, _ := GetKeys(ServiceGemini, false); len(keys) != 0 {
		t.Fatalf("environment must be ignored unless allowed, got %v", keys)
	}
	keys, source := GetKeys(ServiceGemini, true)
	if !reflect.DeepEqual(keys, []string{"e1", "e2"}) || source != "Environment Variable" {
		t.Fatalf("GetKeys() = %v, %q", keys, source)
	}

	t.Setenv("GEMINI_API_KEYS", "")
	keys, ok := GetEnvKeys(ServiceGemini)
	if !ok || !reflect.DeepEqual(keys, []string{"single"}) {
		t.Fatalf("expected single key fallback, got %v", keys)
	}
}

func TestInvalidService(t *testing.T) {
	keyring.MockInit()
	if err := SaveKeys("claude", []string{"x"}); err == nil {
		t.Fatalf("expected error for unknown service")
	}
	if EnvVar(ServiceWordPress) != "WORDPRESS_API_KEY" || EnvVar(ServiceGemini) != "GEMINI_API_KEYS" {
		t.Fatalf("unexpected env var names")
	}
}
