package auth

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

const serviceName = "novtl"

const (
	ServiceGemini    = "gemini"
	ServiceOpenAI    = "openai"
	ServiceWordPress = "wordpress"
)

type serviceInfo struct {
	label   string
	account string
	// listEnvVar holds several comma separated keys and wins over envVar.
	listEnvVar string
	envVar     string
}

var services = map[string]serviceInfo{
	ServiceGemini:    {label: "Gemini", account: "gemini-api-keys", listEnvVar: "GEMINI_API_KEYS", envVar: "GEMINI_API_KEY"},
	ServiceOpenAI:    {label: "OpenAI", account: "openai-api-keys", listEnvVar: "OPENAI_API_KEYS", envVar: "OPENAI_API_KEY"},
	ServiceWordPress: {label: "WordPress", account: "wordpress-api-key", envVar: "WORDPRESS_API_KEY"},
}

func lookup(service string) (serviceInfo, error) {
	info, ok := services[strings.ToLower(strings.TrimSpace(service))]
	if !ok {
		return serviceInfo{}, fmt.Errorf("invalid service %q. Must be 'gemini', 'openai' or 'wordpress'", service)
	}
	return info, nil
}

// Label returns the display name of a service.
func Label(service string) string {
	info, err := lookup(service)
	if err != nil {
		return service
	}
	return info.label
}

// EnvVar names the environment variable a service reads its key list from.
func EnvVar(service string) string {
	info, err := lookup(service)
	if err != nil {
		return ""
	}
	if info.listEnvVar != "" {
		return info.listEnvVar
	}
	return info.envVar
}

// ParseKeys splits a comma, whitespace or newline separated key list and
// drops blanks and duplicates, keeping order.
func ParseKeys(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r' || r == ' ' || r == '\t'
	})
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// GetKeys retrieves the ordered key list for a service.
// If allowEnv is false, environment variables are ignored.
func GetKeys(service string, allowEnv bool) ([]string, string) {
	info, err := lookup(service)
	if err != nil {
		return nil, ""
	}

	// 1. Try Keychain
	stored, err := keyring.Get(serviceName, info.account)
	if err == nil {
		if keys := ParseKeys(stored); len(keys) > 0 {
			return keys, "Keychain"
		}
	}

	if allowEnv {
		// 2. Try Env Var (optional)
		if keys, ok := GetEnvKeys(service); ok {
			return keys, "Environment Variable"
		}
	}

	return nil, ""
}

// SaveKeys saves the key list for a service to the OS Keychain.
func SaveKeys(service string, keys []string) error {
	info, err := lookup(service)
	if err != nil {
		return err
	}
	keys = ParseKeys(strings.Join(keys, "\n"))
	if len(keys) == 0 {
		return fmt.Errorf("no keys to save")
	}
	return keyring.Set(serviceName, info.account, strings.Join(keys, "\n"))
}

// DeleteKey removes the keys of a service from the OS Keychain.
func DeleteKey(service string) error {
	info, err := lookup(service)
	if err != nil {
		return err
	}
	return keyring.Delete(serviceName, info.account)
}

// GetStatus returns how many keys the keychain holds for a service.
func GetStatus(service string) int {
	info, err := lookup(service)
	if err != nil {
		return 0
	}
	stored, err := keyring.Get(serviceName, info.account)
	if err != nil {
		return 0
	}
	return len(ParseKeys(stored))
}

// PromptForAPIKey securely prompts the user for their API key.
func PromptForAPIKey(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println() // Add newline after password input
	return strings.TrimSpace(string(bytePassword)), nil
}

// GetEnvKeys retrieves the key list from environment variables only.
func GetEnvKeys(service string) ([]string, bool) {
	info, err := lookup(service)
	if err != nil {
		return nil, false
	}
	if info.listEnvVar != "" {
		if keys := ParseKeys(os.Getenv(info.listEnvVar)); len(keys) > 0 {
			return keys, true
		}
	}
	if key := strings.TrimSpace(os.Getenv(info.envVar)); key != "" {
		return []string{key}, true
	}
	return nil, false
}
