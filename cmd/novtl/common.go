package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/oukeidos/novtl/internal/auth"
	"github.com/oukeidos/novtl/internal/cleanup"
	"github.com/oukeidos/novtl/internal/files"
	"github.com/oukeidos/novtl/internal/logger"
	"golang.org/x/term"
)

var (
	isTerminal   = term.IsTerminal
	getKeys      = auth.GetKeys
	getEnvKeys   = auth.GetEnvKeys
	getStatus    = auth.GetStatus
	promptForKey = auth.PromptForAPIKey
)

// resolveAPIKeys handles the logic for finding the key list of a service.
func resolveAPIKeys(service string, allowEnv, envOnly bool) ([]string, string, error) {
	if envOnly {
		if keys, ok := getEnvKeys(service); ok {
			return keys, "Environment Variable", nil
		}
		return nil, "", fmt.Errorf("env-only set but %s is not set", auth.EnvVar(service))
	}

	if keys, source := getKeys(service, false); len(keys) > 0 {
		return keys, source, nil
	}

	if allowEnv {
		if keys, ok := getEnvKeys(service); ok {
			return keys, "Environment Variable", nil
		}
	}

	if isTerminal(int(os.Stdin.Fd())) {
		input, err := promptForKey(fmt.Sprintf("%s API Key(s), comma separated (press Enter to skip): ", auth.Label(service)))
		if err != nil {
			return nil, "", fmt.Errorf("error reading API key: %w", err)
		}
		if keys := auth.ParseKeys(input); len(keys) > 0 {
			return keys, "Terminal Prompt", nil
		}
		if allowEnv {
			return nil, "", fmt.Errorf("%s API key is required; not found in keychain or environment", auth.Label(service))
		}
		return nil, "", fmt.Errorf("%s API key is required; not found in keychain (environment disabled by default; use --allow-env)", auth.Label(service))
	}

	return nil, "", fmt.Errorf("no %s API key available (non-interactive shell); set keychain or use --allow-env", auth.Label(service))
}

// initLogging sets the log level and opens the optional JSONL log file.
func initLogging(debug bool, logFilePath string) error {
	logLevel := logger.LevelInfo
	if debug {
		logLevel = logger.LevelDebug
	}
	var logFileW io.Writer
	if logFilePath != "" {
		if err := files.RejectSymlinkPath(logFilePath); err != nil {
			return err
		}
		f, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		cleanup.Register(f.Close)
		logFileW = f
	}
	logger.Init(logLevel, logFileW)
	return nil
}

func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn("Cancellation requested")
		cancel()
	}()
	stop := func() {
		signal.Stop(sigCh)
		cancel()
	}
	return ctx, stop
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
