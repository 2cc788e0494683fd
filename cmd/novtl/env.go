package main

import (
	"fmt"
	"strings"

	"github.com/oukeidos/novtl/internal/auth"
	"github.com/spf13/cobra"
)

var (
	saveKeys  = auth.SaveKeys
	deleteKey = auth.DeleteKey
)

type envOptions struct {
	service string
}

func newEnvCmd() *cobra.Command {
	opts := envOptions{}
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage API keys in OS Keychain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvStatus(cmd, &opts)
		},
	}

	cmd.SetUsageTemplate(envUsageTemplate)
	cmd.PersistentFlags().StringVar(&opts.service, "service", auth.ServiceGemini, "Service to manage (gemini, openai or wordpress)")

	cmd.AddCommand(
		newEnvSetupCmd(&opts),
		newEnvDeleteCmd(&opts),
		newEnvStatusCmd(&opts),
	)
	return cmd
}

func newEnvSetupCmd(opts *envOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Save API keys to keychain (prompt only, comma separated)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvSetup(cmd, opts)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newEnvDeleteCmd(opts *envOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete keys from keychain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvDelete(cmd, opts)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newEnvStatusCmd(opts *envOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show key status (default if no action given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvStatus(cmd, opts)
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func envService(opts *envOptions) (string, error) {
	svc := strings.ToLower(strings.TrimSpace(opts.service))
	switch svc {
	case auth.ServiceGemini, auth.ServiceOpenAI, auth.ServiceWordPress:
		return svc, nil
	}
	return "", fmt.Errorf("invalid service. Must be 'gemini', 'openai' or 'wordpress'")
}

func runEnvSetup(cmd *cobra.Command, opts *envOptions) error {
	svc, err := envService(opts)
	if err != nil {
		return err
	}
	input, err := promptForKey(fmt.Sprintf("%s API Key(s), comma separated: ", auth.Label(svc)))
	if err != nil {
		return fmt.Errorf("error reading key: %w", err)
	}
	keys := auth.ParseKeys(input)
	if len(keys) == 0 {
		return fmt.Errorf("API key is required for setup")
	}
	if err := saveKeys(svc, keys); err != nil {
		return fmt.Errorf("error saving key: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d %s API key(s) to keychain.\n", len(keys), svc)
	return nil
}

func runEnvDelete(cmd *cobra.Command, opts *envOptions) error {
	svc, err := envService(opts)
	if err != nil {
		return err
	}
	if err := deleteKey(svc); err != nil {
		return fmt.Errorf("error deleting key: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s API keys from keychain.\n", svc)
	return nil
}

func runEnvStatus(cmd *cobra.Command, opts *envOptions) error {
	svc, err := envService(opts)
	if err != nil {
		return err
	}

	if n := getStatus(svc); n > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s API Key: Found %d (source=Keychain)\n", svc, n)
		return nil
	}
	if keys, ok := getEnvKeys(svc); ok && len(keys) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s API Key: Found %d (source=Environment Variable; disabled by default, use --allow-env)\n", svc, len(keys))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s API Key: Not Found (keychain empty, env not set)\n", svc)
	return nil
}
