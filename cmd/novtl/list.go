package main

import (
	"fmt"

	"github.com/oukeidos/novtl/internal/metadata"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known models",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, provider := range []string{"gemini", "openai"} {
				tr, ex := metadata.Defaults(provider)
				fmt.Fprintf(out, "%s models:\n", provider)
				for _, m := range metadata.ModelsFor(provider) {
					mark := ""
					if m.ID == tr || m.ID == ex {
						mark = " (default)"
					}
					fmt.Fprintf(out, "  %-24s %-24s [%s]%s\n", m.ID, m.Label, m.Tier, mark)
				}
			}
			fmt.Fprintln(out, "Any other model id accepted by the provider can be passed with --model.")
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}
