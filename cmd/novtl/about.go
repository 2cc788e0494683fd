package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAboutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "about",
		Short: "Show a short description and link",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "novtl — web novel translation with Gemini or OpenAI-compatible models")
			fmt.Fprintln(out, "https://github.com/oukeidos/novtl")
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}
