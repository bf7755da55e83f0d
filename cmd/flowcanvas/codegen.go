package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/flowcanvas/internal/cli"
	"github.com/aretw0/flowcanvas/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var codegenCmd = &cobra.Command{
	Use:   "codegen [workflow]",
	Short: "Generate agent code from a workflow",
	Long:  `Emits a Python or TypeScript program declaring the workflow's agents, tools and guardrails.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		lang, _ := cmd.Flags().GetString("lang")
		pretty := tui.IsTerminal(os.Stdout)
		if cmd.Flags().Changed("pretty") {
			pretty, _ = cmd.Flags().GetBool("pretty")
		}

		if err := cli.Codegen(context.Background(), sharedOptions(cmd), targetArg(args), lang, pretty, os.Stdout); err != nil {
			fmt.Printf("Error generating code: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(codegenCmd)
	codegenCmd.Flags().StringP("lang", "l", "python", "Target language (python, typescript)")
	codegenCmd.Flags().Bool("pretty", false, "Highlight the generated code (default when stdout is a terminal)")
}
