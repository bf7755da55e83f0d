package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/flowcanvas/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [workflow]",
	Short: "Check a workflow for structural issues",
	Long:  `Reports missing or extra start nodes, duplicate ids, unknown node types and dangling edges. Exits non-zero on errors.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.Validate(context.Background(), sharedOptions(cmd), targetArg(args), os.Stdout); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Workflow is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
