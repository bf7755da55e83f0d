package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/flowcanvas/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [workflow]",
	Short: "Export the workflow graph visualization",
	Long:  `Loads the workflow and outputs a Mermaid diagram (graph TD) with one shape per node type.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.Graph(context.Background(), sharedOptions(cmd), targetArg(args), os.Stdout); err != nil {
			fmt.Printf("Error generating graph: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
