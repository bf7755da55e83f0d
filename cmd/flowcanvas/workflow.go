package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/flowcanvas/internal/cli"
	"github.com/spf13/cobra"
)

var workflowCmd = &cobra.Command{
	Use:     "workflow",
	Aliases: []string{"wf"},
	Short:   "Manage stored workflows",
}

var workflowListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List stored workflows",
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.ListWorkflows(context.Background(), sharedOptions(cmd), os.Stdout); err != nil {
			fmt.Printf("Error listing workflows: %v\n", err)
			os.Exit(1)
		}
	},
}

var workflowNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a workflow holding a single start node",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		if err := cli.NewWorkflow(context.Background(), sharedOptions(cmd), args[0], force, os.Stdout); err != nil {
			fmt.Printf("Error creating workflow: %v\n", err)
			os.Exit(1)
		}
	},
}

var workflowShowCmd = &cobra.Command{
	Use:   "show [workflow]",
	Short: "Print a workflow document",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.ShowWorkflow(context.Background(), sharedOptions(cmd), targetArg(args), os.Stdout); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var workflowRemoveCmd = &cobra.Command{
	Use:     "rm <name>",
	Aliases: []string{"remove", "delete"},
	Short:   "Delete a stored workflow",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.RemoveWorkflow(context.Background(), sharedOptions(cmd), args[0], os.Stdout); err != nil {
			fmt.Printf("Error removing workflow: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(workflowCmd)
	workflowCmd.AddCommand(workflowListCmd, workflowNewCmd, workflowShowCmd, workflowRemoveCmd)
	workflowNewCmd.Flags().BoolP("force", "f", false, "Overwrite an existing workflow")
}
