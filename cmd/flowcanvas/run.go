package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/flowcanvas/internal/cli"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [workflow]",
	Short: "Simulate a workflow",
	Long: `Loads a workflow by name (or from a .yaml/.json file) and walks it from its start node,
printing every step with its synthetic output. While it runs, type "p" to pause or resume
and "s" to stop.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		input, _ := cmd.Flags().GetString("input")
		headless, _ := cmd.Flags().GetBool("headless")
		pretty, _ := cmd.Flags().GetBool("pretty")

		sc := cli.NewSignalContext(context.Background())
		defer sc.Cancel()

		st, err := cli.Run(sc, cli.RunOptions{
			Options:  sharedOptions(cmd),
			Target:   targetArg(args),
			Input:    input,
			Headless: headless,
			Pretty:   pretty,
		}, os.Stdin, os.Stdout)

		switch {
		case errors.Is(err, context.Canceled):
			if sig := sc.Signal(); sig != nil {
				fmt.Printf("\nSimulation stopped (%v).\n", sig)
			}
			os.Exit(130)
		case err != nil:
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		case st.Status == domain.StatusIdle:
			os.Exit(130)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("input", "i", "", "User input passed to the start node")
	runCmd.Flags().Bool("headless", false, "Disable the banner and the interactive p/s controls")
	runCmd.Flags().Bool("pretty", false, "Render node outputs as markdown")
}
