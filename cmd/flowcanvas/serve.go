package main

import (
	"fmt"
	"net"
	"os"

	"github.com/aretw0/flowcanvas/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the workspace server: graph editing, simulation control, a Server-Sent Events
stream of simulation state, Mermaid and code export over a JSON API.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		metrics, _ := cmd.Flags().GetBool("metrics")
		opts := sharedOptions(cmd)

		ln, err := net.Listen("tcp", ":"+port)
		if err != nil {
			fmt.Printf("Error listening on port %s: %v\n", port, err)
			os.Exit(1)
		}
		fmt.Printf("Starting FlowCanvas Server on %s\n", ln.Addr())
		if opts.RedisURL == "" {
			fmt.Printf("Serving workflows from: %s\n", opts.Dir)
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		if err := cli.Serve(sc, cli.ServeOptions{Options: opts, Metrics: metrics}, ln); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("FlowCanvas Server stopped gracefully")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Bool("metrics", false, "Expose Prometheus metrics on /metrics")
}
