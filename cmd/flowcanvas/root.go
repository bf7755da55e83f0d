package main

import (
	"fmt"
	"os"
	"time"

	"github.com/aretw0/flowcanvas/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "flowcanvas",
	Short: "FlowCanvas designs and simulates agent workflows",
	Long: `FlowCanvas lets you compose agent workflows out of typed nodes, dry-run them with
synthetic outputs, and export them as Mermaid diagrams or agent code.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".", "Directory holding the workflow files")
	flags.String("format", "yaml", "Workflow file format (yaml, json)")
	flags.Bool("debug", false, "Enable debug logging")
	flags.Duration("delay", time.Second, "Base synthetic delay of a simulation step")
	flags.Bool("strict", false, "Refuse to simulate workflows with validation errors")
	flags.Int("max-steps", 0, "Fail a simulation after this many steps (0 = unlimited)")
	flags.String("redis", "", "Redis URL; stores workflows in Redis instead of --dir")
	flags.String("redis-prefix", "", "Key prefix used in Redis")
	flags.String("encryption-key", os.Getenv("FLOWCANVAS_ENCRYPTION_KEY"), "AES-256 key (hex or base64) sealing stored graphs")
	flags.Bool("redact-secrets", false, "Mask credential-like node data (api_key, token...) when saving")
}

// sharedOptions reads the persistent flags.
func sharedOptions(cmd *cobra.Command) cli.Options {
	dir, _ := cmd.Flags().GetString("dir")
	format, _ := cmd.Flags().GetString("format")
	debug, _ := cmd.Flags().GetBool("debug")
	delay, _ := cmd.Flags().GetDuration("delay")
	strict, _ := cmd.Flags().GetBool("strict")
	maxSteps, _ := cmd.Flags().GetInt("max-steps")
	redisURL, _ := cmd.Flags().GetString("redis")
	prefix, _ := cmd.Flags().GetString("redis-prefix")
	key, _ := cmd.Flags().GetString("encryption-key")
	redact, _ := cmd.Flags().GetBool("redact-secrets")

	return cli.Options{
		Dir:         dir,
		Format:      format,
		Debug:       debug,
		Delay:       delay,
		Strict:      strict,
		MaxSteps:    maxSteps,
		RedisURL:    redisURL,
		RedisPrefix: prefix,

		EncryptionKey: key,
		RedactSecrets: redact,
	}
}

// targetArg returns the workflow named on the command line, if any.
func targetArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
