package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mikey/spam-evidence-engine/internal/di"
)

var flags = &di.CLIFlags{}

var rootCmd = &cobra.Command{
	Use:   "spamctl",
	Short: "Operator tool for the spam evidence engine",
	Long: `spamctl scores individual messages, inspects and edits the domain
blocklist, and runs a single threat feed refresh cycle. It reads the same
configuration as the long-running services.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.ConfigFile, "config", "c", "", "Path to config file")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose logging")
	pf.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	pf.StringVar(&flags.Provider, "provider", "", "Semantic provider override (gemini, openai, bedrock, none)")
	pf.StringVar(&flags.Backend, "backend", "", "Reputation backend override (redis, memory, sqlite, mysql, postgres)")
	pf.StringVar(&flags.Profile, "profile", "", "Weight profile override")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(blocklistCmd)
	rootCmd.AddCommand(feedsCmd)
}

// invoke builds the CLI container and runs fn with its dependencies injected
func invoke(cmd *cobra.Command, fn interface{}) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := di.BuildCLIContainer(ctx, flags)
	if err != nil {
		return err
	}
	return container.Invoke(fn)
}
