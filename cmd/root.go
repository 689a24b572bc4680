package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the gumcp application
var rootCmd = &cobra.Command{
	Use:   "gumcp",
	Short: "Stateless multi-tenant MCP connector server",
	Long: `gumcp serves thin MCP connectors for SaaS services behind a single
stateless HTTP endpoint. Every request carries its own session identity in
the path (/{service}/{user_id}:{api_key}) and is served by a connector
instance built just for that request.

Credentials are resolved per session from a pluggable backend: the Nango
broker, the Gumloop platform, or local JSON files for development.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "gumcp version %s\n" .Version}}`)

	// A .env in the working directory seeds backend configuration for
	// development; a missing file is not an error.
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
}
