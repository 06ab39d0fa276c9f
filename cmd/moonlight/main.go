// Command moonlight runs a Moonlight catalog site and manages its admins.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moonlightbl/moonlight"
)

// version is set at build time via ldflags.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "moonlight",
	Short: "Moonlight - a series and film catalog built with Go, Echo, and templ",
	Long: `Moonlight serves a catalog of series, miniseries, films and anime with
embedded players, a JSON API and a session-protected admin.

Configuration is read from an optional YAML file, then MOONLIGHT_*
environment variables, then command flags.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the moonlight version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "moonlight %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", moonlight.EnvOr("MOONLIGHT_CONFIG", "moonlight.yaml"), "Path to the YAML config file")

	adminCmd.AddCommand(adminAddCmd)
	adminCmd.AddCommand(adminPasswordCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
