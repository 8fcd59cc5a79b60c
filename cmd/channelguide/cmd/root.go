package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aseeltv/channelguide/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "channelguide",
	Short: "Sports channel guide server",
	Long: "Serves a sports channel guide backed by Postgres with a Redis cache\n" +
		"layer. The catalog keeps working when either backend is down: it falls\n" +
		"back to the cache, then to a built-in default catalog.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (YAML); else environment variables")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
}

// loadConfig resolves the configuration from the --config file or the
// environment.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load(), nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
