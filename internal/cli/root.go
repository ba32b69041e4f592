package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	apiURL     string
	socketURL  string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:   "leaderboard-watch",
		Short: "Live quiz leaderboard viewer fed by REST snapshots and push events",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&apiURL, "api-url", os.Getenv("API_URL"), "backend REST base URL (overrides config)")
	cmd.PersistentFlags().StringVar(&socketURL, "socket-url", os.Getenv("SOCKET_URL"), "push channel URL (overrides config)")
	cmd.AddCommand(NewWatchCmd(&configPath, &apiURL, &socketURL))
	cmd.AddCommand(NewListCmd(&configPath, &apiURL))
	cmd.AddCommand(NewHistoryCmd(&configPath))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}
