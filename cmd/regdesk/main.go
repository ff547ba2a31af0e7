package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"regdesk/internal/platform/config"
)

var rootCmd = &cobra.Command{
	Use:   "regdesk",
	Short: "User registration service and client",
	Long: `regdesk validates user registrations, keeps usernames unique in a
durable registry and serves the registration API. The same binary is the
command-line client for that API.`,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, signupCmd, checkCmd, usersCmd)
}

func main() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
