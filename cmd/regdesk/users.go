package main

import (
	"github.com/spf13/cobra"

	"regdesk/internal/listing"
)

var usersFormat string

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := listing.ParseFormat(usersFormat)
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		users, err := newAPIClient(cfg.Client).Users(cmd.Context())
		if err != nil {
			return err
		}
		return listing.Render(cmd.OutOrStdout(), users, format)
	},
}

func init() {
	usersCmd.Flags().StringVarP(&usersFormat, "format", "f", "table", "Output format: table, json or yaml")
}
