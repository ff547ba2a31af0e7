package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"regdesk/internal/client/availability"
)

var checkCmd = &cobra.Command{
	Use:   "check <username>",
	Short: "Ask the server whether a username is taken",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		checker := availability.NewChecker(newAPIClient(cfg.Client), cfg.Client.CheckTimeout)

		var tracker availability.Tracker
		username := args[0]
		ticket := tracker.Begin(username)
		res, err := checker.Check(cmd.Context(), username)
		tracker.Complete(ticket, username, res, err)

		out := cmd.OutOrStdout()
		switch {
		case res.Skipped:
			fmt.Fprintf(out, "%q is too short to check (minimum %d characters)\n", username, availability.MinLength)
		case err != nil:
			return fmt.Errorf("check %q: %w", username, err)
		default:
			fmt.Fprintf(out, "%s: %s\n", username, tracker.Status().Render())
		}
		return nil
	},
}
