package main

import (
	"github.com/spf13/cobra"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "List the notifications recorded for a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetInt64("user")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		notes, err := a.store.Notifications(cmd.Context(), userID)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), notes, asJSON)
	},
}

func init() {
	notificationsCmd.Flags().Int64("user", 0, "user id")
	notificationsCmd.Flags().Bool("json", false, "output as JSON")
	_ = notificationsCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(notificationsCmd)
}
