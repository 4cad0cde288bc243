package main

import (
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the Grobid host of a context",
}

type settingsView struct {
	ContextID int64  `json:"context_id" yaml:"context_id"`
	Host      string `json:"host" yaml:"host"`
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the Grobid host configured for a context",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		contextID, _ := cmd.Flags().GetInt64("context")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		host, err := a.settings.Host(cmd.Context(), contextID)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), settingsView{ContextID: contextID, Host: host}, asJSON)
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <host>",
	Short: "Set the Grobid host of a context (e.g. http://localhost:8070)",
	Long: `Set stores the Grobid base URL for a context. Surrounding whitespace is
removed; an empty value disables conversion for the context.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contextID, _ := cmd.Flags().GetInt64("context")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.settings.SetHost(cmd.Context(), contextID, args[0]); err != nil {
			return err
		}
		host, err := a.settings.Host(cmd.Context(), contextID)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), settingsView{ContextID: contextID, Host: host}, asJSON)
	},
}

func init() {
	for _, c := range []*cobra.Command{settingsShowCmd, settingsSetCmd} {
		c.Flags().Int64("context", 1, "context (journal) id")
		c.Flags().Bool("json", false, "output as JSON")
		settingsCmd.AddCommand(c)
	}
	rootCmd.AddCommand(settingsCmd)
}
