package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/grobid-jats/internal/convert"
	"github.com/pdiddy/grobid-jats/pkg/types"
)

var processCmd = &cobra.Command{
	Use:   "process <fileID[-revision]>...",
	Short: "Convert submission files to JATS XML with Grobid",
	Long: `Process sends each named submission file to the Grobid host configured
for the context and stores the returned JATS XML as a new file of the same
submission. A file without an explicit revision uses its latest revision.
Failures are reported per file and recorded as notifications for the user.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contextID, _ := cmd.Flags().GetInt64("context")
		userID, _ := cmd.Flags().GetInt64("user")
		submissionID, _ := cmd.Flags().GetInt64("submission")

		refs := make([]types.FileRef, 0, len(args))
		for _, arg := range args {
			ref, err := parseFileRef(arg)
			if err != nil {
				return err
			}
			ref.SubmissionID = submissionID
			refs = append(refs, ref)
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		rc := convert.RequestContext{
			ContextID: contextID,
			ID:        uuid.NewString(),
			URL:       "cli:grobid-jats/process",
		}
		result := a.processor.ProcessBatch(cmd.Context(), refs, types.User{ID: userID}, rc, cmd.OutOrStdout())
		if result.HasFailures() {
			return fmt.Errorf("%d of %d files failed", result.Failed, result.Total())
		}
		return nil
	},
}

func init() {
	processCmd.Flags().Int64("context", 1, "context (journal) id whose Grobid host is used")
	processCmd.Flags().Int64("user", 0, "acting user id")
	processCmd.Flags().Int64("submission", 0, "submission the files must belong to (0: any)")
	_ = processCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(processCmd)
}
