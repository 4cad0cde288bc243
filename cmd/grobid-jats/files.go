package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/grobid-jats/internal/store"
	"github.com/pdiddy/grobid-jats/pkg/types"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Import, list and inspect submission files in the local store",
}

var filesImportCmd = &cobra.Command{
	Use:   "import <path>...",
	Short: "Copy local files into a submission",
	Long: `Import copies local files into the store as new files of a submission.
The submission is created when --context is given and it does not exist yet.
The declared MIME type is detected from content unless --mime-type is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		submissionID, _ := cmd.Flags().GetInt64("submission")
		contextID, _ := cmd.Flags().GetInt64("context")
		locale, _ := cmd.Flags().GetString("locale")
		genreID, _ := cmd.Flags().GetInt64("genre")
		stage, _ := cmd.Flags().GetInt("stage")
		userID, _ := cmd.Flags().GetInt64("user")
		mimeType, _ := cmd.Flags().GetString("mime-type")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if _, err := a.store.Submission(ctx, submissionID); errors.Is(err, store.ErrNotFound) {
			if contextID == 0 {
				return fmt.Errorf("submission %d does not exist; pass --context to create it", submissionID)
			}
			if err := a.store.PutSubmission(ctx, types.Submission{ID: submissionID, ContextID: contextID, Locale: locale}); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		for _, path := range args {
			f, err := a.store.ImportFile(ctx, store.ImportRequest{
				SubmissionID:   submissionID,
				Path:           path,
				GenreID:        genreID,
				FileStage:      types.FileStage(stage),
				UploaderUserID: userID,
				MIMEType:       mimeType,
			})
			if err != nil {
				return fmt.Errorf("importing %s: %w", path, err)
			}
			fmt.Fprintf(w, "imported: %s as %s (%s, %d bytes)\n", path, f.FileIDAndRevision(), f.FileType, f.FileSize)
		}
		return nil
	},
}

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the files of a submission",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		submissionID, _ := cmd.Flags().GetInt64("submission")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		files, err := a.store.ListFiles(cmd.Context(), submissionID)
		if err != nil {
			return err
		}
		if asJSON {
			return writeOutput(cmd.OutOrStdout(), files, true)
		}
		w := cmd.OutOrStdout()
		for _, f := range files {
			source := ""
			if f.SourceFileID != 0 {
				source = fmt.Sprintf(" <- %d-%d", f.SourceFileID, f.SourceRevision)
			}
			fmt.Fprintf(w, "%-8s %-16s %-40s %8d%s\n", f.FileIDAndRevision(), f.FileType, f.OriginalFileName, f.FileSize, source)
		}
		return nil
	},
}

type fileView struct {
	types.SubmissionFile `yaml:",inline"`
	Actions              map[string]bool `json:"actions" yaml:"actions"`
}

var filesShowCmd = &cobra.Command{
	Use:   "show <fileID[-revision]>",
	Short: "Print one file record and the actions offered for it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contextID, _ := cmd.Flags().GetInt64("context")
		asJSON, _ := cmd.Flags().GetBool("json")

		ref, err := parseFileRef(args[0])
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := a.store.SubmissionFile(cmd.Context(), ref)
		if err != nil {
			return err
		}
		eligible, err := a.processor.Eligible(cmd.Context(), contextID, f)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), fileView{SubmissionFile: f, Actions: map[string]bool{"process": eligible}}, asJSON)
	},
}

func init() {
	filesImportCmd.Flags().Int64("submission", 0, "submission id")
	filesImportCmd.Flags().Int64("context", 0, "context id used when creating the submission")
	filesImportCmd.Flags().String("locale", "en", "locale used when creating the submission")
	filesImportCmd.Flags().Int64("genre", 1, "genre id of the imported files")
	filesImportCmd.Flags().Int("stage", 2, "file stage of the imported files")
	filesImportCmd.Flags().Int64("user", 0, "uploader user id")
	filesImportCmd.Flags().String("mime-type", "", "declared MIME type (default: detected)")
	_ = filesImportCmd.MarkFlagRequired("submission")

	filesListCmd.Flags().Int64("submission", 0, "submission id")
	filesListCmd.Flags().Bool("json", false, "output as JSON")
	_ = filesListCmd.MarkFlagRequired("submission")

	filesShowCmd.Flags().Int64("context", 1, "context id used for the action check")
	filesShowCmd.Flags().Bool("json", false, "output as JSON")

	filesCmd.AddCommand(filesImportCmd, filesListCmd, filesShowCmd)
	rootCmd.AddCommand(filesCmd)
}
