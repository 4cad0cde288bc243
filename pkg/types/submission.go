// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// FileStage identifies the workflow stage a submission file belongs to
// (submission, review, copyediting, production, ...). The values are owned
// by the host application; this module only copies them.
type FileStage int

// Submission holds the fields of a manuscript submission that conversion
// needs: the owning context (journal) and the submission locale.
type Submission struct {
	ID        int64  `json:"id" yaml:"id"`
	ContextID int64  `json:"context_id" yaml:"context_id"`
	Locale    string `json:"locale" yaml:"locale"`
}

// SubmissionFile is one revision of a file attached to a submission. A
// source PDF and the XML produced from it are both SubmissionFiles; the
// latter points back at the former through SourceFileID and SourceRevision.
type SubmissionFile struct {
	// FileID and Revision together identify the record.
	FileID   int64 `json:"file_id" yaml:"file_id"`
	Revision int64 `json:"revision" yaml:"revision"`

	SubmissionID     int64     `json:"submission_id" yaml:"submission_id"`
	SubmissionLocale string    `json:"submission_locale" yaml:"submission_locale"`
	GenreID          int64     `json:"genre_id" yaml:"genre_id"`
	FileStage        FileStage `json:"file_stage" yaml:"file_stage"`

	// Path is the location of the file content in host storage.
	Path string `json:"path" yaml:"path"`

	OriginalFileName string `json:"original_file_name" yaml:"original_file_name"`

	// FileType is the declared MIME type.
	FileType string `json:"file_type" yaml:"file_type"`

	FileSize       int64     `json:"file_size" yaml:"file_size"`
	UploaderUserID int64     `json:"uploader_user_id" yaml:"uploader_user_id"`
	DateUploaded   time.Time `json:"date_uploaded" yaml:"date_uploaded"`
	DateModified   time.Time `json:"date_modified" yaml:"date_modified"`

	// SourceFileID and SourceRevision are zero for files that were not
	// derived from another file.
	SourceFileID   int64 `json:"source_file_id,omitempty" yaml:"source_file_id,omitempty"`
	SourceRevision int64 `json:"source_revision,omitempty" yaml:"source_revision,omitempty"`
}

// FileIDAndRevision renders the "<fileID>-<revision>" key the host uses to
// address a single file revision.
func (f SubmissionFile) FileIDAndRevision() string {
	return fmt.Sprintf("%d-%d", f.FileID, f.Revision)
}

// FileRef addresses a submission file from a trigger request. A zero
// Revision selects the latest revision.
type FileRef struct {
	SubmissionID int64 `json:"submissionId"`
	FileID       int64 `json:"fileId"`
	Revision     int64 `json:"revision,omitempty"`
	StageID      int64 `json:"stageId,omitempty"`
}

// User is the acting user of a conversion.
type User struct {
	ID   int64
	Name string
}

// ProcessResult is the success payload returned to the caller of a
// conversion.
type ProcessResult struct {
	Success      bool      `json:"success" yaml:"success"`
	SubmissionID int64     `json:"submissionId" yaml:"submission_id"`
	FileID       string    `json:"fileId" yaml:"file_id"`
	FileStage    FileStage `json:"fileStage" yaml:"file_stage"`
}
