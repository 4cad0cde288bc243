// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// FailureKind classifies why a conversion did not produce a file.
type FailureKind string

const (
	// FailureNone is reported for nil errors and errors outside the taxonomy.
	FailureNone FailureKind = ""

	FailureUnsupportedFileType FailureKind = "unsupported_file_type"
	FailureNetwork             FailureKind = "network"
	FailureInvalidXML          FailureKind = "invalid_xml"
	FailureStorage             FailureKind = "storage"
)

// ConversionError is a reported, recoverable conversion failure.
type ConversionError struct {
	Kind FailureKind
	Err  error
}

func (e *ConversionError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Fail wraps err as a ConversionError of the given kind.
func Fail(kind FailureKind, err error) error {
	return &ConversionError{Kind: kind, Err: err}
}

// KindOf returns the FailureKind carried by err, or FailureNone.
func KindOf(err error) FailureKind {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return FailureNone
}
