package services

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySource is returned when a source has no header row
	ErrEmptySource = errors.New("empty file")

	// ErrRaggedRow is returned when a row's width differs from the header
	ErrRaggedRow = errors.New("row does not match header width")

	// ErrNoSources is returned when ingestion is requested without any source
	ErrNoSources = errors.New("no sources supplied")

	// ErrSessionNotFound is returned for unknown session ids
	ErrSessionNotFound = errors.New("session not found")
)

// SourceReadError reports that a source's raw content could not be read
type SourceReadError struct {
	Source string
	Err    error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Source, e.Err)
}

func (e *SourceReadError) Unwrap() error {
	return e.Err
}

// ParseError reports a structural failure while parsing a source table.
// Row is the 1-based line of the failure, or 0 when it applies to the whole source.
type ParseError struct {
	Source string
	Row    int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("failed to parse %s at row %d: %v", e.Source, e.Row, e.Err)
	}
	return fmt.Sprintf("failed to parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
