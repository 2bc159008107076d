package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned when a report operation runs without a live session
	ErrNoSession = errors.New("no active session")

	// ErrUnsupportedFormat is returned for report formats other than csv, excel and pdf
	ErrUnsupportedFormat = errors.New("unsupported report format")

	// ErrMissingPreamble is returned when a CSV export has no blank-line separated banner
	ErrMissingPreamble = errors.New("missing preamble before CSV body")

	// ErrNoHeaderRow is returned when no blank row precedes the header band
	ErrNoHeaderRow = errors.New("no blank row found before header")

	// ErrUnknownAccount is returned when an account has no stored credentials
	ErrUnknownAccount = errors.New("unknown account")
)

// Decode stages reported by DecodeError
const (
	StageSelect          = "decode-select"
	StageTextDecode      = "text-decode"
	StageGridParse       = "grid-parse"
	StageHeaderDetection = "header-detection"
)

// AuthenticationError represents a rejected or malformed login
type AuthenticationError struct {
	Status string // HTTP status line, empty when the request never completed
	Body   string // raw response body
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication error [%s]: %v: %s", e.Status, e.Err, e.Body)
	}
	return fmt.Sprintf("authentication error [%s]: no session returned: %s", e.Status, e.Body)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// ReportRequestError represents a failed report export request
type ReportRequestError struct {
	ReportID   string
	Status     string
	StatusCode int
	Err        error
}

func (e *ReportRequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("report request error [%s]: %v", e.ReportID, e.Err)
	}
	return fmt.Sprintf("report request error [%s]: %s", e.ReportID, e.Status)
}

func (e *ReportRequestError) Unwrap() error {
	return e.Err
}

// DecodeError represents a failure turning an export into a table
type DecodeError struct {
	Stage string // see Stage* constants
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error [%s]: %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// StoreError represents errors writing to a document store
type StoreError struct {
	Op         string // "connect", "truncate", "insert"
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
