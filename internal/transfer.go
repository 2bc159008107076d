package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// Fetcher exports a report over a live session
type Fetcher interface {
	Fetch(ctx context.Context, session *Session, req *ReportRequest) (*ReportPayload, error)
}

// Runner holds the collaborators the transfers need
type Runner struct {
	Sessions    SessionProvider
	Reports     Fetcher
	Credentials CredentialStore
	Store       DocumentStore
	Now         func() time.Time
}

// NewRunner wires a Runner to client. Store may be nil for file transfers.
func NewRunner(client *Client, creds CredentialStore, store DocumentStore) *Runner {
	return &Runner{
		Sessions:    client.Sessions,
		Reports:     client.Reports,
		Credentials: creds,
		Store:       store,
		Now:         time.Now,
	}
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// fetch resolves the account and runs one export inside a session. onLogin
// runs right after the session is acquired.
func (r *Runner) fetch(ctx context.Context, account string, req *ReportRequest, onLogin func()) (*ReportPayload, error) {
	if r.Credentials == nil {
		return nil, errors.New("no credential store configured")
	}
	creds, err := r.Credentials.Resolve(account)
	if err != nil {
		return nil, err
	}

	var payload *ReportPayload
	err = WithSession(ctx, r.Sessions, creds, func(s *Session) error {
		if onLogin != nil {
			onLogin()
		}
		var err error
		payload, err = r.Reports.Fetch(ctx, s, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// PromptAnswers are the prompt answers shared by both transfers
type PromptAnswers struct {
	Values     []string
	Selections map[string]string
}

func (p PromptAnswers) options() []RequestOption {
	var opts []RequestOption
	if len(p.Values) > 0 {
		opts = append(opts, WithValueAnswers(p.Values...))
	}
	if len(p.Selections) > 0 {
		opts = append(opts, WithSelectionAnswers(p.Selections))
	}
	return opts
}

// ParseValueAnswers decodes value prompt answers passed as a JSON list, the
// form templated job parameters arrive in. Numbers keep their shortest form.
func ParseValueAnswers(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var items []interface{}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("prompt answers must be a JSON list: %w", err)
	}

	answers := make([]string, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case string:
			answers[i] = v
		case float64:
			answers[i] = strconv.FormatFloat(v, 'f', -1, 64)
		case nil:
			answers[i] = ""
		default:
			answers[i] = fmt.Sprint(v)
		}
	}
	return answers, nil
}

// ReportToFile downloads a report into a local file. The file extension
// picks the export format.
type ReportToFile struct {
	Account  string
	ReportID string
	Path     string
	Answers  PromptAnswers
}

// FileResult describes the written file
type FileResult struct {
	Path      string
	Size      int
	HumanSize string
	Format    Format
}

// Execute runs the transfer. An unrecognized extension is exported as CSV
// under the requested name.
func (t *ReportToFile) Execute(ctx context.Context, r *Runner) (*FileResult, error) {
	format, err := FormatFromExtension(t.Path)
	if err != nil {
		LogWarn("Invalid extension %q, saving report as CSV without renaming the file", filepath.Ext(t.Path))
		format = FormatCSV
	}

	req, err := NewReportRequest(t.ReportID, format, t.Answers.options()...)
	if err != nil {
		return nil, err
	}

	payload, err := r.fetch(ctx, t.Account, req, nil)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(t.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &ExportError{Format: format.String(), Path: t.Path, Err: err}
		}
	}
	if err := os.WriteFile(t.Path, payload.Bytes, 0644); err != nil {
		return nil, &ExportError{Format: format.String(), Path: t.Path, Err: err}
	}

	abs, err := filepath.Abs(t.Path)
	if err != nil {
		abs = t.Path
	}

	return &FileResult{
		Path:      abs,
		Size:      len(payload.Bytes),
		HumanSize: humanize.Bytes(uint64(len(payload.Bytes))),
		Format:    format,
	}, nil
}

// ReportToDocumentStore loads a report's rows into a document collection
type ReportToDocumentStore struct {
	Account    string
	ReportID   string
	Collection string
	Truncate   bool
	Answers    PromptAnswers
}

// LoadResult describes a finished load
type LoadResult struct {
	Collection string
	Inserted   int
	Timestamp  time.Time
}

// Execute fetches the report as a spreadsheet, normalizes it and inserts
// one document per data row. Every document carries the same timestamp,
// taken when the session was opened.
func (t *ReportToDocumentStore) Execute(ctx context.Context, r *Runner) (*LoadResult, error) {
	if r.Store == nil {
		return nil, errors.New("no document store configured")
	}
	if t.Collection == "" {
		return nil, errors.New("collection name is required")
	}

	req, err := NewReportRequest(t.ReportID, FormatExcel, t.Answers.options()...)
	if err != nil {
		return nil, err
	}

	var instant time.Time
	payload, err := r.fetch(ctx, t.Account, req, func() { instant = r.now() })
	if err != nil {
		return nil, err
	}

	table, err := Normalize(payload)
	if err != nil {
		return nil, err
	}

	if t.Truncate {
		if err := r.Store.Truncate(ctx, t.Collection); err != nil {
			return nil, err
		}
	}

	inserted, err := r.Store.InsertMany(ctx, t.Collection, table.Documents(instant))
	if err != nil {
		return nil, err
	}

	LogInfo("Inserted %d record(s) into %s", inserted, t.Collection)
	return &LoadResult{Collection: t.Collection, Inserted: inserted, Timestamp: instant}, nil
}
