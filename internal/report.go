package internal

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Format selects how the portal renders an export
type Format int

const (
	FormatCSV Format = iota + 1
	FormatExcel
	FormatPDF
)

// ExecutionMode is the portal's rendering pipeline for the format
func (f Format) ExecutionMode() int {
	switch f {
	case FormatCSV:
		return 4
	case FormatExcel:
		return 3
	case FormatPDF:
		return 2
	}
	return 0
}

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatExcel:
		return "excel"
	case FormatPDF:
		return "pdf"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Extension returns the usual file extension, without the dot
func (f Format) Extension() string {
	if f == FormatExcel {
		return "xlsx"
	}
	return f.String()
}

func (f Format) valid() bool {
	return f >= FormatCSV && f <= FormatPDF
}

// ParseFormat accepts "csv", "excel", "xlsx" and "pdf" in any case
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	}
	return 0, &ReportRequestError{Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)}
}

// FormatFromExtension derives the format from a file name
func FormatFromExtension(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" || strings.EqualFold(ext, "excel") {
		return 0, &ReportRequestError{Err: fmt.Errorf("%w: extension of %q", ErrUnsupportedFormat, path)}
	}
	if strings.EqualFold(ext, "xls") {
		return FormatExcel, nil
	}
	return ParseFormat(ext)
}

// ReportRequest describes one export. Build it with NewReportRequest.
type ReportRequest struct {
	reportID   string
	format     Format
	values     []string
	selections map[string]string
}

// RequestOption customizes a ReportRequest
type RequestOption func(*ReportRequest)

// WithValueAnswers sets the value prompt answers, in prompt order
func WithValueAnswers(answers ...string) RequestOption {
	return func(r *ReportRequest) {
		r.values = append([]string(nil), answers...)
	}
}

// WithSelectionAnswers sets element prompt answers keyed by prompt attribute id
func WithSelectionAnswers(answers map[string]string) RequestOption {
	return func(r *ReportRequest) {
		r.selections = make(map[string]string, len(answers))
		for k, v := range answers {
			r.selections[k] = v
		}
	}
}

// NewReportRequest validates and builds an immutable request
func NewReportRequest(reportID string, format Format, opts ...RequestOption) (*ReportRequest, error) {
	if strings.TrimSpace(reportID) == "" {
		return nil, &ReportRequestError{Err: fmt.Errorf("empty report id")}
	}
	if !format.valid() {
		return nil, &ReportRequestError{ReportID: reportID, Err: fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)}
	}

	req := &ReportRequest{reportID: reportID, format: format}
	for _, opt := range opts {
		opt(req)
	}
	return req, nil
}

func (r *ReportRequest) ReportID() string { return r.reportID }
func (r *ReportRequest) Format() Format   { return r.format }

// ValueAnswers returns a copy of the value prompt answers
func (r *ReportRequest) ValueAnswers() []string {
	return append([]string(nil), r.values...)
}

// SelectionAnswers returns a copy of the element prompt answers
func (r *ReportRequest) SelectionAnswers() map[string]string {
	out := make(map[string]string, len(r.selections))
	for k, v := range r.selections {
		out[k] = v
	}
	return out
}

// ReportPayload is the raw export as returned by the portal
type ReportPayload struct {
	Bytes  []byte
	Format Format
}

// BuildExportParams assembles the exportReport query. Prompt parameters are
// left out entirely when there are no answers.
func BuildExportParams(session *Session, req *ReportRequest) url.Values {
	params := url.Values{
		"taskId":       {TaskExport},
		"taskEnv":      {"juil_iframe"},
		"taskContent":  {"json"},
		"expandPageBy": {"True"},
		"reportID":     {req.reportID},
	}
	if session != nil {
		params.Set("sessionState", session.Token)
	}

	params.Set("executionMode", strconv.Itoa(req.format.ExecutionMode()))
	switch req.format {
	case FormatCSV:
		params.Set("plainTextDelimiter", ",")
	case FormatExcel:
		params.Set("excelVersion", "4")
	}

	if len(req.values) > 0 {
		params.Set("valuePromptAnswers", strings.Join(req.values, "^"))
	}
	if len(req.selections) > 0 {
		params.Set("elementsPromptAnswers", joinSelections(req.selections))
	}
	return params
}

func joinSelections(selections map[string]string) string {
	keys := make([]string, 0, len(selections))
	for k := range selections {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + ":" + selections[k]
	}
	return strings.Join(pairs, ";")
}

// ReportFetcher runs report exports over a live session
type ReportFetcher struct {
	portal *Portal
}

// NewReportFetcher creates a ReportFetcher bound to portal
func NewReportFetcher(portal *Portal) *ReportFetcher {
	return &ReportFetcher{portal: portal}
}

// Fetch exports the report. The session stays valid after a failure, so the
// call can be retried without logging in again.
func (f *ReportFetcher) Fetch(ctx context.Context, session *Session, req *ReportRequest) (*ReportPayload, error) {
	if req == nil {
		return nil, &ReportRequestError{Err: fmt.Errorf("nil report request")}
	}
	if !session.Valid() {
		return nil, &ReportRequestError{ReportID: req.reportID, Err: ErrNoSession}
	}

	params := BuildExportParams(session, req)
	LogDebug("Export request: %s", f.portal.redactedURL(params))

	resp, err := f.portal.do(ctx, params)
	if err != nil {
		return nil, &ReportRequestError{ReportID: req.reportID, Err: err}
	}
	if !resp.ok() {
		LogError("Report request failed: %s", resp.Status)
		return nil, &ReportRequestError{
			ReportID:   req.reportID,
			Status:     resp.Status,
			StatusCode: resp.StatusCode,
		}
	}

	LogInfo("Fetched report %s (%s, %d bytes)", req.reportID, req.format, len(resp.Body))
	return &ReportPayload{Bytes: resp.Body, Format: req.format}, nil
}
