package internal

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/iksnae/tesouro-gerencial/testutil"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "csv", want: FormatCSV},
		{in: "CSV", want: FormatCSV},
		{in: "excel", want: FormatExcel},
		{in: "xlsx", want: FormatExcel},
		{in: "pdf", want: FormatPDF},
		{in: "xls", wantErr: true},
		{in: "txt", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			var reqErr *ReportRequestError
			if !errors.As(err, &reqErr) || !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("ParseFormat(%q) error = %v, want ErrUnsupportedFormat", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestFormatFromExtension(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "out/relatorio.csv", want: FormatCSV},
		{path: "relatorio.xlsx", want: FormatExcel},
		{path: "relatorio.xls", want: FormatExcel},
		{path: "RELATORIO.XLS", want: FormatExcel},
		{path: "relatorio.PDF", want: FormatPDF},
		{path: "relatorio.txt", wantErr: true},
		{path: "relatorio", wantErr: true},
		{path: "relatorio.excel", wantErr: true},
	}

	for _, tt := range tests {
		got, err := FormatFromExtension(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("FormatFromExtension(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("FormatFromExtension(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestNewReportRequest_Validation(t *testing.T) {
	if _, err := NewReportRequest("", FormatCSV); err == nil {
		t.Error("NewReportRequest() should reject an empty report id")
	}
	if _, err := NewReportRequest("ABC", Format(42)); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("NewReportRequest() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestNewReportRequest_Immutable(t *testing.T) {
	values := []string{"A", "B"}
	selections := map[string]string{"1": "2"}
	req, err := NewReportRequest("ABC", FormatCSV, WithValueAnswers(values...), WithSelectionAnswers(selections))
	if err != nil {
		t.Fatalf("NewReportRequest() error = %v", err)
	}

	values[0] = "changed"
	selections["1"] = "changed"
	req.ValueAnswers()[1] = "changed"

	if got := req.ValueAnswers(); got[0] != "A" || got[1] != "B" {
		t.Errorf("ValueAnswers() = %v, request should not alias caller slices", got)
	}
	if got := req.SelectionAnswers()["1"]; got != "2" {
		t.Errorf("SelectionAnswers()[1] = %q, request should not alias caller maps", got)
	}
}

func TestBuildExportParams_Formats(t *testing.T) {
	session := &Session{Token: "tok"}

	tests := []struct {
		format Format
		want   map[string]string
		absent []string
	}{
		{
			format: FormatCSV,
			want:   map[string]string{"executionMode": "4", "plainTextDelimiter": ","},
			absent: []string{"excelVersion"},
		},
		{
			format: FormatExcel,
			want:   map[string]string{"executionMode": "3", "excelVersion": "4"},
			absent: []string{"plainTextDelimiter"},
		},
		{
			format: FormatPDF,
			want:   map[string]string{"executionMode": "2"},
			absent: []string{"plainTextDelimiter", "excelVersion"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			req, err := NewReportRequest("ABC123", tt.format)
			if err != nil {
				t.Fatalf("NewReportRequest() error = %v", err)
			}
			params := BuildExportParams(session, req)

			common := map[string]string{
				"taskId":       TaskExport,
				"taskEnv":      "juil_iframe",
				"taskContent":  "json",
				"sessionState": "tok",
				"reportID":     "ABC123",
			}
			for k, v := range common {
				if got := params.Get(k); got != v {
					t.Errorf("%s = %q, want %q", k, got, v)
				}
			}
			for k, v := range tt.want {
				if got := params.Get(k); got != v {
					t.Errorf("%s = %q, want %q", k, got, v)
				}
			}
			for _, k := range append(tt.absent, "valuePromptAnswers", "elementsPromptAnswers") {
				if params.Has(k) {
					t.Errorf("%s should not be present", k)
				}
			}
		})
	}
}

func TestBuildExportParams_PromptAnswers(t *testing.T) {
	session := &Session{Token: "tok"}

	tests := []struct {
		name         string
		opts         []RequestOption
		wantValues   string
		wantElements string
	}{
		{
			name:       "value answers only",
			opts:       []RequestOption{WithValueAnswers("A", "B")},
			wantValues: "A^B",
		},
		{
			name:         "selection answers only",
			opts:         []RequestOption{WithSelectionAnswers(map[string]string{"262144037": "1048576"})},
			wantElements: "262144037:1048576",
		},
		{
			name: "both",
			opts: []RequestOption{
				WithValueAnswers("2024"),
				WithSelectionAnswers(map[string]string{"b": "2", "a": "1"}),
			},
			wantValues:   "2024",
			wantElements: "a:1;b:2",
		},
		{
			name: "empty answers",
			opts: []RequestOption{WithValueAnswers(), WithSelectionAnswers(map[string]string{})},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewReportRequest("ABC", FormatCSV, tt.opts...)
			if err != nil {
				t.Fatalf("NewReportRequest() error = %v", err)
			}
			params := BuildExportParams(session, req)

			if tt.wantValues == "" {
				if params.Has("valuePromptAnswers") {
					t.Errorf("valuePromptAnswers should be absent, got %q", params.Get("valuePromptAnswers"))
				}
			} else if got := params.Get("valuePromptAnswers"); got != tt.wantValues {
				t.Errorf("valuePromptAnswers = %q, want %q", got, tt.wantValues)
			}

			if tt.wantElements == "" {
				if params.Has("elementsPromptAnswers") {
					t.Errorf("elementsPromptAnswers should be absent, got %q", params.Get("elementsPromptAnswers"))
				}
			} else if got := params.Get("elementsPromptAnswers"); got != tt.wantElements {
				t.Errorf("elementsPromptAnswers = %q, want %q", got, tt.wantElements)
			}
		})
	}
}

func TestReportFetcher_Fetch(t *testing.T) {
	portal := testutil.NewFakePortal(t, testCredentials.Identity, testCredentials.Secret)
	portal.SetReport([]byte("%PDF-1.4 fake"))
	client := newTestClient(t, portal)
	ctx := context.Background()

	session, err := client.Sessions.Login(ctx, testCredentials)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	defer client.Sessions.Logout(ctx, session)

	req, _ := NewReportRequest("ABC123", FormatPDF, WithValueAnswers("2024", "12"))
	payload, err := client.Reports.Fetch(ctx, session, req)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(payload.Bytes) != "%PDF-1.4 fake" || payload.Format != FormatPDF {
		t.Errorf("Fetch() payload = %q (%v)", payload.Bytes, payload.Format)
	}

	exports := portal.Requests(TaskExport)
	if len(exports) != 1 {
		t.Fatalf("export requests = %d, want 1", len(exports))
	}
	if got := exports[0].Get("valuePromptAnswers"); got != "2024^12" {
		t.Errorf("valuePromptAnswers on the wire = %q", got)
	}
	if got := exports[0].Get("sessionState"); got != session.Token {
		t.Errorf("sessionState on the wire = %q", got)
	}
}

func TestReportFetcher_FetchErrors(t *testing.T) {
	portal := testutil.NewFakePortal(t, testCredentials.Identity, testCredentials.Secret)
	client := newTestClient(t, portal)
	ctx := context.Background()
	req, _ := NewReportRequest("ABC123", FormatCSV)

	_, err := client.Reports.Fetch(ctx, nil, req)
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("Fetch(nil session) error = %v, want ErrNoSession", err)
	}
	_, err = client.Reports.Fetch(ctx, &Session{}, req)
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("Fetch(empty token) error = %v, want ErrNoSession", err)
	}
	if len(portal.Requests(TaskExport)) != 0 {
		t.Error("no export should be sent without a session")
	}

	session, err := client.Sessions.Login(ctx, testCredentials)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	defer client.Sessions.Logout(ctx, session)

	portal.SetExportStatus(http.StatusServiceUnavailable)
	payload, err := client.Reports.Fetch(ctx, session, req)
	if payload != nil {
		t.Error("Fetch() should not return a payload on failure")
	}
	var reqErr *ReportRequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("Fetch() error = %v, want *ReportRequestError", err)
	}
	if reqErr.StatusCode != http.StatusServiceUnavailable || reqErr.Status != "503 Service Unavailable" {
		t.Errorf("ReportRequestError = %+v", reqErr)
	}

	// the session is still good for a retry
	portal.SetExportStatus(http.StatusOK)
	portal.SetReport([]byte("ok"))
	if _, err := client.Reports.Fetch(ctx, session, req); err != nil {
		t.Errorf("retry Fetch() error = %v", err)
	}
}

func TestPortal_RedactedURL(t *testing.T) {
	portal, err := NewPortal(Config{BaseURL: "https://portal.example", Timeout: DefaultTimeout})
	if err != nil {
		t.Fatalf("NewPortal() error = %v", err)
	}
	if got := portal.Endpoint(); got != "https://portal.example/tg/servlet/taskAdmin" {
		t.Errorf("Endpoint() = %q", got)
	}

	req, _ := NewReportRequest("ABC", FormatCSV)
	logged := portal.redactedURL(BuildExportParams(&Session{Token: "secret-token"}, req))
	if strings.Contains(logged, "secret-token") || !strings.Contains(logged, "sessionState=REDACTED") {
		t.Errorf("redacted URL leaks the session token: %s", logged)
	}
}

func TestNewPortal_InvalidBaseURL(t *testing.T) {
	for _, base := range []string{"", "portal.example", "://bad"} {
		if _, err := NewPortal(Config{BaseURL: base}); err == nil {
			t.Errorf("NewPortal(%q) should fail", base)
		}
	}
}
