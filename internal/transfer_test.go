package internal

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/iksnae/tesouro-gerencial/testutil"
)

func newTestRunner(t *testing.T, portal *testutil.FakePortal, store DocumentStore) *Runner {
	t.Helper()
	runner := NewRunner(newTestClient(t, portal), StaticCredentials{"siafi": testCredentials}, store)
	runner.Now = func() time.Time { return time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC) }
	return runner
}

func TestParseValueAnswers(t *testing.T) {
	tests := []struct {
		raw     string
		want    []string
		wantErr bool
	}{
		{raw: "", want: nil},
		{raw: `["A","B"]`, want: []string{"A", "B"}},
		{raw: `[2024, 12.5, null, true]`, want: []string{"2024", "12.5", "", "true"}},
		{raw: `"A"`, wantErr: true},
		{raw: `[`, wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseValueAnswers(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseValueAnswers(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseValueAnswers(%q) = %#v, want %#v", tt.raw, got, tt.want)
		}
	}
}

func TestReportToFile_Execute(t *testing.T) {
	portal := testutil.NewFakePortal(t, testCredentials.Identity, testCredentials.Secret)
	portal.SetReport([]byte("%PDF-1.4 report"))
	runner := newTestRunner(t, portal, nil)

	path := filepath.Join(t.TempDir(), "saida", "relatorio.pdf")
	transfer := &ReportToFile{
		Account:  "siafi",
		ReportID: "ABC123",
		Path:     path,
		Answers:  PromptAnswers{Values: []string{"2024"}},
	}

	result, err := transfer.Execute(context.Background(), runner)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report file not written: %v", err)
	}
	if string(data) != "%PDF-1.4 report" {
		t.Errorf("file content = %q", data)
	}
	if result.Path != path || result.Size != len(data) || result.Format != FormatPDF {
		t.Errorf("result = %+v", result)
	}
	if result.HumanSize != "15 B" {
		t.Errorf("HumanSize = %q, want %q", result.HumanSize, "15 B")
	}

	exports := portal.Requests(TaskExport)
	if len(exports) != 1 || exports[0].Get("executionMode") != "2" || exports[0].Get("valuePromptAnswers") != "2024" {
		t.Errorf("export requests = %v", exports)
	}
	if portal.ActiveSessions() != 0 {
		t.Errorf("active sessions = %d, want 0", portal.ActiveSessions())
	}
}

func TestReportToFile_UnknownExtensionFallsBackToCSV(t *testing.T) {
	portal := testutil.NewFakePortal(t, testCredentials.Identity, testCredentials.Secret)
	portal.SetReport([]byte("csv bytes"))
	runner := newTestRunner(t, portal, nil)

	path := filepath.Join(t.TempDir(), "relatorio.dat")
	result, err := (&ReportToFile{Account: "siafi", ReportID: "ABC", Path: path}).Execute(context.Background(), runner)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Format != FormatCSV {
		t.Errorf("Format = %v, want csv", result.Format)
	}
	if got := portal.Requests(TaskExport)[0].Get("executionMode"); got != "4" {
		t.Errorf("executionMode = %q, want 4", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file should keep its requested name: %v", err)
	}
}

func TestReportToFile_Failures(t *testing.T) {
	portal := testutil.NewFakePortal(t, testCredentials.Identity, testCredentials.Secret)
	portal.SetExportStatus(http.StatusNotFound)
	runner := newTestRunner(t, portal, nil)
	path := filepath.Join(t.TempDir(), "relatorio.csv")

	_, err := (&ReportToFile{Account: "siafi", ReportID: "ABC", Path: path}).Execute(context.Background(), runner)
	var reqErr *ReportRequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode != http.StatusNotFound {
		t.Errorf("Execute() error = %v, want 404 ReportRequestError", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("no file should be written for a failed export")
	}
	if portal.ActiveSessions() != 0 {
		t.Errorf("session should be closed after a failed export, %d active", portal.ActiveSessions())
	}

	_, err = (&ReportToFile{Account: "desconhecida", ReportID: "ABC", Path: path}).Execute(context.Background(), runner)
	if !errors.Is(err, ErrUnknownAccount) {
		t.Errorf("Execute() error = %v, want ErrUnknownAccount", err)
	}
	if len(portal.Requests(TaskLogin)) != 1 {
		t.Error("an unknown account should not reach the portal")
	}
}

func TestReportToDocumentStore_Execute(t *testing.T) {
	portal := testutil.NewFakePortal(t, testCredentials.Identity, testCredentials.Secret)
	portal.SetReport(testutil.XLSXFromGrid(t, testutil.SampleGrid()))
	store := newMemoryStore(t)
	runner := newTestRunner(t, portal, store)
	ctx := context.Background()

	if _, err := store.InsertMany(ctx, "despesas", []map[string]interface{}{{"old": "row"}}); err != nil {
		t.Fatalf("seed InsertMany() error = %v", err)
	}

	transfer := &ReportToDocumentStore{
		Account:    "siafi",
		ReportID:   "ABC123",
		Collection: "despesas",
		Truncate:   true,
		Answers:    PromptAnswers{Selections: map[string]string{"262144037": "1048576"}},
	}
	result, err := transfer.Execute(ctx, runner)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Inserted != 3 {
		t.Errorf("Inserted = %d, want 3", result.Inserted)
	}
	if !result.Timestamp.Equal(runner.Now()) {
		t.Errorf("Timestamp = %v", result.Timestamp)
	}

	exports := portal.Requests(TaskExport)
	if exports[0].Get("executionMode") != "3" || exports[0].Get("elementsPromptAnswers") != "262144037:1048576" {
		t.Errorf("export query = %v", exports[0])
	}

	docs, err := store.LoadDocuments(ctx, "despesas")
	if err != nil {
		t.Fatalf("LoadDocuments() error = %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("documents = %d, want 3 (old rows truncated)", len(docs))
	}
	for _, doc := range docs {
		if doc[TimestampColumn] != "2024-02-01T10:00:00Z" {
			t.Errorf("timestamp = %v", doc[TimestampColumn])
		}
		if doc[MetadataColumn] != "Execução Orçamentária\nExercício: 2024\nEmitido em 01/02/2024" {
			t.Errorf("metadata = %v", doc[MetadataColumn])
		}
	}
	if docs[1]["Órgão - Nome"] != "Comando do Exército" {
		t.Errorf("second document = %v", docs[1])
	}
}

func TestReportToDocumentStore_AppendsWithoutTruncate(t *testing.T) {
	portal := testutil.NewFakePortal(t, testCredentials.Identity, testCredentials.Secret)
	portal.SetReport(testutil.XLSXFromGrid(t, testutil.SampleGrid()))
	store := newMemoryStore(t)
	runner := newTestRunner(t, portal, store)
	ctx := context.Background()

	transfer := &ReportToDocumentStore{Account: "siafi", ReportID: "ABC", Collection: "despesas"}
	for i := 0; i < 2; i++ {
		if _, err := transfer.Execute(ctx, runner); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	}

	docs, _ := store.LoadDocuments(ctx, "despesas")
	if len(docs) != 6 {
		t.Errorf("documents = %d, want 6", len(docs))
	}
}

func TestReportToDocumentStore_Failures(t *testing.T) {
	portal := testutil.NewFakePortal(t, testCredentials.Identity, testCredentials.Secret)
	portal.SetReport([]byte("not a workbook"))
	store := newMemoryStore(t)
	ctx := context.Background()

	_, err := (&ReportToDocumentStore{Account: "siafi", ReportID: "ABC", Collection: "c"}).Execute(ctx, newTestRunner(t, portal, nil))
	if err == nil {
		t.Error("Execute() without a store should fail")
	}

	_, err = (&ReportToDocumentStore{Account: "siafi", ReportID: "ABC"}).Execute(ctx, newTestRunner(t, portal, store))
	if err == nil {
		t.Error("Execute() without a collection should fail")
	}

	_, err = (&ReportToDocumentStore{Account: "siafi", ReportID: "ABC", Collection: "c", Truncate: true}).Execute(ctx, newTestRunner(t, portal, store))
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) || decodeErr.Stage != StageGridParse {
		t.Errorf("Execute() error = %v, want grid-parse DecodeError", err)
	}
	if portal.ActiveSessions() != 0 {
		t.Errorf("active sessions = %d, want 0", portal.ActiveSessions())
	}
}

func TestClient_FetchTableIsDeterministic(t *testing.T) {
	portal := testutil.NewFakePortal(t, testCredentials.Identity, testCredentials.Secret)
	portal.SetReport(testutil.UTF16(t, testutil.SampleCSV))
	client := newTestClient(t, portal)
	ctx := context.Background()
	req, _ := NewReportRequest("ABC", FormatCSV)

	first, err := client.FetchTable(ctx, testCredentials, req)
	if err != nil {
		t.Fatalf("FetchTable() error = %v", err)
	}
	second, err := client.FetchTable(ctx, testCredentials, req)
	if err != nil {
		t.Fatalf("FetchTable() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("FetchTable() results differ:\n%+v\n%+v", first, second)
	}
	if portal.ActiveSessions() != 0 {
		t.Errorf("active sessions = %d, want 0", portal.ActiveSessions())
	}
	if len(portal.Requests(TaskLogin)) != 2 || len(portal.Requests(TaskLogout)) != 2 {
		t.Error("each fetch should use its own session")
	}
}

func TestClient_FetchReportLoginFailure(t *testing.T) {
	portal := testutil.NewFakePortal(t, testCredentials.Identity, testCredentials.Secret)
	client := newTestClient(t, portal)
	req, _ := NewReportRequest("ABC", FormatCSV)

	_, err := client.FetchReport(context.Background(), Credentials{Identity: "x", Secret: "y"}, req)
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		t.Errorf("FetchReport() error = %v, want *AuthenticationError", err)
	}
	if len(portal.Requests(TaskExport)) != 0 || len(portal.Requests(TaskLogout)) != 0 {
		t.Error("nothing should follow a failed login")
	}
}
