package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"kantong/internal/core"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{CredentialsJSON: "{}"})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := credentials(context.Background(), Config{CredentialsFile: path})
	if err != nil || string(got) != `{"type":"service_account"}` {
		t.Fatalf("file credentials: %q %v", got, err)
	}

	got, err = credentials(context.Background(), Config{CredentialsJSON: `{"inline":true}`, CredentialsFile: path})
	if err != nil || string(got) != `{"inline":true}` {
		t.Fatalf("inline credentials should win: %q %v", got, err)
	}

	if _, err := credentials(context.Background(), Config{CredentialsFile: filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestColumnName(t *testing.T) {
	tests := map[int]string{1: "A", 15: "O", 26: "Z", 27: "AA", 52: "AZ", 53: "BA"}
	for n, want := range tests {
		if got := columnName(n); got != want {
			t.Errorf("columnName(%d) = %q, want %q", n, got, want)
		}
	}
}

// fakeSheets records the calls the client makes against the Sheets REST API.
type fakeSheets struct {
	mu       sync.Mutex
	requests []string
	bodies   []gsheet.ValueRange
	header   bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)

	if r.Body != nil {
		b, _ := io.ReadAll(r.Body)
		if len(b) > 0 {
			var vr gsheet.ValueRange
			_ = json.Unmarshal(b, &vr)
			f.bodies = append(f.bodies, vr)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet:
		values := [][]any{}
		if f.header {
			values = [][]any{{"Budget ID"}}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"values": values})
	case strings.HasSuffix(r.URL.Path, ":append"):
		_ = json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": "Summary!A2:O2"},
		})
	default:
		_ = json.NewEncoder(w).Encode(map[string]any{})
	}
}

func newFakeClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewWithService(svc, "sheet-1", "")
}

func TestExportSummary(t *testing.T) {
	f := &fakeSheets{}
	c := newFakeClient(t, f)

	b := core.Budget{ID: "b1", UserID: "u1", Month: 2, Year: 2025}
	b.Apply(decimal.NewFromInt(2000), core.DefaultPercentages)
	ref, err := c.ExportSummary(context.Background(), core.ReconcileBudget(b, nil))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if ref != "Summary!A2:O2" {
		t.Errorf("ref = %q", ref)
	}

	if len(f.requests) != 1 || !strings.Contains(f.requests[0], "/v4/spreadsheets/sheet-1/values/Summary!A:O:append") {
		t.Fatalf("unexpected requests %v", f.requests)
	}
	if !strings.Contains(f.requests[0], "valueInputOption=USER_ENTERED") {
		t.Errorf("expected USER_ENTERED input, got %s", f.requests[0])
	}
	row := f.bodies[0].Values[0]
	if row[0] != "b1" || row[4] != "2000.00" || row[13] != "on_track" {
		t.Errorf("unexpected row %v", row)
	}
}

func TestEnsureHeader(t *testing.T) {
	f := &fakeSheets{}
	c := newFakeClient(t, f)
	if err := c.EnsureHeader(context.Background()); err != nil {
		t.Fatalf("ensure header: %v", err)
	}
	if len(f.requests) != 2 || !strings.HasPrefix(f.requests[1], http.MethodPut) {
		t.Fatalf("expected read then write, got %v", f.requests)
	}

	f = &fakeSheets{header: true}
	c = newFakeClient(t, f)
	if err := c.EnsureHeader(context.Background()); err != nil {
		t.Fatalf("ensure header: %v", err)
	}
	if len(f.requests) != 1 {
		t.Errorf("existing header must not be rewritten, got %v", f.requests)
	}
}

func TestExportSummary_NotInitialized(t *testing.T) {
	c := &Client{sheetName: "Summary"}
	if _, err := c.ExportSummary(context.Background(), core.BudgetSummary{}); err == nil {
		t.Fatal("expected error without a service")
	}
}
