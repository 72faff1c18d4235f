package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jive/ledgerengine/internal/adapter/http/dto"
	"github.com/jive/ledgerengine/internal/adapter/http/middleware"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	printJSON(&buf, struct {
		A int `json:"a"`
	}{A: 1})

	expected := "{\n  \"a\": 1\n}\n"
	if buf.String() != expected {
		t.Fatalf("unexpected json output:\n%s", buf.String())
	}
}

func TestLedgerConsistency(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
		wantOut string
	}{
		{"consistent", http.StatusOK, `{"consistent":true,"drifts":[]}`, false, "PASSED"},
		{"drift", http.StatusConflict, `{"consistent":false,"drifts":[{"account_id":"acc-1"}]}`, true, "acc-1"},
		{"server error", http.StatusInternalServerError, `{"error":"failed to check consistency"}`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v1/ledger/consistency" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			out, _, err := execute(t, "--url", srv.URL, "ledger", "consistency")
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if !strings.Contains(out, tt.wantOut) {
				t.Fatalf("expected output to contain %q, got %q", tt.wantOut, out)
			}
		})
	}
}

func TestAccountReconcileSendsStatement(t *testing.T) {
	var (
		got dto.ReconcileRequest
		key string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/accounts/acc-1/reconcile" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		key = r.Header.Get(middleware.IdempotencyKeyHeader)
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"is_balanced":true}`))
	}))
	defer srv.Close()

	out, stderr, err := execute(t, "--url", srv.URL, "--idempotency-key", "stmt-2026-01",
		"account", "reconcile", "acc-1", "--balance", "40.00", "--date", "2026-01-31")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	if key != "stmt-2026-01" || !strings.Contains(stderr, "stmt-2026-01") {
		t.Fatalf("expected idempotency key to be sent and echoed, got %q / %q", key, stderr)
	}
	if got.StatementBalance != "40.00" || got.StatementDate == nil {
		t.Fatalf("unexpected request %+v", got)
	}
	if d := got.StatementDate.UTC(); d.Day() != 31 || d.Hour() != 23 {
		t.Fatalf("expected end of statement day, got %s", d)
	}
	if !strings.Contains(out, "is_balanced") {
		t.Fatalf("expected response to be printed, got %q", out)
	}
}

func TestTransactionSettleGeneratesKey(t *testing.T) {
	var key string
	var got dto.SettleTransactionsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get(middleware.IdempotencyKeyHeader)
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"count":2}`))
	}))
	defer srv.Close()

	if _, _, err := execute(t, "--url", srv.URL, "--idempotency-key", "", "transaction", "settle", "tx-1", "tx-2"); err != nil {
		t.Fatalf("command failed: %v", err)
	}

	if key == "" {
		t.Fatal("expected a generated idempotency key")
	}
	if len(got.TransactionIDs) != 2 || got.TransactionIDs[1] != "tx-2" {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestTransactionImportReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.json")
	rows := `[{"external_id":"ext-1","account_id":"acc-1","amount":"-10.00","name":"Rent"}]`
	if err := os.WriteFile(path, []byte(rows), 0o600); err != nil {
		t.Fatalf("write rows: %v", err)
	}

	var got dto.BulkImportRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"total":1,"succeeded":1}`))
	}))
	defer srv.Close()

	if _, _, err := execute(t, "--url", srv.URL, "transaction", "import", path, "--ledger", "ledger-1", "--on-conflict", "overwrite"); err != nil {
		t.Fatalf("command failed: %v", err)
	}

	if got.LedgerID != "ledger-1" || got.ConflictPolicy != "overwrite" || len(got.Items) != 1 || got.Items[0].ExternalID != "ext-1" {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestAPIErrorIncludesDetails(t *testing.T) {
	err := apiError(http.StatusUnprocessableEntity, []byte(`{"error":"failed to settle transactions","message":"invalid status transition"}`))
	if err == nil || !strings.Contains(err.Error(), "invalid status transition") {
		t.Fatalf("expected details in error, got %v", err)
	}

	err = apiError(http.StatusBadGateway, []byte("<html>bad gateway</html>"))
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestMigrateDownRejectsInvalidSteps(t *testing.T) {
	if _, _, err := execute(t, "migrate", "down", "zero"); err == nil {
		t.Fatal("expected an error for invalid steps")
	}
}
