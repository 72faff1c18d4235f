package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/usecase"
)

type consistencyCheckerFunc func(ctx context.Context) (*usecase.ConsistencyReport, error)

func (f consistencyCheckerFunc) CheckConsistency(ctx context.Context) (*usecase.ConsistencyReport, error) {
	return f(ctx)
}

func TestLedgerHandler_CheckConsistency(t *testing.T) {
	tests := []struct {
		name     string
		report   *usecase.ConsistencyReport
		err      error
		expected int
	}{
		{
			name:     "consistent",
			report:   &usecase.ConsistencyReport{Consistent: true},
			expected: http.StatusOK,
		},
		{
			name: "drift",
			report: &usecase.ConsistencyReport{Drifts: []domain.AccountDrift{
				{AccountID: "acc-1", Balance: usd("10.00"), EntriesSum: usd("9.00")},
			}},
			err:      usecase.ErrInconsistentLedger,
			expected: http.StatusConflict,
		},
		{
			name:     "store failure",
			err:      errors.New("connection reset"),
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewLedgerHandler(consistencyCheckerFunc(func(ctx context.Context) (*usecase.ConsistencyReport, error) {
				return tt.report, tt.err
			}))

			rec := httptest.NewRecorder()
			handler.CheckConsistency(rec, httptest.NewRequest(http.MethodGet, "/ledger/consistency", nil))

			if rec.Code != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, rec.Code)
			}
			if tt.report == nil {
				return
			}

			var report usecase.ConsistencyReport
			if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if report.Consistent != tt.report.Consistent || len(report.Drifts) != len(tt.report.Drifts) {
				t.Fatalf("unexpected report %+v", report)
			}
		})
	}
}
