package dto

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/usecase"
)

func TestCreateAccountRequest_ToUseCaseInput(t *testing.T) {
	req := &CreateAccountRequest{
		LedgerID: "ledger-1",
		Name:     "Main",
		Kind:     "checking",
		Currency: "USD",
	}

	got := req.ToUseCaseInput()
	want := usecase.CreateAccountInput{
		LedgerID: "ledger-1",
		Name:     "Main",
		Kind:     "checking",
		Currency: "USD",
	}

	if got != want {
		t.Fatalf("ToUseCaseInput() = %+v, want %+v", got, want)
	}
}

func TestCreateTransactionRequest_ToCommand(t *testing.T) {
	date := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		request     *CreateTransactionRequest
		wantAmount  string
		wantDate    time.Time
		expectError bool
	}{
		{
			name:       "signed amount with date",
			request:    &CreateTransactionRequest{AccountID: "acc-1", Amount: "-12.34", Date: &date, Name: "Coffee"},
			wantAmount: "-12.34",
			wantDate:   date,
		},
		{
			name:       "missing date stays zero",
			request:    &CreateTransactionRequest{AccountID: "acc-1", Amount: " 5 "},
			wantAmount: "5",
		},
		{
			name:        "invalid amount",
			request:     &CreateTransactionRequest{Amount: "bad"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.request.ToCommand("req-1")

			if tt.expectError {
				if !errors.Is(err, domain.ErrInvalidAmount) {
					t.Fatalf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.RequestID != "req-1" {
				t.Fatalf("expected request id to be carried, got %q", got.RequestID)
			}
			if !got.Amount.Equal(decimal.RequireFromString(tt.wantAmount)) {
				t.Fatalf("expected amount %s, got %s", tt.wantAmount, got.Amount)
			}
			if !got.Date.Equal(tt.wantDate) {
				t.Fatalf("expected date %v, got %v", tt.wantDate, got.Date)
			}
		})
	}
}

func TestUpdateTransactionRequest_ToCommand(t *testing.T) {
	name := "Groceries"
	amount := "-80.00"
	req := &UpdateTransactionRequest{Name: &name, Amount: &amount}

	cmd, err := req.ToCommand("req-1", "tx-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cmd.TransactionID != "tx-1" || cmd.Patch.Name == nil || *cmd.Patch.Name != "Groceries" {
		t.Fatalf("unexpected command %+v", cmd)
	}
	if cmd.Patch.Amount == nil || cmd.Patch.Amount.String() != "-80" {
		t.Fatalf("expected amount patch, got %v", cmd.Patch.Amount)
	}
	if cmd.Patch.Notes != nil || cmd.Patch.Tags != nil {
		t.Fatalf("expected absent fields to stay nil, got %+v", cmd.Patch)
	}

	bad := "eighty"
	if _, err := (&UpdateTransactionRequest{Amount: &bad}).ToCommand("req-1", "tx-1"); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestCreateTransferRequest_ToCommand(t *testing.T) {
	rate := "0.92"
	req := &CreateTransferRequest{
		SourceAccountID: "acc-usd",
		DestAccountID:   "acc-eur",
		Amount:          "100.00",
		Fx:              &FxRequest{Rate: &rate, Source: "manual"},
	}

	cmd, err := req.ToCommand("req-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cmd.Fx == nil || cmd.Fx.Rate == nil || cmd.Fx.Rate.String() != "0.92" || cmd.Fx.Source != "manual" {
		t.Fatalf("expected fx spec to be converted, got %+v", cmd.Fx)
	}

	noFx, err := (&CreateTransferRequest{Amount: "1"}).ToCommand("req-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if noFx.Fx != nil {
		t.Fatalf("expected nil fx spec, got %+v", noFx.Fx)
	}

	badRate := "lots"
	req.Fx.Rate = &badRate
	if _, err := req.ToCommand("req-3"); !errors.Is(err, domain.ErrInvalidFxSpec) {
		t.Fatalf("expected ErrInvalidFxSpec, got %v", err)
	}
}

func TestSplitTransactionRequest_ToCommand(t *testing.T) {
	pct := "60"
	req := &SplitTransactionRequest{Splits: []SplitItem{
		{Description: "Food", Amount: "60.00", Percentage: &pct, CategoryID: "cat-food"},
		{Amount: "40.00"},
	}}

	cmd, err := req.ToCommand("req-1", "tx-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cmd.Splits) != 2 {
		t.Fatalf("expected 2 splits, got %d", len(cmd.Splits))
	}
	if cmd.Splits[0].Percentage == nil || cmd.Splits[0].Percentage.String() != "60" {
		t.Fatalf("expected percentage to be parsed, got %v", cmd.Splits[0].Percentage)
	}
	if cmd.Splits[1].Percentage != nil {
		t.Fatalf("expected nil percentage, got %v", cmd.Splits[1].Percentage)
	}

	req.Splits[1].Amount = "forty"
	if _, err := req.ToCommand("req-1", "tx-1"); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestBulkImportRequest_ToCommand(t *testing.T) {
	req := &BulkImportRequest{
		LedgerID:       "ledger-1",
		ConflictPolicy: "overwrite",
		Items: []ImportItemRequest{
			{ExternalID: "ext-1", AccountID: "acc-1", Amount: "-10.00"},
			{ExternalID: "ext-2", AccountID: "acc-1", Amount: "garbage"},
		},
	}

	cmd := req.ToCommand("req-1")

	if cmd.ConflictPolicy != usecase.ConflictOverwrite {
		t.Fatalf("expected overwrite policy, got %q", cmd.ConflictPolicy)
	}
	if len(cmd.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(cmd.Items))
	}
	if cmd.Items[0].Amount.String() != "-10" {
		t.Fatalf("expected parsed amount, got %s", cmd.Items[0].Amount)
	}
	if !cmd.Items[1].Amount.IsZero() {
		t.Fatalf("expected unparseable amount to become zero, got %s", cmd.Items[1].Amount)
	}
}

func TestReconcileRequest_ToCommand(t *testing.T) {
	cmd, err := (&ReconcileRequest{StatementBalance: "90.00"}).ToCommand("req-1", "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.AccountID != "acc-1" || cmd.StatementBalance.String() != "90" || !cmd.StatementDate.IsZero() {
		t.Fatalf("unexpected command %+v", cmd)
	}

	if _, err := (&ReconcileRequest{}).ToCommand("req-1", "acc-1"); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for empty balance, got %v", err)
	}
}
