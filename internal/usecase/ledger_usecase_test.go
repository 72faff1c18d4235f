package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/jive/ledgerengine/internal/domain"
)

func TestLedgerUseCase_CheckConsistency(t *testing.T) {
	drift := domain.AccountDrift{
		AccountID:  "acc-1",
		Balance:    domain.Money{Amount: decimal.NewFromInt(10), Currency: domain.USD},
		EntriesSum: domain.Money{Amount: decimal.NewFromInt(9), Currency: domain.USD},
	}

	tests := []struct {
		name        string
		repo        *fakeLedgerRepository
		want        bool
		wantDrifts  int
		expectedErr error
	}{
		{
			name: "happy path consistent ledger",
			repo: &fakeLedgerRepository{},
			want: true,
		},
		{
			name: "repo error surfaces",
			repo: &fakeLedgerRepository{
				err: errors.New("db down"),
			},
			want:        false,
			expectedErr: errors.New("db down"),
		},
		{
			name: "drifted account",
			repo: &fakeLedgerRepository{
				drifts: []domain.AccountDrift{drift},
			},
			want:        false,
			wantDrifts:  1,
			expectedErr: ErrInconsistentLedger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewLedgerUseCase(tt.repo)
			report, err := uc.CheckConsistency(context.Background())

			if tt.expectedErr != nil {
				if err == nil || err.Error() != tt.expectedErr.Error() {
					t.Fatalf("expected error %v, got %v", tt.expectedErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got := report != nil && report.Consistent
			if got != tt.want {
				t.Fatalf("CheckConsistency() = %v, want %v", got, tt.want)
			}
			if report != nil && len(report.Drifts) != tt.wantDrifts {
				t.Fatalf("expected %d drifts, got %d", tt.wantDrifts, len(report.Drifts))
			}
		})
	}
}

func TestLedgerUseCase_RepositoryInvoked(t *testing.T) {
	repo := &fakeLedgerRepository{}
	uc := NewLedgerUseCase(repo)

	if _, err := uc.CheckConsistency(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.calls != 1 {
		t.Fatalf("expected CheckConsistency to call repository once, got %d", repo.calls)
	}
}

type fakeLedgerRepository struct {
	drifts []domain.AccountDrift
	err    error
	calls  int
}

func (f *fakeLedgerRepository) CheckConsistency(ctx context.Context) ([]domain.AccountDrift, error) {
	f.calls++
	return f.drifts, f.err
}
