package usecase

import (
	"context"
	"errors"

	"github.com/jive/ledgerengine/internal/domain"
)

var (
	// ErrInconsistentLedger is returned when an account balance disagrees with its entries.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: balances do not match entries")
)

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// ConsistencyReport lists every account whose balance drifted from the sum of
// its active entries.
type ConsistencyReport struct {
	Consistent bool                  `json:"consistent"`
	Drifts     []domain.AccountDrift `json:"drifts"`
}

// CheckConsistency verifies that every balance equals the sum of its active
// entries. A drift is reported together with ErrInconsistentLedger.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	drifts, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	report := &ConsistencyReport{Consistent: len(drifts) == 0, Drifts: drifts}
	if report.Drifts == nil {
		report.Drifts = []domain.AccountDrift{}
	}
	if !report.Consistent {
		return report, ErrInconsistentLedger
	}

	return report, nil
}
