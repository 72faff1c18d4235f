package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/infrastructure/metrics"
)

// BalanceMaintainer is the only component that changes Account.Balance. Every
// call runs inside the caller's unit of work on an account the caller locked.
type BalanceMaintainer struct {
	accountRepo AccountRepository
	historyRepo BalanceHistoryRepository
	overdraft   OverdraftPolicy
	metrics     *metrics.Metrics
}

// NewBalanceMaintainer creates a new BalanceMaintainer. A nil policy falls back
// to DefaultOverdraftKinds.
func NewBalanceMaintainer(
	accountRepo AccountRepository,
	historyRepo BalanceHistoryRepository,
	overdraft OverdraftPolicy,
	metrics *metrics.Metrics,
) *BalanceMaintainer {
	if overdraft == nil {
		overdraft = NewKindOverdraftPolicy(DefaultOverdraftKinds...)
	}
	return &BalanceMaintainer{
		accountRepo: accountRepo,
		historyRepo: historyRepo,
		overdraft:   overdraft,
		metrics:     metrics,
	}
}

// Lock acquires row locks on the given accounts in ascending id order and
// returns them keyed by id. A missing account fails with ErrAccountNotFound.
func (m *BalanceMaintainer) Lock(ctx context.Context, tx Transaction, ids ...string) (map[string]*domain.Account, error) {
	sorted := uniqueSorted(ids)

	accounts, err := m.accountRepo.GetByIDsForUpdate(ctx, tx, sorted)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Account, len(accounts))
	for _, acc := range accounts {
		byID[acc.ID] = acc
	}
	for _, id := range sorted {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
		}
	}

	return byID, nil
}

// Apply adds a signed amount to a locked account, persists the new balance and
// records the day's balance snapshot. The account struct is updated in place.
func (m *BalanceMaintainer) Apply(ctx context.Context, tx Transaction, account *domain.Account, amount domain.Money) (domain.Money, error) {
	if !account.CanPost() {
		return domain.Money{}, fmt.Errorf("%w: %s is %s", domain.ErrAccountInactive, account.ID, account.Status)
	}

	current := account.BalanceMoney()
	newBalance, err := current.Add(amount)
	if err != nil {
		return domain.Money{}, err
	}

	if amount.IsZero() {
		return current, nil
	}

	if amount.IsNegative() && newBalance.IsNegative() && !m.overdraft.AllowsNegative(account.Kind) {
		return domain.Money{}, fmt.Errorf("%w: %s %s has %s, needs %s",
			domain.ErrInsufficientBalance, account.Kind, account.ID, current, amount.Abs())
	}

	now := time.Now().UTC()
	if err := m.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance.Amount, now); err != nil {
		return domain.Money{}, err
	}

	account.Balance = newBalance.Amount
	account.Version++
	account.UpdatedAt = now

	snapshot := &domain.BalanceSnapshot{
		AccountID: account.ID,
		Date:      domain.DateOf(now),
		Balance:   newBalance,
		UpdatedAt: now,
	}
	if err := m.historyRepo.Upsert(ctx, tx, snapshot); err != nil {
		return domain.Money{}, err
	}

	if m.metrics != nil {
		direction := "credit"
		if amount.IsNegative() {
			direction = "debit"
		}
		m.metrics.BalanceApplications.WithLabelValues(direction).Inc()
	}

	return newBalance, nil
}

// Reverse undoes a previously applied amount.
func (m *BalanceMaintainer) Reverse(ctx context.Context, tx Transaction, account *domain.Account, amount domain.Money) (domain.Money, error) {
	return m.Apply(ctx, tx, account, amount.Neg())
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
