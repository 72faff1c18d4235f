package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jive/ledgerengine/internal/domain"
)

// SettleTransactions moves pending transactions to cleared. Settlement never
// touches balances: the amounts were applied when the transactions were created.
func (s *TransactionService) SettleTransactions(ctx context.Context, cmd SettleTransactionsCommand) (*SettlementResult, error) {
	if len(cmd.TransactionIDs) == 0 {
		return nil, fmt.Errorf("%w: no transactions to settle", domain.ErrInvalidStatusTransition)
	}

	result, replayed, err := runCommand(ctx, s, cmd.RequestID, CommandSettle,
		func(ctx context.Context, tx Transaction) (*SettlementResult, error) {
			at := cmd.SettlementDate
			if at.IsZero() {
				at = time.Now().UTC()
			}
			at = at.UTC()

			ids := uniqueSorted(cmd.TransactionIDs)
			result := &SettlementResult{
				SettledIDs:     []string{},
				SkippedIDs:     []string{},
				SettlementDate: at,
			}

			txs := make([]*domain.Transaction, 0, len(ids))
			for _, id := range ids {
				t, err := s.txRepo.GetByIDForUpdate(ctx, tx, id)
				if err != nil {
					return nil, err
				}
				txs = append(txs, t)
			}

			// Settling changes the posted balance a reconciliation reads.
			if _, err := s.maintainer.Lock(ctx, tx, accountIDs(txs)...); err != nil {
				return nil, err
			}

			for _, t := range txs {
				settled, err := t.Settle(at)
				if err != nil {
					return nil, err
				}
				if !settled {
					result.SkippedIDs = append(result.SkippedIDs, t.ID)
					continue
				}

				if err := s.txRepo.Update(ctx, tx, t); err != nil {
					return nil, err
				}
				result.SettledIDs = append(result.SettledIDs, t.ID)
			}

			result.Count = len(result.SettledIDs)
			return result, nil
		})
	if err != nil {
		return nil, err
	}

	for _, id := range result.SettledIDs {
		s.record(ctx, replayed, domain.AuditActionTransactionSettle, id, cmd.RequestID, result)
	}
	return result, nil
}

// ReconcileTransactions compares a statement balance with the posted entries of
// an account up to the statement date. Only a balanced statement marks cleared
// transactions reconciled; a discrepancy is reported and nothing changes.
func (s *TransactionService) ReconcileTransactions(ctx context.Context, cmd ReconcileTransactionsCommand) (*ReconciliationResult, error) {
	result, replayed, err := runCommand(ctx, s, cmd.RequestID, CommandReconcile,
		func(ctx context.Context, tx Transaction) (*ReconciliationResult, error) {
			account, err := s.accountRepo.GetByIDForUpdate(ctx, tx, cmd.AccountID)
			if err != nil {
				return nil, err
			}

			asOf := cmd.StatementDate
			if asOf.IsZero() {
				asOf = time.Now().UTC()
			}
			asOf = domain.DateOf(asOf)

			statement, err := domain.NewMoney(cmd.StatementBalance, account.Currency)
			if err != nil {
				return nil, err
			}

			sum, err := s.entryRepo.SumPosted(ctx, tx, account.ID, asOf)
			if err != nil {
				return nil, err
			}
			computed := domain.Money{Amount: sum, Currency: account.Currency}

			result := &ReconciliationResult{
				AccountID:        account.ID,
				StatementDate:    asOf,
				StatementBalance: statement,
				ComputedBalance:  computed,
				ReconciledIDs:    []string{},
			}

			diff, err := statement.Sub(computed)
			if err != nil {
				return nil, err
			}
			if !diff.IsZero() {
				result.Discrepancy = &diff
				return result, nil
			}
			result.IsBalanced = true

			cleared, err := s.txRepo.ListClearedForUpdate(ctx, tx, account.ID, asOf)
			if err != nil {
				return nil, err
			}
			sort.Slice(cleared, func(i, j int) bool { return cleared[i].ID < cleared[j].ID })

			now := time.Now().UTC()
			for _, t := range cleared {
				if err := t.Reconcile(now); err != nil {
					return nil, err
				}
				if err := s.txRepo.Update(ctx, tx, t); err != nil {
					return nil, err
				}
				result.ReconciledIDs = append(result.ReconciledIDs, t.ID)
			}

			return result, nil
		})
	if err != nil {
		return nil, err
	}

	if !replayed && s.metrics != nil {
		outcome := "balanced"
		if !result.IsBalanced {
			outcome = "discrepancy"
		}
		s.metrics.Reconciliations.WithLabelValues(outcome).Inc()
	}
	for _, id := range result.ReconciledIDs {
		s.record(ctx, replayed, domain.AuditActionTransactionReconcile, id, cmd.RequestID, result)
	}
	return result, nil
}
