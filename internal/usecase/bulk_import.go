package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jive/ledgerengine/internal/domain"
)

// rowErrors are failures that reject a single import row. Anything else aborts
// the whole import.
var rowErrors = []error{
	domain.ErrAccountNotFound,
	domain.ErrAccountInactive,
	domain.ErrLedgerNotFound,
	domain.ErrCurrencyMismatch,
	domain.ErrUnsupportedCurrency,
	domain.ErrInvalidPrecision,
	domain.ErrInvalidAmount,
	domain.ErrAmountTooLarge,
	domain.ErrInvalidTransactionName,
	domain.ErrInvalidTags,
	domain.ErrInsufficientBalance,
	domain.ErrAmountImmutable,
	domain.ErrTransferLegImmutable,
	domain.ErrRefundExceedsOriginal,
}

func isRowError(err error) bool {
	for _, target := range rowErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type importRow struct {
	index   int
	item    ImportItem
	account *domain.Account
	amount  domain.Money
}

// BulkImportTransactions imports a batch of transactions in one unit of work.
// Invalid rows are reported and skipped; a conflict under ConflictFail or a
// store error aborts the batch.
func (s *TransactionService) BulkImportTransactions(ctx context.Context, cmd BulkImportTransactionsCommand) (*BulkImportResult, error) {
	policy, err := ParseConflictPolicy(string(cmd.ConflictPolicy))
	if err != nil {
		return nil, err
	}
	if len(cmd.Items) > MaxBulkImportItems {
		return nil, fmt.Errorf("%w: %d items, limit is %d", domain.ErrImportTooLarge, len(cmd.Items), MaxBulkImportItems)
	}

	result, replayed, err := runCommand(ctx, s, cmd.RequestID, CommandBulkImport,
		func(ctx context.Context, tx Transaction) (*BulkImportResult, error) {
			return s.importBatch(ctx, tx, cmd, policy)
		})
	if err != nil {
		return nil, err
	}

	if !replayed && s.metrics != nil {
		s.metrics.ImportRows.WithLabelValues("succeeded").Add(float64(result.Succeeded))
		s.metrics.ImportRows.WithLabelValues("overwritten").Add(float64(result.Overwritten))
		s.metrics.ImportRows.WithLabelValues("skipped").Add(float64(result.Skipped))
		s.metrics.ImportRows.WithLabelValues("failed").Add(float64(result.Failed))
	}
	for _, id := range result.ImportedIDs {
		s.record(ctx, replayed, domain.AuditActionTransactionImport, id, cmd.RequestID, nil)
	}
	return result, nil
}

func (s *TransactionService) importBatch(ctx context.Context, tx Transaction, cmd BulkImportTransactionsCommand, policy ConflictPolicy) (*BulkImportResult, error) {
	result := &BulkImportResult{
		Total:       len(cmd.Items),
		ImportedIDs: []string{},
		Errors:      []ImportRowError{},
	}

	ids := make([]string, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		if item.AccountID != "" {
			ids = append(ids, item.AccountID)
		}
	}

	locked, err := s.accountRepo.GetByIDsForUpdate(ctx, tx, uniqueSorted(ids))
	if err != nil {
		return nil, err
	}
	accounts := make(map[string]*domain.Account, len(locked))
	for _, acc := range locked {
		accounts[acc.ID] = acc
	}

	reject := func(index int, item ImportItem, err error) {
		result.Errors = append(result.Errors, ImportRowError{
			RowIndex:   index,
			ExternalID: item.ExternalID,
			Message:    err.Error(),
		})
	}

	// Validate every row before the first mutation.
	rows := make([]importRow, 0, len(cmd.Items))
	seen := make(map[string]int)
	for i, item := range cmd.Items {
		account, ok := accounts[item.AccountID]
		if !ok {
			reject(i, item, fmt.Errorf("%w: %q", domain.ErrAccountNotFound, item.AccountID))
			continue
		}

		amount, err := validatePosting(account, cmd.LedgerID, item.Currency, item.Amount)
		if err != nil {
			reject(i, item, err)
			continue
		}
		if err := validateDescriptors(item.Name, item.Tags); err != nil {
			reject(i, item, err)
			continue
		}

		if item.ExternalID != "" {
			key := item.AccountID + "/" + item.ExternalID
			if first, dup := seen[key]; dup {
				reject(i, item, fmt.Errorf("%w: external id %q repeats row %d", domain.ErrImportConflict, item.ExternalID, first))
				continue
			}
			seen[key] = i
		}

		rows = append(rows, importRow{index: i, item: item, account: account, amount: amount})
	}

	for _, row := range rows {
		id, overwritten, err := s.importRow(ctx, tx, cmd.LedgerID, row, policy)
		switch {
		case err == nil && id == "":
			result.Skipped++
		case err == nil:
			result.ImportedIDs = append(result.ImportedIDs, id)
			if overwritten {
				result.Overwritten++
			} else {
				result.Succeeded++
			}
		case isRowError(err):
			reject(row.index, row.item, err)
		default:
			return nil, err
		}
	}

	result.Failed = len(result.Errors)
	return result, nil
}

// importRow writes one validated row. It returns an empty id when the row was
// skipped because of a conflict.
func (s *TransactionService) importRow(ctx context.Context, tx Transaction, ledgerID string, row importRow, policy ConflictPolicy) (string, bool, error) {
	if row.item.ExternalID != "" {
		existing, err := s.txRepo.FindByExternalID(ctx, tx, row.account.ID, row.item.ExternalID)
		switch {
		case err == nil:
			return s.resolveConflict(ctx, tx, existing, row, policy)
		case !errors.Is(err, domain.ErrTransactionNotFound):
			return "", false, err
		}
	}

	t := s.newTransaction(draft{
		account:    row.account,
		amount:     row.amount,
		kind:       domain.KindStandard,
		date:       row.item.Date,
		name:       row.item.Name,
		notes:      row.item.Notes,
		categoryID: row.item.CategoryID,
		payeeID:    row.item.PayeeID,
		tags:       row.item.Tags,
		pending:    row.item.Pending,
		ledgerID:   ledgerID,
		externalID: row.item.ExternalID,
	})

	if _, err := s.maintainer.Apply(ctx, tx, row.account, row.amount); err != nil {
		return "", false, err
	}
	if err := s.txRepo.Create(ctx, tx, t); err != nil {
		return "", false, err
	}

	return t.ID, false, nil
}

func (s *TransactionService) resolveConflict(ctx context.Context, tx Transaction, existing *domain.Transaction, row importRow, policy ConflictPolicy) (string, bool, error) {
	switch policy {
	case ConflictFail:
		return "", false, fmt.Errorf("%w: external id %q already imported as %s",
			domain.ErrImportConflict, row.item.ExternalID, existing.ID)
	case ConflictSkip:
		return "", false, nil
	}

	if !existing.Entry.Amount.Equal(row.amount) {
		if err := s.ensureAmountMutable(ctx, tx, existing, row.amount); err != nil {
			return "", false, err
		}
		delta, err := row.amount.Sub(existing.Entry.Amount)
		if err != nil {
			return "", false, err
		}
		if _, err := s.maintainer.Apply(ctx, tx, row.account, delta); err != nil {
			return "", false, err
		}
		existing.Entry.SetAmount(row.amount)
	}

	now := time.Now().UTC()
	if !row.item.Date.IsZero() {
		existing.Entry.Date = domain.DateOf(row.item.Date)
	}
	existing.Entry.Name = row.item.Name
	existing.Entry.Notes = row.item.Notes
	existing.CategoryID = row.item.CategoryID
	existing.PayeeID = row.item.PayeeID
	existing.Tags = domain.NormalizeTags(row.item.Tags)
	existing.UpdatedAt = now
	existing.Entry.UpdatedAt = now

	if err := s.txRepo.Update(ctx, tx, existing); err != nil {
		return "", false, err
	}

	return existing.ID, true, nil
}
