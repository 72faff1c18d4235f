package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jive/ledgerengine/internal/domain"
)

// SplitEngine decomposes one transaction into child transactions. A split moves
// no money: the children take over part of the original amount on the same
// account, and the original keeps the remainder.
type SplitEngine struct {
	txRepo    TransactionRepository
	splitRepo SplitRepository
	idGen     IDGenerator
}

// NewSplitEngine creates a new SplitEngine.
func NewSplitEngine(txRepo TransactionRepository, splitRepo SplitRepository, idGen IDGenerator) *SplitEngine {
	return &SplitEngine{
		txRepo:    txRepo,
		splitRepo: splitRepo,
		idGen:     idGen,
	}
}

// Split validates the request, creates one child per part and reduces the
// original. When the parts cover the whole original it is soft-deleted.
func (e *SplitEngine) Split(ctx context.Context, tx Transaction, transactionID string, specs []domain.SplitSpec) (*SplitTransactionResult, error) {
	original, err := e.txRepo.GetByIDForUpdate(ctx, tx, transactionID)
	if err != nil {
		return nil, err
	}

	existing, err := e.splitRepo.ListByOriginal(ctx, tx, original.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		ids := make([]string, 0, len(existing))
		for _, s := range existing {
			ids = append(ids, s.SplitTransactionID)
		}
		return nil, &domain.AlreadySplitError{ExistingSplits: ids}
	}

	if original.IsDeleted() {
		return nil, fmt.Errorf("%w: %s is deleted", domain.ErrTransactionNotFound, original.ID)
	}
	if err := original.EnsureSplittable(); err != nil {
		return nil, err
	}

	parts, total, err := domain.ValidateSplitParts(original.Entry.Amount, specs)
	if err != nil {
		return nil, err
	}
	for _, spec := range specs {
		if err := domain.ValidateTags(spec.Tags); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	originalAmount := original.Entry.Amount
	outflow := originalAmount.IsNegative()

	result := &SplitTransactionResult{
		OriginalTransactionID: original.ID,
		TotalSplit:            total,
		Children:              make([]*domain.Transaction, 0, len(parts)),
		Splits:                make([]*domain.TransactionSplit, 0, len(parts)),
	}

	for i, part := range parts {
		spec := specs[i]

		signed := part
		if outflow {
			signed = part.Neg()
		}

		child := e.newChild(original, spec, signed, now)
		if err := e.txRepo.Create(ctx, tx, child); err != nil {
			return nil, err
		}

		split := &domain.TransactionSplit{
			ID:                    e.idGen.Generate(),
			OriginalTransactionID: original.ID,
			SplitTransactionID:    child.ID,
			Amount:                part,
			Percentage:            domain.SplitPercentage(part, originalAmount),
			Description:           spec.Description,
			CreatedAt:             now,
		}
		if spec.Percentage != nil {
			split.Percentage = spec.Percentage.Round(2)
		}
		if err := e.splitRepo.Create(ctx, tx, split); err != nil {
			return nil, err
		}

		result.Children = append(result.Children, child)
		result.Splits = append(result.Splits, split)
	}

	remainderMagnitude, err := originalAmount.Abs().Sub(total)
	if err != nil {
		return nil, err
	}
	remainder := remainderMagnitude
	if outflow {
		remainder = remainderMagnitude.Neg()
	}

	original.Entry.SetAmount(remainder)
	original.UpdatedAt = now
	original.Entry.UpdatedAt = now
	if remainder.IsZero() {
		if err := original.MarkDeleted(now); err != nil {
			return nil, err
		}
		result.OriginalDeleted = true
	}

	if err := e.txRepo.Update(ctx, tx, original); err != nil {
		return nil, err
	}
	result.Original = original

	return result, nil
}

func (e *SplitEngine) newChild(original *domain.Transaction, spec domain.SplitSpec, amount domain.Money, now time.Time) *domain.Transaction {
	name := spec.Description
	if name == "" {
		name = "Split from: " + original.Entry.Name
	}

	categoryID := spec.CategoryID
	if categoryID == "" {
		categoryID = original.CategoryID
	}

	tags := original.Tags
	if len(spec.Tags) > 0 {
		tags = spec.Tags
	}

	child := buildTransaction(e.idGen, draft{
		account:    &domain.Account{ID: original.AccountID(), LedgerID: original.LedgerID},
		amount:     amount,
		kind:       domain.KindSplit,
		date:       original.Entry.Date,
		name:       name,
		notes:      original.Entry.Notes,
		categoryID: categoryID,
		payeeID:    original.PayeeID,
		tags:       tags,
		pending:    original.Entry.Pending,
		ledgerID:   original.LedgerID,
		originalID: original.ID,
	})
	child.Status = original.Status
	child.Entry.CreatedAt = now
	child.Entry.UpdatedAt = now
	child.CreatedAt = now
	child.UpdatedAt = now

	return child
}
