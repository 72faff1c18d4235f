package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jive/ledgerengine/internal/domain"
)

// TransferCoordinator records a transfer as two cross-linked transactions, one
// per account, inside the caller's unit of work.
type TransferCoordinator struct {
	maintainer *BalanceMaintainer
	txRepo     TransactionRepository
	rates      RateProvider
	idGen      IDGenerator
}

// NewTransferCoordinator creates a new TransferCoordinator. rates may be nil,
// in which case cross-currency transfers need an explicit rate.
func NewTransferCoordinator(maintainer *BalanceMaintainer, txRepo TransactionRepository, rates RateProvider, idGen IDGenerator) *TransferCoordinator {
	return &TransferCoordinator{
		maintainer: maintainer,
		txRepo:     txRepo,
		rates:      rates,
		idGen:      idGen,
	}
}

// Transfer debits the source and credits the destination. Both accounts are
// locked in ascending id order before either side changes.
func (c *TransferCoordinator) Transfer(ctx context.Context, tx Transaction, cmd TransferCommand) (*TransferResult, error) {
	if cmd.SourceAccountID == cmd.DestAccountID {
		return nil, domain.ErrSameAccount
	}
	if err := domain.ValidatePositiveAmount(cmd.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateTags(cmd.Tags); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := cmd.Fx.Validate(now); err != nil {
		return nil, err
	}

	accounts, err := c.maintainer.Lock(ctx, tx, cmd.SourceAccountID, cmd.DestAccountID)
	if err != nil {
		return nil, err
	}
	source := accounts[cmd.SourceAccountID]
	dest := accounts[cmd.DestAccountID]

	for _, acc := range []*domain.Account{source, dest} {
		if err := acc.EnsureActive(); err != nil {
			return nil, err
		}
		if err := acc.EnsureLedger(cmd.LedgerID); err != nil {
			return nil, err
		}
	}
	if source.LedgerID != dest.LedgerID {
		return nil, fmt.Errorf("%w: accounts %s and %s belong to different ledgers",
			domain.ErrLedgerNotFound, source.ID, dest.ID)
	}

	debitAmount, err := domain.NewMoney(cmd.Amount, source.Currency)
	if err != nil {
		return nil, err
	}

	date := cmd.Date
	if date.IsZero() {
		date = now
	}

	creditAmount, rate, err := c.convert(ctx, debitAmount, dest.Currency, date, cmd.Fx)
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(cmd.Description)
	if description == "" {
		description = fmt.Sprintf("Transfer from %s to %s", source.Name, dest.Name)
	}

	debit := buildTransaction(c.idGen, draft{
		account:    source,
		amount:     debitAmount.Neg(),
		kind:       domain.KindTransfer,
		date:       date,
		name:       description,
		notes:      cmd.Notes,
		categoryID: cmd.CategoryID,
		tags:       cmd.Tags,
		fxRate:     rate,
	})
	credit := buildTransaction(c.idGen, draft{
		account:    dest,
		amount:     creditAmount,
		kind:       domain.KindTransfer,
		date:       date,
		name:       description,
		notes:      cmd.Notes,
		categoryID: cmd.CategoryID,
		tags:       cmd.Tags,
		fxRate:     rate,
	})
	debit.RelatedTransactionID = credit.ID
	credit.RelatedTransactionID = debit.ID

	sourceBalance, err := c.maintainer.Apply(ctx, tx, source, debit.Entry.Amount)
	if err != nil {
		return nil, err
	}
	if err := c.txRepo.Create(ctx, tx, debit); err != nil {
		return nil, err
	}

	destBalance, err := c.maintainer.Apply(ctx, tx, dest, credit.Entry.Amount)
	if err != nil {
		return nil, err
	}
	if err := c.txRepo.Create(ctx, tx, credit); err != nil {
		return nil, err
	}

	return &TransferResult{
		DebitTransaction:  debit,
		CreditTransaction: credit,
		SourceBalance:     sourceBalance,
		DestBalance:       destBalance,
		Rate:              rate,
	}, nil
}

// convert returns the destination amount and, for cross-currency transfers,
// the rate used. The rate is applied once and the result rounded half-to-even
// to the destination precision.
func (c *TransferCoordinator) convert(
	ctx context.Context,
	amount domain.Money,
	to domain.Currency,
	date time.Time,
	fx *domain.FxSpec,
) (domain.Money, *decimal.Decimal, error) {
	if amount.Currency == to {
		return amount, nil, nil
	}
	if fx == nil {
		return domain.Money{}, nil, fmt.Errorf("%w: %s to %s", domain.ErrFxRequired, amount.Currency, to)
	}

	var rate decimal.Decimal
	switch {
	case fx.Rate != nil:
		rate = *fx.Rate
	case c.rates != nil:
		r, err := c.rates.Rate(ctx, amount.Currency, to, domain.DateOf(date))
		if err != nil {
			return domain.Money{}, nil, err
		}
		rate = r
	default:
		return domain.Money{}, nil, fmt.Errorf("%w: no rate provider for %s to %s",
			domain.ErrFxRateUnavailable, amount.Currency, to)
	}

	converted, err := domain.Convert(amount, rate, to)
	if err != nil {
		return domain.Money{}, nil, err
	}
	if converted.IsZero() {
		return domain.Money{}, nil, fmt.Errorf("%w: %s converts to zero %s", domain.ErrInvalidAmount, amount, to)
	}

	return converted, &rate, nil
}
