package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/infrastructure/metrics"
)

// TransactionServiceDeps holds the collaborators of the TransactionService.
// RateProvider, IdempotencyCache, Retrier, AuditLogger and Metrics are optional.
type TransactionServiceDeps struct {
	TxManager        TransactionManager
	Accounts         AccountRepository
	Transactions     TransactionRepository
	Entries          EntryRepository
	Splits           SplitRepository
	BalanceHistory   BalanceHistoryRepository
	Idempotency      IdempotencyRepository
	IdempotencyCache IdempotencyCache
	IdempotencyTTL   time.Duration
	Retrier          Retrier
	RateProvider     RateProvider
	OverdraftPolicy  OverdraftPolicy
	AuditLogger      AuditLogger
	IDGenerator      IDGenerator
	Logger           zerolog.Logger
	Metrics          *metrics.Metrics
}

// TransactionService is the single entry point for ledger mutations. Each
// command runs in one unit of work behind the idempotency gate.
type TransactionService struct {
	gate        *IdempotencyGate
	accountRepo AccountRepository
	txRepo      TransactionRepository
	entryRepo   EntryRepository
	historyRepo BalanceHistoryRepository
	maintainer  *BalanceMaintainer
	splitter    *SplitEngine
	transfers   *TransferCoordinator
	idGen       IDGenerator
	audit       AuditLogger
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(deps TransactionServiceDeps) *TransactionService {
	maintainer := NewBalanceMaintainer(deps.Accounts, deps.BalanceHistory, deps.OverdraftPolicy, deps.Metrics)

	s := &TransactionService{
		gate: NewIdempotencyGate(IdempotencyGateConfig{
			TxManager: deps.TxManager,
			Repo:      deps.Idempotency,
			Cache:     deps.IdempotencyCache,
			Retrier:   deps.Retrier,
			TTL:       deps.IdempotencyTTL,
			Logger:    deps.Logger,
			Metrics:   deps.Metrics,
		}),
		accountRepo: deps.Accounts,
		txRepo:      deps.Transactions,
		entryRepo:   deps.Entries,
		historyRepo: deps.BalanceHistory,
		maintainer:  maintainer,
		idGen:       deps.IDGenerator,
		audit:       deps.AuditLogger,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
	}
	s.splitter = NewSplitEngine(deps.Transactions, deps.Splits, deps.IDGenerator)
	s.transfers = NewTransferCoordinator(maintainer, deps.Transactions, deps.RateProvider, deps.IDGenerator)

	return s
}

// Gate exposes the idempotency gate for maintenance jobs.
func (s *TransactionService) Gate() *IdempotencyGate {
	return s.gate
}

// runCommand executes work behind the idempotency gate and records metrics.
func runCommand[T any](
	ctx context.Context,
	s *TransactionService,
	requestID string,
	command CommandType,
	work func(ctx context.Context, tx Transaction) (*T, error),
) (*T, bool, error) {
	start := time.Now()

	var out T
	replayed, err := s.gate.Execute(ctx, requestID, command, &out, func(ctx context.Context, tx Transaction) (any, error) {
		return work(ctx, tx)
	})

	if s.metrics != nil {
		outcome := "success"
		switch {
		case err != nil:
			outcome = "error"
		case replayed:
			outcome = "replayed"
		}
		s.metrics.CommandsTotal.WithLabelValues(string(command), outcome).Inc()
		s.metrics.CommandDuration.WithLabelValues(string(command)).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		s.logger.Debug().Err(err).Str("command", string(command)).Str("request_id", requestID).Msg("command failed")
		return nil, false, err
	}

	return &out, replayed, nil
}

// record emits an audit event. Replays are not state transitions and are skipped.
func (s *TransactionService) record(ctx context.Context, replayed bool, action domain.AuditAction, resourceID, requestID string, state any) {
	if s.audit == nil || replayed {
		return
	}
	s.audit.Record(ctx, &domain.AuditLog{
		Action:       action,
		ResourceType: "transaction",
		ResourceID:   resourceID,
		RequestID:    requestID,
		AfterState:   domain.MarshalState(state),
		Status:       domain.AuditStatusSuccess,
		CreatedAt:    time.Now().UTC(),
	})
}

// CreateTransaction records a new standard transaction and applies it to the account balance.
func (s *TransactionService) CreateTransaction(ctx context.Context, cmd CreateTransactionCommand) (*TransactionResult, error) {
	result, replayed, err := runCommand(ctx, s, cmd.RequestID, CommandCreateTransaction,
		func(ctx context.Context, tx Transaction) (*TransactionResult, error) {
			if cmd.LedgerID == "" {
				return nil, fmt.Errorf("%w: ledger id is required", domain.ErrLedgerNotFound)
			}

			account, err := s.accountRepo.GetByIDForUpdate(ctx, tx, cmd.AccountID)
			if err != nil {
				return nil, err
			}

			amount, err := validatePosting(account, cmd.LedgerID, cmd.Currency, cmd.Amount)
			if err != nil {
				return nil, err
			}
			if err := validateDescriptors(cmd.Name, cmd.Tags); err != nil {
				return nil, err
			}

			t := s.newTransaction(draft{
				account:      account,
				amount:       amount,
				kind:         domain.KindStandard,
				date:         cmd.Date,
				name:         cmd.Name,
				notes:        cmd.Notes,
				categoryID:   cmd.CategoryID,
				payeeID:      cmd.PayeeID,
				tags:         cmd.Tags,
				pending:      cmd.Pending,
				reimbursable: cmd.Reimbursable,
				externalID:   cmd.ExternalID,
			})

			balance, err := s.maintainer.Apply(ctx, tx, account, amount)
			if err != nil {
				return nil, err
			}
			if err := s.txRepo.Create(ctx, tx, t); err != nil {
				return nil, err
			}

			return &TransactionResult{Transaction: t, NewBalance: balance}, nil
		})
	if err != nil {
		return nil, err
	}

	s.countCreated(replayed, domain.KindStandard)
	s.record(ctx, replayed, domain.AuditActionTransactionCreate, result.Transaction.ID, cmd.RequestID, result.Transaction)
	return result, nil
}

// UpdateTransaction applies a patch. An amount change is applied to the balance
// as a delta against the previous amount.
func (s *TransactionService) UpdateTransaction(ctx context.Context, cmd UpdateTransactionCommand) (*TransactionResult, error) {
	result, replayed, err := runCommand(ctx, s, cmd.RequestID, CommandUpdateTransaction,
		func(ctx context.Context, tx Transaction) (*TransactionResult, error) {
			t, err := s.txRepo.GetByIDForUpdate(ctx, tx, cmd.TransactionID)
			if err != nil {
				return nil, err
			}
			if t.IsDeleted() {
				return nil, fmt.Errorf("%w: %s", domain.ErrTransactionDeleted, t.ID)
			}

			account, err := s.accountRepo.GetByIDForUpdate(ctx, tx, t.AccountID())
			if err != nil {
				return nil, err
			}

			balance := account.BalanceMoney()
			if cmd.Patch.Amount != nil {
				balance, err = s.changeAmount(ctx, tx, t, account, *cmd.Patch.Amount)
				if err != nil {
					return nil, err
				}
			}

			if err := cmd.Patch.ApplyMetadata(t); err != nil {
				return nil, err
			}

			now := time.Now().UTC()
			t.UpdatedAt = now
			t.Entry.UpdatedAt = now
			if err := s.txRepo.Update(ctx, tx, t); err != nil {
				return nil, err
			}

			return &TransactionResult{Transaction: t, NewBalance: balance}, nil
		})
	if err != nil {
		return nil, err
	}

	s.record(ctx, replayed, domain.AuditActionTransactionUpdate, result.Transaction.ID, cmd.RequestID, result.Transaction)
	return result, nil
}

func (s *TransactionService) changeAmount(
	ctx context.Context,
	tx Transaction,
	t *domain.Transaction,
	account *domain.Account,
	raw decimal.Decimal,
) (domain.Money, error) {
	if err := domain.ValidateSignedAmount(raw); err != nil {
		return domain.Money{}, err
	}

	newAmount, err := domain.NewMoney(raw, t.Entry.Amount.Currency)
	if err != nil {
		return domain.Money{}, err
	}
	if newAmount.Equal(t.Entry.Amount) {
		return account.BalanceMoney(), nil
	}

	if err := s.ensureAmountMutable(ctx, tx, t, newAmount); err != nil {
		return domain.Money{}, err
	}

	delta, err := newAmount.Sub(t.Entry.Amount)
	if err != nil {
		return domain.Money{}, err
	}

	balance, err := s.maintainer.Apply(ctx, tx, account, delta)
	if err != nil {
		return domain.Money{}, err
	}

	t.Entry.SetAmount(newAmount)
	return balance, nil
}

// ensureAmountMutable rejects amount changes that would break a pairing with
// another transaction or leave the refunds larger than the original.
func (s *TransactionService) ensureAmountMutable(ctx context.Context, tx Transaction, t *domain.Transaction, newAmount domain.Money) error {
	switch t.Kind {
	case domain.KindTransfer:
		return fmt.Errorf("%w: %s", domain.ErrTransferLegImmutable, t.ID)
	case domain.KindSplit, domain.KindRefund:
		return fmt.Errorf("%w: %s is a %s", domain.ErrAmountImmutable, t.ID, t.Kind)
	}

	children, err := s.txRepo.ListByOriginal(ctx, tx, t.ID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if child.Kind == domain.KindSplit {
			return fmt.Errorf("%w: %s has been split", domain.ErrAmountImmutable, t.ID)
		}
	}

	refunded := sumRefunds(children, t.Entry.Amount.Currency)
	if refunded.IsZero() {
		return nil
	}
	if domain.NatureOf(newAmount.Amount) != t.Entry.Nature {
		return fmt.Errorf("%w: %s has refunds and cannot change direction", domain.ErrAmountImmutable, t.ID)
	}
	if newAmount.Abs().Amount.LessThan(refunded.Amount) {
		return fmt.Errorf("%w: %s is below the %s already refunded",
			domain.ErrRefundExceedsOriginal, newAmount.Abs(), refunded)
	}
	return nil
}

// sumRefunds adds up the magnitudes of the active refunds among children.
func sumRefunds(children []*domain.Transaction, currency domain.Currency) domain.Money {
	refunded := domain.ZeroMoney(currency)
	for _, child := range children {
		if child.Kind == domain.KindRefund && !child.IsDeleted() {
			refunded, _ = refunded.Add(child.Entry.Amount.Abs())
		}
	}
	return refunded
}

// checkRefundCap fails when adding magnitude to the active refunds of original
// would exceed the original amount.
func (s *TransactionService) checkRefundCap(ctx context.Context, tx Transaction, original *domain.Transaction, magnitude domain.Money) error {
	children, err := s.txRepo.ListByOriginal(ctx, tx, original.ID)
	if err != nil {
		return err
	}
	refunded := sumRefunds(children, magnitude.Currency)
	total, err := refunded.Add(magnitude)
	if err != nil {
		return err
	}
	if total.Amount.GreaterThan(original.Entry.Amount.Abs().Amount) {
		return fmt.Errorf("%w: refunding %s on top of %s exceeds %s",
			domain.ErrRefundExceedsOriginal, magnitude, refunded, original.Entry.Amount.Abs())
	}
	return nil
}

// DeleteTransaction soft-deletes a transaction and reverses its balance effect.
// Both legs of a transfer are deleted together.
func (s *TransactionService) DeleteTransaction(ctx context.Context, cmd DeleteTransactionCommand) (*DeleteResult, error) {
	result, replayed, err := runCommand(ctx, s, cmd.RequestID, CommandDeleteTransaction,
		func(ctx context.Context, tx Transaction) (*DeleteResult, error) {
			legs, err := s.loadLegs(ctx, tx, cmd.TransactionID, false)
			if err != nil {
				return nil, err
			}
			if legs[0].IsDeleted() {
				return nil, fmt.Errorf("%w: %s", domain.ErrTransactionDeleted, legs[0].ID)
			}

			accounts, err := s.maintainer.Lock(ctx, tx, accountIDs(legs)...)
			if err != nil {
				return nil, err
			}

			now := time.Now().UTC()
			result := &DeleteResult{DeletedAt: now, Balances: make(map[string]domain.Money)}
			for _, leg := range legs {
				account := accounts[leg.AccountID()]
				balance, err := s.maintainer.Reverse(ctx, tx, account, leg.Entry.Amount)
				if err != nil {
					return nil, err
				}
				if err := leg.MarkDeleted(now); err != nil {
					return nil, err
				}
				if err := s.txRepo.Update(ctx, tx, leg); err != nil {
					return nil, err
				}
				result.TransactionIDs = append(result.TransactionIDs, leg.ID)
				result.Balances[account.ID] = balance
			}

			return result, nil
		})
	if err != nil {
		return nil, err
	}

	for _, id := range result.TransactionIDs {
		s.record(ctx, replayed, domain.AuditActionTransactionDelete, id, cmd.RequestID, result)
	}
	return result, nil
}

// RestoreTransaction reverts a soft deletion and re-applies the balance effect.
func (s *TransactionService) RestoreTransaction(ctx context.Context, cmd RestoreTransactionCommand) (*RestoreResult, error) {
	result, replayed, err := runCommand(ctx, s, cmd.RequestID, CommandRestoreTransaction,
		func(ctx context.Context, tx Transaction) (*RestoreResult, error) {
			legs, err := s.loadLegs(ctx, tx, cmd.TransactionID, true)
			if err != nil {
				return nil, err
			}
			if !legs[0].IsDeleted() {
				return nil, fmt.Errorf("%w: %s", domain.ErrTransactionNotDeleted, legs[0].ID)
			}
			if legs[0].Entry.Amount.IsZero() {
				return nil, fmt.Errorf("%w: %s", domain.ErrFullySplit, legs[0].ID)
			}
			if err := s.ensureRestorable(ctx, tx, legs[0]); err != nil {
				return nil, err
			}

			accounts, err := s.maintainer.Lock(ctx, tx, accountIDs(legs)...)
			if err != nil {
				return nil, err
			}

			now := time.Now().UTC()
			result := &RestoreResult{RestoredAt: now, Balances: make(map[string]domain.Money)}
			for _, leg := range legs {
				account := accounts[leg.AccountID()]
				balance, err := s.maintainer.Apply(ctx, tx, account, leg.Entry.Amount)
				if err != nil {
					return nil, err
				}
				if err := leg.MarkRestored(now); err != nil {
					return nil, err
				}
				if err := s.txRepo.Update(ctx, tx, leg); err != nil {
					return nil, err
				}
				result.TransactionIDs = append(result.TransactionIDs, leg.ID)
				result.Balances[account.ID] = balance
			}

			return result, nil
		})
	if err != nil {
		return nil, err
	}

	for _, id := range result.TransactionIDs {
		s.record(ctx, replayed, domain.AuditActionTransactionRestore, id, cmd.RequestID, result)
	}
	return result, nil
}

// ensureRestorable checks that bringing t back would not collide with rows
// created while it was deleted: another active import with the same external
// id, or refunds that already use up the original.
func (s *TransactionService) ensureRestorable(ctx context.Context, tx Transaction, t *domain.Transaction) error {
	if t.ExternalID != "" {
		holder, err := s.txRepo.FindByExternalID(ctx, tx, t.AccountID(), t.ExternalID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: external id %q is now held by %s", domain.ErrImportConflict, t.ExternalID, holder.ID)
		case !errors.Is(err, domain.ErrTransactionNotFound):
			return err
		}
	}

	if t.Kind != domain.KindRefund || t.OriginalTransactionID == "" {
		return nil
	}
	original, err := s.txRepo.GetByIDForUpdate(ctx, tx, t.OriginalTransactionID)
	if err != nil {
		return err
	}
	if original.IsDeleted() {
		return fmt.Errorf("%w: refunded transaction %s", domain.ErrTransactionDeleted, original.ID)
	}
	return s.checkRefundCap(ctx, tx, original, t.Entry.Amount.Abs())
}

// loadLegs locks a transaction and, for a transfer, its counterpart when the
// counterpart is in the same lifecycle state.
func (s *TransactionService) loadLegs(ctx context.Context, tx Transaction, id string, deleted bool) ([]*domain.Transaction, error) {
	t, err := s.txRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	legs := []*domain.Transaction{t}
	if !t.IsTransferLeg() {
		return legs, nil
	}

	other, err := s.txRepo.GetByIDForUpdate(ctx, tx, t.RelatedTransactionID)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return legs, nil
		}
		return nil, err
	}
	if other.IsDeleted() == deleted {
		legs = append(legs, other)
	}
	return legs, nil
}

// RefundTransaction records a refund against an existing transaction.
func (s *TransactionService) RefundTransaction(ctx context.Context, cmd RefundTransactionCommand) (*TransactionResult, error) {
	result, replayed, err := runCommand(ctx, s, cmd.RequestID, CommandRefundTransaction,
		func(ctx context.Context, tx Transaction) (*TransactionResult, error) {
			original, err := s.txRepo.GetByIDForUpdate(ctx, tx, cmd.TransactionID)
			if err != nil {
				return nil, err
			}
			if original.IsDeleted() {
				return nil, fmt.Errorf("%w: %s", domain.ErrTransactionDeleted, original.ID)
			}
			if original.Kind == domain.KindRefund || original.Kind == domain.KindTransfer {
				return nil, fmt.Errorf("%w: %s is a %s", domain.ErrNotRefundable, original.ID, original.Kind)
			}

			if err := domain.ValidatePositiveAmount(cmd.Amount); err != nil {
				return nil, err
			}
			magnitude, err := domain.NewMoney(cmd.Amount, original.Entry.Amount.Currency)
			if err != nil {
				return nil, err
			}

			if err := s.checkRefundCap(ctx, tx, original, magnitude); err != nil {
				return nil, err
			}

			account, err := s.accountRepo.GetByIDForUpdate(ctx, tx, original.AccountID())
			if err != nil {
				return nil, err
			}

			amount := magnitude
			if original.Entry.Nature == domain.NatureInflow {
				amount = magnitude.Neg()
			}

			name := cmd.Name
			if name == "" {
				name = "Refund: " + original.Entry.Name
			}

			refund := s.newTransaction(draft{
				account:    account,
				amount:     amount,
				kind:       domain.KindRefund,
				date:       cmd.Date,
				name:       name,
				categoryID: original.CategoryID,
				payeeID:    original.PayeeID,
				tags:       original.Tags,
				ledgerID:   original.LedgerID,
				originalID: original.ID,
			})

			balance, err := s.maintainer.Apply(ctx, tx, account, amount)
			if err != nil {
				return nil, err
			}
			if err := s.txRepo.Create(ctx, tx, refund); err != nil {
				return nil, err
			}

			return &TransactionResult{Transaction: refund, NewBalance: balance}, nil
		})
	if err != nil {
		return nil, err
	}

	s.countCreated(replayed, domain.KindRefund)
	s.record(ctx, replayed, domain.AuditActionTransactionRefund, result.Transaction.ID, cmd.RequestID, result.Transaction)
	return result, nil
}

// SplitTransaction decomposes a transaction into child transactions.
func (s *TransactionService) SplitTransaction(ctx context.Context, cmd SplitTransactionCommand) (*SplitTransactionResult, error) {
	result, replayed, err := runCommand(ctx, s, cmd.RequestID, CommandSplitTransaction,
		func(ctx context.Context, tx Transaction) (*SplitTransactionResult, error) {
			return s.splitter.Split(ctx, tx, cmd.TransactionID, cmd.Splits)
		})
	if err != nil {
		return nil, err
	}

	if !replayed && s.metrics != nil {
		s.metrics.SplitsCreated.Inc()
	}
	s.record(ctx, replayed, domain.AuditActionTransactionSplit, result.OriginalTransactionID, cmd.RequestID, result)
	return result, nil
}

// Transfer moves money between two accounts as one unit of work.
func (s *TransactionService) Transfer(ctx context.Context, cmd TransferCommand) (*TransferResult, error) {
	result, replayed, err := runCommand(ctx, s, cmd.RequestID, CommandTransfer,
		func(ctx context.Context, tx Transaction) (*TransferResult, error) {
			return s.transfers.Transfer(ctx, tx, cmd)
		})
	if err != nil {
		return nil, err
	}

	if !replayed && s.metrics != nil {
		s.metrics.TransfersCreated.Inc()
	}
	s.record(ctx, replayed, domain.AuditActionTransactionTransfer, result.DebitTransaction.ID, cmd.RequestID, result)
	return result, nil
}

// GetTransaction returns a transaction with its entry.
func (s *TransactionService) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.txRepo.GetByID(ctx, id)
}

// ListEntries lists entries of an account, newest first.
func (s *TransactionService) ListEntries(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return s.entryRepo.ListByAccount(ctx, accountID, limit, offset)
}

// GetBalanceSummary reports the balance, the pending total and the settled
// balance available once pending entries are excluded.
func (s *TransactionService) GetBalanceSummary(ctx context.Context, accountID string) (*domain.BalanceSummary, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	pending, last, err := s.entryRepo.PendingSummary(ctx, accountID)
	if err != nil {
		return nil, err
	}

	balance := account.BalanceMoney()
	pendingTotal := domain.Money{Amount: pending, Currency: account.Currency}
	available, err := balance.Sub(pendingTotal)
	if err != nil {
		return nil, err
	}

	return &domain.BalanceSummary{
		AccountID:     account.ID,
		Balance:       balance,
		PendingTotal:  pendingTotal,
		Available:     available,
		LastEntryDate: last,
	}, nil
}

// GetBalanceHistory returns the most recent daily balance snapshots.
func (s *TransactionService) GetBalanceHistory(ctx context.Context, accountID string, limit int) ([]*domain.BalanceSnapshot, error) {
	limit, _, _ = domain.ValidatePagination(limit, 0)
	return s.historyRepo.ListByAccount(ctx, accountID, limit)
}

func (s *TransactionService) countCreated(replayed bool, kind domain.TransactionKind) {
	if !replayed && s.metrics != nil {
		s.metrics.TransactionsCreated.WithLabelValues(string(kind)).Inc()
	}
}

// draft collects the fields of a new transaction.
type draft struct {
	account      *domain.Account
	amount       domain.Money
	kind         domain.TransactionKind
	date         time.Time
	name         string
	notes        string
	categoryID   string
	payeeID      string
	tags         []string
	pending      bool
	reimbursable bool
	ledgerID     string
	originalID   string
	relatedID    string
	externalID   string
	fxRate       *decimal.Decimal
}

func (s *TransactionService) newTransaction(d draft) *domain.Transaction {
	return buildTransaction(s.idGen, d)
}

func buildTransaction(idGen IDGenerator, d draft) *domain.Transaction {
	now := time.Now().UTC()

	date := d.date
	if date.IsZero() {
		date = now
	}

	ledgerID := d.ledgerID
	if ledgerID == "" {
		ledgerID = d.account.LedgerID
	}

	status := domain.StatusCleared
	if d.pending {
		status = domain.StatusPending
	}

	tags := domain.NormalizeTags(d.tags)

	txID := idGen.Generate()
	entryID := idGen.Generate()

	return &domain.Transaction{
		ID:       txID,
		LedgerID: ledgerID,
		EntryID:  entryID,
		Entry: &domain.Entry{
			ID:        entryID,
			AccountID: d.account.ID,
			Entryable: domain.TransactionRef{ID: txID},
			Amount:    d.amount,
			Date:      domain.DateOf(date),
			Name:      strings.TrimSpace(d.name),
			Notes:     d.notes,
			Pending:   d.pending,
			Nature:    domain.NatureOf(d.amount.Amount),
			Lifecycle: domain.Active(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		CategoryID:            d.categoryID,
		PayeeID:               d.payeeID,
		Kind:                  d.kind,
		Status:                status,
		Tags:                  tags,
		Reimbursable:          d.reimbursable,
		OriginalTransactionID: d.originalID,
		RelatedTransactionID:  d.relatedID,
		FxRate:                d.fxRate,
		ExternalID:            d.externalID,
		Lifecycle:             domain.Active(),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// validatePosting checks that a new amount may be recorded against account and
// returns it as Money in the account currency.
func validatePosting(account *domain.Account, ledgerID, currency string, amount decimal.Decimal) (domain.Money, error) {
	if err := account.EnsureActive(); err != nil {
		return domain.Money{}, err
	}
	if err := account.EnsureLedger(ledgerID); err != nil {
		return domain.Money{}, err
	}
	if currency != "" {
		c, err := domain.ParseCurrency(currency)
		if err != nil {
			return domain.Money{}, err
		}
		if c != account.Currency {
			return domain.Money{}, fmt.Errorf("%w: account %s is %s, got %s",
				domain.ErrCurrencyMismatch, account.ID, account.Currency, c)
		}
	}
	if err := domain.ValidateSignedAmount(amount); err != nil {
		return domain.Money{}, err
	}
	return domain.NewMoney(amount, account.Currency)
}

func validateDescriptors(name string, tags []string) error {
	if err := domain.ValidateTransactionName(name); err != nil {
		return err
	}
	return domain.ValidateTags(tags)
}

func accountIDs(txs []*domain.Transaction) []string {
	ids := make([]string, 0, len(txs))
	for _, t := range txs {
		ids = append(ids, t.AccountID())
	}
	return ids
}
