package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/infrastructure/metrics"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	accountRepo AccountRepository
	idGen       IDGenerator
	audit       AuditLogger
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase. audit and m may be nil.
func NewAccountUseCase(accountRepo AccountRepository, idGen IDGenerator, audit AuditLogger, m *metrics.Metrics) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		idGen:       idGen,
		audit:       audit,
		metrics:     m,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	LedgerID string
	Name     string
	Kind     string
	Currency string
}

// CreateAccount creates a new active account with a zero balance.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if strings.TrimSpace(input.LedgerID) == "" {
		return nil, fmt.Errorf("%w: ledger id is required", domain.ErrLedgerNotFound)
	}
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}
	kind, err := domain.ParseAccountKind(input.Kind)
	if err != nil {
		return nil, err
	}
	currency, err := domain.ParseCurrency(input.Currency)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		LedgerID:  input.LedgerID,
		Name:      strings.TrimSpace(input.Name),
		Kind:      kind,
		Currency:  currency,
		Balance:   decimal.Zero,
		Status:    domain.AccountStatusActive,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}
	uc.record(ctx, domain.AuditActionAccountCreate, account)

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	LedgerID string
	Limit    int
	Offset   int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset, _ := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.accountRepo.List(ctx, input.LedgerID, limit, offset)
}

// ArchiveAccount freezes an account. Archived accounts reject every balance
// application, including reversals.
func (uc *AccountUseCase) ArchiveAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.Status == domain.AccountStatusArchived {
		return account, nil
	}

	now := time.Now().UTC()
	if err := uc.accountRepo.UpdateStatus(ctx, id, domain.AccountStatusArchived, now); err != nil {
		return nil, err
	}

	account.Status = domain.AccountStatusArchived
	account.UpdatedAt = now
	uc.record(ctx, domain.AuditActionAccountArchive, account)

	return account, nil
}

func (uc *AccountUseCase) record(ctx context.Context, action domain.AuditAction, account *domain.Account) {
	if uc.audit == nil {
		return
	}
	uc.audit.Record(ctx, &domain.AuditLog{
		Action:       action,
		ResourceType: "account",
		ResourceID:   account.ID,
		AfterState:   domain.MarshalState(account),
		Status:       domain.AuditStatusSuccess,
		CreatedAt:    time.Now().UTC(),
	})
}
