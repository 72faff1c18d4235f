package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/usecase"
	"github.com/jive/ledgerengine/internal/usecase/mocks"
)

func TestAccountUseCase_CreateAccount(t *testing.T) {
	tests := []struct {
		name        string
		input       usecase.CreateAccountInput
		setupMocks  func(*mocks.MockAccountRepository, *mocks.MockIDGenerator)
		expectedErr error
	}{
		{
			name: "successful account creation",
			input: usecase.CreateAccountInput{
				LedgerID: "ledger-1",
				Name:     "Checking",
				Kind:     "checking",
				Currency: "usd",
			},
			setupMocks: func(repo *mocks.MockAccountRepository, idGen *mocks.MockIDGenerator) {
				idGen.GenerateFunc = func() string { return "test-id-123" }
			},
		},
		{
			name: "create with repository error",
			input: usecase.CreateAccountInput{
				LedgerID: "ledger-1",
				Name:     "Checking",
				Kind:     "checking",
				Currency: "USD",
			},
			setupMocks: func(repo *mocks.MockAccountRepository, idGen *mocks.MockIDGenerator) {
				repo.CreateFunc = func(ctx context.Context, account *domain.Account) error {
					return domain.ErrConflict
				}
			},
			expectedErr: domain.ErrConflict,
		},
		{
			name:        "missing ledger",
			input:       usecase.CreateAccountInput{Name: "Checking", Kind: "checking", Currency: "USD"},
			expectedErr: domain.ErrLedgerNotFound,
		},
		{
			name:        "blank name",
			input:       usecase.CreateAccountInput{LedgerID: "ledger-1", Name: "  ", Kind: "checking", Currency: "USD"},
			expectedErr: domain.ErrInvalidAccountName,
		},
		{
			name:        "unknown kind",
			input:       usecase.CreateAccountInput{LedgerID: "ledger-1", Name: "Checking", Kind: "crypto", Currency: "USD"},
			expectedErr: domain.ErrInvalidAccountKind,
		},
		{
			name:        "unsupported currency",
			input:       usecase.CreateAccountInput{LedgerID: "ledger-1", Name: "Checking", Kind: "checking", Currency: "XXX"},
			expectedErr: domain.ErrUnsupportedCurrency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockAccountRepository(mocks.NewStore())
			idGen := mocks.NewMockIDGenerator()
			if tt.setupMocks != nil {
				tt.setupMocks(repo, idGen)
			}

			uc := usecase.NewAccountUseCase(repo, idGen, nil, nil)
			account, err := uc.CreateAccount(context.Background(), tt.input)

			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("expected %v, got %v", tt.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if account.Name != tt.input.Name {
				t.Errorf("expected name %q, got %q", tt.input.Name, account.Name)
			}
			if account.Currency != domain.USD {
				t.Errorf("expected USD, got %s", account.Currency)
			}
			if account.Status != domain.AccountStatusActive {
				t.Errorf("expected active account, got %s", account.Status)
			}
			if !account.Balance.IsZero() {
				t.Errorf("expected zero balance, got %s", account.Balance)
			}
		})
	}
}

func TestAccountUseCase_GetAccount(t *testing.T) {
	store := mocks.NewStore()
	store.PutAccount(&domain.Account{ID: "test-id-123", Name: "test", Currency: domain.USD})

	tests := []struct {
		name        string
		accountID   string
		expectError bool
	}{
		{name: "get existing account", accountID: "test-id-123"},
		{name: "get non-existent account", accountID: "non-existent", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := usecase.NewAccountUseCase(mocks.NewMockAccountRepository(store), mocks.NewMockIDGenerator(), nil, nil)
			account, err := uc.GetAccount(context.Background(), tt.accountID)

			if tt.expectError {
				if !errors.Is(err, domain.ErrAccountNotFound) {
					t.Errorf("expected ErrAccountNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if account == nil {
				t.Error("expected account, got nil")
			}
		})
	}
}

func TestAccountUseCase_ListAccounts(t *testing.T) {
	store := mocks.NewStore()
	store.PutAccount(&domain.Account{ID: "1", LedgerID: "ledger-1", Name: "acc1"})
	store.PutAccount(&domain.Account{ID: "2", LedgerID: "ledger-1", Name: "acc2"})
	store.PutAccount(&domain.Account{ID: "3", LedgerID: "ledger-2", Name: "acc3"})

	uc := usecase.NewAccountUseCase(mocks.NewMockAccountRepository(store), mocks.NewMockIDGenerator(), nil, nil)

	accounts, err := uc.ListAccounts(context.Background(), usecase.ListAccountsInput{LedgerID: "ledger-1", Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(accounts) != 2 {
		t.Errorf("expected 2 accounts, got %d", len(accounts))
	}
}

func TestAccountUseCase_ArchiveAccount(t *testing.T) {
	store := mocks.NewStore()
	store.PutAccount(&domain.Account{ID: "acc-1", Name: "acc1", Currency: domain.USD, Status: domain.AccountStatusActive})

	uc := usecase.NewAccountUseCase(mocks.NewMockAccountRepository(store), mocks.NewMockIDGenerator(), nil, nil)

	account, err := uc.ArchiveAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Status != domain.AccountStatusArchived {
		t.Errorf("expected archived, got %s", account.Status)
	}
	if got := store.Account("acc-1").Status; got != domain.AccountStatusArchived {
		t.Errorf("expected stored status archived, got %s", got)
	}

	if _, err := uc.ArchiveAccount(context.Background(), "missing"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}
