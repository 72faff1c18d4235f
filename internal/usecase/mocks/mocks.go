package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jive/ledgerengine/internal/domain"
	"github.com/jive/ledgerengine/internal/usecase"
)

// Store is an in-memory database shared by the mock repositories. Units of
// work are serialized: Begin snapshots the state and Rollback restores it, so
// a failed command leaves no trace, the same as a real database transaction.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	accounts     map[string]*domain.Account
	transactions map[string]*domain.Transaction
	splits       []*domain.TransactionSplit
	snapshots    map[string]*domain.BalanceSnapshot
	idempotency  map[string]*domain.IdempotencyRecord
	audit        []*domain.AuditLog
}

type storeState struct {
	accounts     map[string]*domain.Account
	transactions map[string]*domain.Transaction
	splits       []*domain.TransactionSplit
	snapshots    map[string]*domain.BalanceSnapshot
	idempotency  map[string]*domain.IdempotencyRecord
}

func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]*domain.Account),
		transactions: make(map[string]*domain.Transaction),
		snapshots:    make(map[string]*domain.BalanceSnapshot),
		idempotency:  make(map[string]*domain.IdempotencyRecord),
	}
}

// PutAccount seeds an account, bypassing the repositories.
func (s *Store) PutAccount(account *domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.ID] = cloneAccount(account)
}

// Account returns the committed state of an account or nil.
func (s *Store) Account(id string) *domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if acc, ok := s.accounts[id]; ok {
		return cloneAccount(acc)
	}
	return nil
}

// Transaction returns the stored transaction or nil.
func (s *Store) Transaction(id string) *domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.transactions[id]; ok {
		return cloneTransaction(t)
	}
	return nil
}

// Transactions returns every stored transaction of an account, deleted ones included.
func (s *Store) Transactions(accountID string) []*domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Transaction
	for _, t := range s.transactions {
		if t.AccountID() == accountID {
			out = append(out, cloneTransaction(t))
		}
	}
	sortTransactions(out)
	return out
}

// EntriesSum sums the active entries of an account.
func (s *Store) EntriesSum(accountID string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entriesSum(accountID)
}

func (s *Store) entriesSum(accountID string) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range s.transactions {
		if t.AccountID() == accountID && t.Entry.IsActive() {
			sum = sum.Add(t.Entry.Amount.Amount)
		}
	}
	return sum
}

// Splits returns the split rows of an original transaction.
func (s *Store) Splits(originalID string) []*domain.TransactionSplit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.TransactionSplit
	for _, sp := range s.splits {
		if sp.OriginalTransactionID == originalID {
			c := *sp
			out = append(out, &c)
		}
	}
	return out
}

// IdempotencyRecords returns the number of stored idempotency records.
func (s *Store) IdempotencyRecords() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.idempotency)
}

// IdempotencyRecordList returns copies of the stored records ordered by request id.
func (s *Store) IdempotencyRecordList() []*domain.IdempotencyRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.IdempotencyRecord, 0, len(s.idempotency))
	for _, rec := range s.idempotency {
		c := *rec
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestID < out[j].RequestID })
	return out
}

// AuditLogs returns every stored audit log.
func (s *Store) AuditLogs() []*domain.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*domain.AuditLog(nil), s.audit...)
}

func (s *Store) snapshot() storeState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := storeState{
		accounts:     make(map[string]*domain.Account, len(s.accounts)),
		transactions: make(map[string]*domain.Transaction, len(s.transactions)),
		splits:       append([]*domain.TransactionSplit(nil), s.splits...),
		snapshots:    make(map[string]*domain.BalanceSnapshot, len(s.snapshots)),
		idempotency:  make(map[string]*domain.IdempotencyRecord, len(s.idempotency)),
	}
	for k, v := range s.accounts {
		st.accounts[k] = cloneAccount(v)
	}
	for k, v := range s.transactions {
		st.transactions[k] = cloneTransaction(v)
	}
	for k, v := range s.snapshots {
		c := *v
		st.snapshots[k] = &c
	}
	for k, v := range s.idempotency {
		c := *v
		st.idempotency[k] = &c
	}
	return st
}

func (s *Store) restore(st storeState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = st.accounts
	s.transactions = st.transactions
	s.splits = st.splits
	s.snapshots = st.snapshots
	s.idempotency = st.idempotency
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

func cloneTransaction(t *domain.Transaction) *domain.Transaction {
	c := *t
	if t.Entry != nil {
		e := *t.Entry
		c.Entry = &e
	}
	c.Tags = append([]string(nil), t.Tags...)
	return &c
}

func sortTransactions(txs []*domain.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].CreatedAt.Before(txs[j].CreatedAt)
		}
		return txs[i].ID < txs[j].ID
	})
}

// MockTransactionManager is a TransactionManager over a Store.
type MockTransactionManager struct {
	store *Store

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager(store *Store) *MockTransactionManager {
	return &MockTransactionManager{store: store}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.store.txMu.Lock()
	return &MockTransaction{store: m.store, saved: m.store.snapshot()}, nil
}

// MockTransaction is one unit of work. Commit or Rollback releases it; calls
// after that are no-ops.
type MockTransaction struct {
	store *Store
	saved storeState
	done  bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		if err := m.CommitFunc(ctx); err != nil {
			return err
		}
	}
	if m.done {
		return nil
	}
	m.done = true
	if m.store != nil {
		m.store.txMu.Unlock()
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	if m.done {
		return nil
	}
	m.done = true
	if m.store != nil {
		m.store.restore(m.saved)
		m.store.txMu.Unlock()
	}
	return nil
}

// MockAccountRepository is an in-memory AccountRepository.
type MockAccountRepository struct {
	store *Store

	CreateFunc        func(ctx context.Context, account *domain.Account) error
	UpdateBalanceFunc func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
}

func NewMockAccountRepository(store *Store) *MockAccountRepository {
	return &MockAccountRepository{store: store}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.accounts[account.ID]; ok {
		return fmt.Errorf("%w: account %s", domain.ErrConflict, account.ID)
	}
	m.store.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if acc := m.store.Account(id); acc != nil {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	return m.GetByID(ctx, id)
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	var accounts []*domain.Account
	for _, id := range ids {
		if acc, ok := m.store.accounts[id]; ok {
			accounts = append(accounts, cloneAccount(acc))
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	acc, ok := m.store.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.Balance = balance
	acc.Version++
	acc.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, updatedAt time.Time) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	acc, ok := m.store.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.Status = status
	acc.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, ledgerID string, limit, offset int) ([]*domain.Account, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.store.accounts {
		if ledgerID == "" || acc.LedgerID == ledgerID {
			accounts = append(accounts, cloneAccount(acc))
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return page(accounts, limit, offset), nil
}

// MockTransactionRepository is an in-memory TransactionRepository.
type MockTransactionRepository struct {
	store *Store

	CreateFunc func(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error
	UpdateFunc func(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error
}

func NewMockTransactionRepository(store *Store) *MockTransactionRepository {
	return &MockTransactionRepository{store: store}
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, t)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.transactions[t.ID]; ok {
		return fmt.Errorf("%w: transaction %s", domain.ErrConflict, t.ID)
	}
	if err := m.checkConstraints(t); err != nil {
		return err
	}
	m.store.transactions[t.ID] = cloneTransaction(t)
	return nil
}

func (m *MockTransactionRepository) Update(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, t)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.transactions[t.ID]; !ok {
		return domain.ErrTransactionNotFound
	}
	if err := m.checkConstraints(t); err != nil {
		return err
	}
	m.store.transactions[t.ID] = cloneTransaction(t)
	return nil
}

// checkConstraints enforces what the schema enforces: the entry sign check and
// one active row per (account, external id). The caller holds the store lock.
func (m *MockTransactionRepository) checkConstraints(t *domain.Transaction) error {
	if t.Entry != nil {
		if err := t.Entry.Validate(); err != nil {
			return err
		}
	}
	if t.ExternalID == "" || t.IsDeleted() {
		return nil
	}
	for id, other := range m.store.transactions {
		if id == t.ID || other.IsDeleted() {
			continue
		}
		if other.ExternalID == t.ExternalID && other.AccountID() == t.AccountID() {
			return fmt.Errorf("%w: external id %q is held by %s", domain.ErrImportConflict, t.ExternalID, id)
		}
	}
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if t := m.store.Transaction(id); t != nil {
		return t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	return m.GetByID(ctx, id)
}

func (m *MockTransactionRepository) FindByExternalID(ctx context.Context, tx usecase.Transaction, accountID, externalID string) (*domain.Transaction, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	for _, t := range m.store.transactions {
		if t.ExternalID == externalID && t.AccountID() == accountID && !t.IsDeleted() {
			return cloneTransaction(t), nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) ListByOriginal(ctx context.Context, tx usecase.Transaction, originalID string) ([]*domain.Transaction, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	var out []*domain.Transaction
	for _, t := range m.store.transactions {
		if t.OriginalTransactionID == originalID {
			out = append(out, cloneTransaction(t))
		}
	}
	sortTransactions(out)
	return out, nil
}

func (m *MockTransactionRepository) ListClearedForUpdate(ctx context.Context, tx usecase.Transaction, accountID string, asOf time.Time) ([]*domain.Transaction, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	var out []*domain.Transaction
	for _, t := range m.store.transactions {
		if t.AccountID() == accountID && !t.IsDeleted() &&
			t.Status == domain.StatusCleared && !t.Entry.Date.After(asOf) {
			out = append(out, cloneTransaction(t))
		}
	}
	sortTransactions(out)
	return out, nil
}

// MockEntryRepository is an in-memory EntryRepository reading the entries of
// stored transactions.
type MockEntryRepository struct {
	store *Store
}

func NewMockEntryRepository(store *Store) *MockEntryRepository {
	return &MockEntryRepository{store: store}
}

func (m *MockEntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	var entries []*domain.Entry
	for _, t := range m.store.transactions {
		if t.AccountID() == accountID {
			e := *t.Entry
			entries = append(entries, &e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.After(entries[j].Date)
		}
		return entries[i].ID > entries[j].ID
	})
	return page(entries, limit, offset), nil
}

func (m *MockEntryRepository) SumPosted(ctx context.Context, tx usecase.Transaction, accountID string, asOf time.Time) (decimal.Decimal, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	sum := decimal.Zero
	for _, t := range m.store.transactions {
		e := t.Entry
		if e.AccountID == accountID && e.IsActive() && !e.Pending && !e.Date.After(asOf) {
			sum = sum.Add(e.Amount.Amount)
		}
	}
	return sum, nil
}

func (m *MockEntryRepository) PendingSummary(ctx context.Context, accountID string) (decimal.Decimal, *time.Time, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	sum := decimal.Zero
	var last *time.Time
	for _, t := range m.store.transactions {
		e := t.Entry
		if e.AccountID != accountID || !e.IsActive() {
			continue
		}
		if e.Pending {
			sum = sum.Add(e.Amount.Amount)
		}
		if last == nil || e.Date.After(*last) {
			d := e.Date
			last = &d
		}
	}
	return sum, last, nil
}

// MockSplitRepository is an in-memory SplitRepository.
type MockSplitRepository struct {
	store *Store

	CreateFunc func(ctx context.Context, tx usecase.Transaction, split *domain.TransactionSplit) error
}

func NewMockSplitRepository(store *Store) *MockSplitRepository {
	return &MockSplitRepository{store: store}
}

func (m *MockSplitRepository) Create(ctx context.Context, tx usecase.Transaction, split *domain.TransactionSplit) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, split)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	c := *split
	m.store.splits = append(m.store.splits, &c)
	return nil
}

func (m *MockSplitRepository) ListByOriginal(ctx context.Context, tx usecase.Transaction, originalID string) ([]*domain.TransactionSplit, error) {
	return m.store.Splits(originalID), nil
}

// MockBalanceHistoryRepository is an in-memory BalanceHistoryRepository.
type MockBalanceHistoryRepository struct {
	store *Store
}

func NewMockBalanceHistoryRepository(store *Store) *MockBalanceHistoryRepository {
	return &MockBalanceHistoryRepository{store: store}
}

func (m *MockBalanceHistoryRepository) Upsert(ctx context.Context, tx usecase.Transaction, snapshot *domain.BalanceSnapshot) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	c := *snapshot
	m.store.snapshots[snapshot.AccountID+"|"+snapshot.Date.Format(time.DateOnly)] = &c
	return nil
}

func (m *MockBalanceHistoryRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*domain.BalanceSnapshot, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	var out []*domain.BalanceSnapshot
	for _, snap := range m.store.snapshots {
		if snap.AccountID == accountID {
			c := *snap
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return page(out, limit, 0), nil
}

// MockIdempotencyRepository is an in-memory IdempotencyRepository. Create
// fails with ErrConcurrentRequest when the request id is taken, the way the
// unique key does in Postgres.
type MockIdempotencyRepository struct {
	store *Store

	GetFunc    func(ctx context.Context, tx usecase.Transaction, requestID string) (*domain.IdempotencyRecord, error)
	CreateFunc func(ctx context.Context, tx usecase.Transaction, record *domain.IdempotencyRecord) error
}

func NewMockIdempotencyRepository(store *Store) *MockIdempotencyRepository {
	return &MockIdempotencyRepository{store: store}
}

func (m *MockIdempotencyRepository) Get(ctx context.Context, tx usecase.Transaction, requestID string) (*domain.IdempotencyRecord, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, tx, requestID)
	}
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	rec, ok := m.store.idempotency[requestID]
	if !ok || rec.IsExpired(time.Now().UTC()) {
		return nil, nil
	}
	c := *rec
	return &c, nil
}

func (m *MockIdempotencyRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.IdempotencyRecord) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, record)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if rec, ok := m.store.idempotency[record.RequestID]; ok && !rec.IsExpired(time.Now().UTC()) {
		return fmt.Errorf("%w: %s", domain.ErrConcurrentRequest, record.RequestID)
	}
	c := *record
	m.store.idempotency[record.RequestID] = &c
	return nil
}

func (m *MockIdempotencyRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var n int64
	for id, rec := range m.store.idempotency {
		if rec.IsExpired(before) {
			delete(m.store.idempotency, id)
			n++
		}
	}
	return n, nil
}

// MockLedgerRepository compares balances with entry sums in the Store.
type MockLedgerRepository struct {
	store *Store
}

func NewMockLedgerRepository(store *Store) *MockLedgerRepository {
	return &MockLedgerRepository{store: store}
}

func (m *MockLedgerRepository) CheckConsistency(ctx context.Context) ([]domain.AccountDrift, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	var drifts []domain.AccountDrift
	for _, acc := range m.store.accounts {
		sum := m.store.entriesSum(acc.ID)
		if !sum.Equal(acc.Balance) {
			drifts = append(drifts, domain.AccountDrift{
				AccountID:  acc.ID,
				Balance:    acc.BalanceMoney(),
				EntriesSum: domain.Money{Amount: sum, Currency: acc.Currency},
			})
		}
	}
	sort.Slice(drifts, func(i, j int) bool { return drifts[i].AccountID < drifts[j].AccountID })
	return drifts, nil
}

// MockAuditRepository is an in-memory AuditRepository.
type MockAuditRepository struct {
	store *Store

	CreateFunc func(ctx context.Context, log *domain.AuditLog) error
}

func NewMockAuditRepository(store *Store) *MockAuditRepository {
	return &MockAuditRepository{store: store}
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.audit = append(m.store.audit, log)
	return nil
}

func (m *MockAuditRepository) ListByResource(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	var out []*domain.AuditLog
	for _, log := range m.store.audit {
		if log.ResourceType == resourceType && log.ResourceID == resourceID {
			out = append(out, log)
		}
	}
	return out, nil
}

// MockIDGenerator returns sequential ids that sort in creation order.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%06d", m.counter)
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
