package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Nature is the cash-flow direction of an entry.
type Nature string

const (
	NatureInflow  Nature = "inflow"
	NatureOutflow Nature = "outflow"
)

// NatureOf derives the nature from a signed amount. Zero counts as inflow.
func NatureOf(amount decimal.Decimal) Nature {
	if amount.IsNegative() {
		return NatureOutflow
	}
	return NatureInflow
}

// Sign returns +1 for inflow and -1 for outflow.
func (n Nature) Sign() decimal.Decimal {
	if n == NatureOutflow {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// EntryableType names the kind of record that owns an entry.
type EntryableType string

const EntryableTransaction EntryableType = "Transaction"

// Entryable is the owner of an entry. The set of implementations is closed.
type Entryable interface {
	EntryableType() EntryableType
	EntryableID() string
	isEntryable()
}

// TransactionRef marks an entry as owned by a transaction.
type TransactionRef struct {
	ID string
}

func (r TransactionRef) EntryableType() EntryableType { return EntryableTransaction }
func (r TransactionRef) EntryableID() string          { return r.ID }
func (TransactionRef) isEntryable()                   {}

// ParseEntryable rebuilds an owner reference from its stored columns.
func ParseEntryable(typ EntryableType, id string) (Entryable, error) {
	switch typ {
	case EntryableTransaction:
		return TransactionRef{ID: id}, nil
	default:
		return nil, fmt.Errorf("unknown entryable type %q", typ)
	}
}

// LifecycleState is either active or deleted.
type LifecycleState string

const (
	LifecycleActive  LifecycleState = "active"
	LifecycleDeleted LifecycleState = "deleted"
)

// Lifecycle tracks soft deletion. DeletedAt is only meaningful in the deleted state.
type Lifecycle struct {
	State     LifecycleState `json:"state"`
	DeletedAt time.Time      `json:"deleted_at,omitzero"`
}

func Active() Lifecycle {
	return Lifecycle{State: LifecycleActive}
}

func DeletedAt(at time.Time) Lifecycle {
	return Lifecycle{State: LifecycleDeleted, DeletedAt: at}
}

func (l Lifecycle) IsDeleted() bool {
	return l.State == LifecycleDeleted
}

// Entry is a signed movement of money against one account.
type Entry struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Entryable Entryable `json:"-"`
	Amount    Money     `json:"amount"`
	Date      time.Time `json:"date"`
	Name      string    `json:"name"`
	Notes     string    `json:"notes,omitempty"`
	Excluded  bool      `json:"excluded"`
	Pending   bool      `json:"pending"`
	Nature    Nature    `json:"nature"`
	Lifecycle Lifecycle `json:"lifecycle"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetAmount replaces the amount and keeps the nature in step with its sign.
// A zero amount keeps the previous nature.
func (e *Entry) SetAmount(amount Money) {
	e.Amount = amount
	if !amount.IsZero() {
		e.Nature = NatureOf(amount.Amount)
	}
}

// Validate checks that the sign of the amount agrees with the nature.
func (e *Entry) Validate() error {
	if e.Amount.IsZero() {
		if e.Lifecycle.IsDeleted() {
			return nil
		}
		return fmt.Errorf("%w: entry amount must not be zero", ErrInvalidAmount)
	}
	if NatureOf(e.Amount.Amount) != e.Nature {
		return fmt.Errorf("%w: amount %s does not match nature %s", ErrInvalidAmount, e.Amount, e.Nature)
	}
	return nil
}

// IsActive reports whether the entry counts towards its account balance.
func (e *Entry) IsActive() bool {
	return !e.Lifecycle.IsDeleted()
}

type entryAlias Entry

type entryJSON struct {
	entryAlias
	EntryableType EntryableType `json:"entryable_type"`
	EntryableID   string        `json:"entryable_id"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	out := entryJSON{entryAlias: entryAlias(e)}
	if e.Entryable != nil {
		out.EntryableType = e.Entryable.EntryableType()
		out.EntryableID = e.Entryable.EntryableID()
	}
	return json.Marshal(out)
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var in entryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*e = Entry(in.entryAlias)
	if in.EntryableType != "" {
		owner, err := ParseEntryable(in.EntryableType, in.EntryableID)
		if err != nil {
			return err
		}
		e.Entryable = owner
	}
	return nil
}
