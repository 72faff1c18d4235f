package usecase

import "github.com/jive/ledgerengine/internal/domain"

// DefaultOverdraftKinds are the account kinds allowed to go negative when no
// configuration is supplied.
var DefaultOverdraftKinds = []domain.AccountKind{
	domain.AccountKindCreditCard,
	domain.AccountKindLoan,
	domain.AccountKindLiability,
}

// KindOverdraftPolicy allows a negative balance for a configured set of kinds.
type KindOverdraftPolicy struct {
	allowed map[domain.AccountKind]bool
}

// NewKindOverdraftPolicy creates a policy permitting overdraft for kinds.
func NewKindOverdraftPolicy(kinds ...domain.AccountKind) *KindOverdraftPolicy {
	allowed := make(map[domain.AccountKind]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}
	return &KindOverdraftPolicy{allowed: allowed}
}

// ParseOverdraftPolicy builds a policy from configured kind names.
func ParseOverdraftPolicy(kinds []string) (*KindOverdraftPolicy, error) {
	parsed := make([]domain.AccountKind, 0, len(kinds))
	for _, k := range kinds {
		kind, err := domain.ParseAccountKind(k)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, kind)
	}
	return NewKindOverdraftPolicy(parsed...), nil
}

// AllowsNegative implements OverdraftPolicy.
func (p *KindOverdraftPolicy) AllowsNegative(kind domain.AccountKind) bool {
	return p.allowed[kind]
}
