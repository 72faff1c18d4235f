package fxrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jive/ledgerengine/internal/domain"
)

// inversePrecision is the number of decimal places kept when a rate is derived
// from its configured reverse pair.
const inversePrecision = 10

type pair struct {
	from, to domain.Currency
}

// StaticProvider serves rates from a fixed table. The table is date-agnostic.
type StaticProvider struct {
	rates map[pair]decimal.Decimal
}

// NewStaticProvider creates an empty table.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{rates: make(map[pair]decimal.Decimal)}
}

// ParseRates builds a table from "FROM_TO" keys and decimal values, the shape
// of the FX_RATES setting.
func ParseRates(raw map[string]string) (*StaticProvider, error) {
	p := NewStaticProvider()
	for key, value := range raw {
		codes := strings.Split(key, "_")
		if len(codes) != 2 {
			return nil, fmt.Errorf("%w: rate key %q must look like USD_EUR", domain.ErrInvalidFxSpec, key)
		}
		from, err := domain.ParseCurrency(codes[0])
		if err != nil {
			return nil, fmt.Errorf("rate key %q: %w", key, err)
		}
		to, err := domain.ParseCurrency(codes[1])
		if err != nil {
			return nil, fmt.Errorf("rate key %q: %w", key, err)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%w: rate %s=%q: %v", domain.ErrInvalidFxSpec, key, value, err)
		}
		if err := p.Set(from, to, rate); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Set stores the rate converting one unit of from into to.
func (p *StaticProvider) Set(from, to domain.Currency, rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return fmt.Errorf("%w: rate %s->%s must be positive", domain.ErrInvalidFxSpec, from, to)
	}
	p.rates[pair{from, to}] = rate
	return nil
}

// Len returns the number of configured pairs.
func (p *StaticProvider) Len() int {
	return len(p.rates)
}

// Rate implements usecase.RateProvider. A missing pair falls back to the
// inverse of the reverse pair.
func (p *StaticProvider) Rate(_ context.Context, from, to domain.Currency, _ time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if rate, ok := p.rates[pair{from, to}]; ok {
		return rate, nil
	}
	if rate, ok := p.rates[pair{to, from}]; ok {
		return decimal.NewFromInt(1).DivRound(rate, inversePrecision), nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s->%s", domain.ErrFxRateUnavailable, from, to)
}
