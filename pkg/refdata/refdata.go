// Package refdata provides read-only lookups for the reference records the
// appointment engine validates against: investment funds, policies, banks,
// and currencies. The engine only consumes these interfaces; it never writes
// reference data.
package refdata

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a reference record does not exist.
var ErrNotFound = errors.New("reference data not found")

// FundInfo describes an investment fund an allocation leg may reference.
type FundInfo struct {
	Code      string
	Name      string
	Currency  string
	MinAmount decimal.Decimal
	// Eligible is false once a fund stops accepting new allocations.
	Eligible bool
}

// PolicyInfo carries the policy attributes the engine validates against.
type PolicyInfo struct {
	No        string
	TermStart time.Time
	TermEnd   time.Time
}

// BankInfo describes a bank a remittance may be disbursed to.
type BankInfo struct {
	Code  string
	Name  string
	Swift string
}

// CurrencyInfo carries currency precision and the minimum remittance amount.
type CurrencyInfo struct {
	Code     string
	Decimals int
	MinRemit decimal.Decimal
}

// FundResolver resolves fund codes.
type FundResolver interface {
	Fund(ctx context.Context, code string) (*FundInfo, error)
}

// PolicyResolver resolves policy numbers.
type PolicyResolver interface {
	Policy(ctx context.Context, no string) (*PolicyInfo, error)
}

// BankResolver resolves bank codes.
type BankResolver interface {
	Bank(ctx context.Context, code string) (*BankInfo, error)
}

// CurrencyResolver resolves currency codes.
type CurrencyResolver interface {
	Currency(ctx context.Context, code string) (*CurrencyInfo, error)
}

// Gateway bundles every resolver the lifecycle manager needs.
type Gateway interface {
	FundResolver
	PolicyResolver
	BankResolver
	CurrencyResolver
}
