package refdata

import (
	"time"

	"github.com/shopspring/decimal"
)

// NewRegistryWithDefaults returns a registry seeded with the built-in
// reference set. Production deployments load real records at startup instead;
// the defaults keep local development working out of the box.
func NewRegistryWithDefaults() *Registry {
	r := NewRegistry()

	for _, c := range []CurrencyInfo{
		{Code: "TWD", Decimals: 0, MinRemit: decimal.NewFromInt(1000)},
		{Code: "USD", Decimals: 2, MinRemit: decimal.NewFromInt(100)},
		{Code: "EUR", Decimals: 2, MinRemit: decimal.NewFromInt(100)},
		{Code: "JPY", Decimals: 0, MinRemit: decimal.NewFromInt(10000)},
	} {
		r.RegisterCurrency(c)
	}

	for _, f := range []FundInfo{
		{Code: "EQGL", Name: "Global Equity", Currency: "USD", MinAmount: decimal.NewFromInt(1000), Eligible: true},
		{Code: "EQAP", Name: "Asia Pacific Equity", Currency: "USD", MinAmount: decimal.NewFromInt(500), Eligible: true},
		{Code: "BDGV", Name: "Government Bond", Currency: "TWD", MinAmount: decimal.NewFromInt(10000), Eligible: true},
		{Code: "MMTW", Name: "TWD Money Market", Currency: "TWD", MinAmount: decimal.NewFromInt(1000), Eligible: true},
		{Code: "EQCL", Name: "Closed Legacy Equity", Currency: "USD", MinAmount: decimal.NewFromInt(1000), Eligible: false},
	} {
		r.RegisterFund(f)
	}

	for _, b := range []BankInfo{
		{Code: "004", Name: "Bank of Taiwan", Swift: "BKTWTWTP"},
		{Code: "007", Name: "First Commercial Bank", Swift: "FCBKTWTP"},
		{Code: "822", Name: "CTBC Bank", Swift: "CTCBTWTP"},
	} {
		r.RegisterBank(b)
	}

	r.RegisterPolicy(PolicyInfo{
		No:        "VL00000001",
		TermStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TermEnd:   time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	return r
}
