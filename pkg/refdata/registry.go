package refdata

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/amirasaad/appointments/pkg/registry"
	"github.com/shopspring/decimal"
)

// DateLayout is the format reference dates are stored and rendered in.
const DateLayout = "2006-01-02"

// Registry is an in-memory Gateway backed by one generic registry per record
// kind. It is safe for concurrent use and is seeded once at startup.
type Registry struct {
	funds      *registry.Registry
	policies   *registry.Registry
	banks      *registry.Registry
	currencies *registry.Registry
}

// NewRegistry creates an empty reference data registry.
func NewRegistry() *Registry {
	return &Registry{
		funds:      registry.New(),
		policies:   registry.New(),
		banks:      registry.New(),
		currencies: registry.New(),
	}
}

// RegisterFund adds or replaces a fund record. The fund's eligibility maps to
// the registry active flag.
func (r *Registry) RegisterFund(f FundInfo) {
	r.funds.Register(f.Code, registry.Meta{
		Name:   f.Name,
		Active: f.Eligible,
		Metadata: map[string]string{
			"currency":   f.Currency,
			"min_amount": f.MinAmount.String(),
		},
	})
}

// RegisterPolicy adds or replaces a policy record.
func (r *Registry) RegisterPolicy(p PolicyInfo) {
	r.policies.Register(p.No, registry.Meta{
		Name:   p.No,
		Active: true,
		Metadata: map[string]string{
			"term_start": p.TermStart.Format(DateLayout),
			"term_end":   p.TermEnd.Format(DateLayout),
		},
	})
}

// RegisterBank adds or replaces a bank record.
func (r *Registry) RegisterBank(b BankInfo) {
	r.banks.Register(b.Code, registry.Meta{
		Name:   b.Name,
		Active: true,
		Metadata: map[string]string{
			"swift": b.Swift,
		},
	})
}

// RegisterCurrency adds or replaces a currency record.
func (r *Registry) RegisterCurrency(c CurrencyInfo) {
	r.currencies.Register(c.Code, registry.Meta{
		Name:   c.Code,
		Active: true,
		Metadata: map[string]string{
			"decimals":  strconv.Itoa(c.Decimals),
			"min_remit": c.MinRemit.String(),
		},
	})
}

// Fund implements FundResolver.
func (r *Registry) Fund(_ context.Context, code string) (*FundInfo, error) {
	meta, ok := r.funds.Get(code)
	if !ok {
		return nil, ErrNotFound
	}
	minAmount, _ := decimal.NewFromString(meta.Metadata["min_amount"])
	return &FundInfo{
		Code:      meta.ID,
		Name:      meta.Name,
		Currency:  meta.Metadata["currency"],
		MinAmount: minAmount,
		Eligible:  meta.Active,
	}, nil
}

// Policy implements PolicyResolver.
func (r *Registry) Policy(_ context.Context, no string) (*PolicyInfo, error) {
	meta, ok := r.policies.Get(no)
	if !ok {
		return nil, ErrNotFound
	}
	start, err := time.Parse(DateLayout, meta.Metadata["term_start"])
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(DateLayout, meta.Metadata["term_end"])
	if err != nil {
		return nil, err
	}
	return &PolicyInfo{No: meta.ID, TermStart: start, TermEnd: end}, nil
}

// Bank implements BankResolver.
func (r *Registry) Bank(_ context.Context, code string) (*BankInfo, error) {
	meta, ok := r.banks.Get(code)
	if !ok {
		return nil, ErrNotFound
	}
	return &BankInfo{
		Code:  meta.ID,
		Name:  meta.Name,
		Swift: meta.Metadata["swift"],
	}, nil
}

// Currency implements CurrencyResolver.
func (r *Registry) Currency(_ context.Context, code string) (*CurrencyInfo, error) {
	meta, ok := r.currencies.Get(code)
	if !ok {
		return nil, ErrNotFound
	}
	decimals := 2
	if v, found := meta.Metadata["decimals"]; found {
		if d, err := strconv.Atoi(v); err == nil {
			decimals = d
		}
	}
	minRemit, _ := decimal.NewFromString(meta.Metadata["min_remit"])
	return &CurrencyInfo{Code: meta.ID, Decimals: decimals, MinRemit: minRemit}, nil
}

// Counts returns the number of registered funds, policies, banks, and
// currencies, in that order. Used by the initializer to decide whether to
// seed defaults.
func (r *Registry) Counts() (funds, policies, banks, currencies int) {
	return r.funds.Count(), r.policies.Count(), r.banks.Count(), r.currencies.Count()
}

// Funds returns every registered fund ordered by code.
func (r *Registry) Funds(ctx context.Context) ([]*FundInfo, error) {
	codes := r.funds.ListRegistered()
	sort.Strings(codes)
	out := make([]*FundInfo, 0, len(codes))
	for _, code := range codes {
		fund, err := r.Fund(ctx, code)
		if err != nil {
			return nil, err
		}
		out = append(out, fund)
	}
	return out, nil
}

// Policies returns every registered policy ordered by number.
func (r *Registry) Policies(ctx context.Context) ([]*PolicyInfo, error) {
	nos := r.policies.ListRegistered()
	sort.Strings(nos)
	out := make([]*PolicyInfo, 0, len(nos))
	for _, no := range nos {
		pol, err := r.Policy(ctx, no)
		if err != nil {
			return nil, err
		}
		out = append(out, pol)
	}
	return out, nil
}

// Banks returns every registered bank ordered by code.
func (r *Registry) Banks(ctx context.Context) ([]*BankInfo, error) {
	codes := r.banks.ListRegistered()
	sort.Strings(codes)
	out := make([]*BankInfo, 0, len(codes))
	for _, code := range codes {
		bank, err := r.Bank(ctx, code)
		if err != nil {
			return nil, err
		}
		out = append(out, bank)
	}
	return out, nil
}

// Currencies returns every registered currency ordered by code.
func (r *Registry) Currencies(ctx context.Context) ([]*CurrencyInfo, error) {
	codes := r.currencies.ListRegistered()
	sort.Strings(codes)
	out := make([]*CurrencyInfo, 0, len(codes))
	for _, code := range codes {
		cur, err := r.Currency(ctx, code)
		if err != nil {
			return nil, err
		}
		out = append(out, cur)
	}
	return out, nil
}

var _ Gateway = (*Registry)(nil)
