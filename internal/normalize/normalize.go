// Package normalize turns parsed bank transactions into classified
// HomeBank accounting lines.
package normalize

import (
	"sync"

	"github.com/hbc-dev/hbc/internal/classify"
	"github.com/hbc-dev/hbc/internal/config"
	"github.com/hbc-dev/hbc/internal/model"
)

// UnknownPayee is used when no payee keyword matches an expense.
const UnknownPayee = "{{ UNKNOWN - I HAVE NO CLUE }}"

// Rules holds the keyword indices built from one bank's config. A Rules value
// is read-only and can be shared between goroutines.
type Rules struct {
	income          string
	defaultCategory string
	payees          classify.Index
	categories      classify.Index
}

// NewRules builds the payee and category indices for cfg.
func NewRules(cfg config.BankConfig) *Rules {
	return &Rules{
		income:          cfg.Income,
		defaultCategory: cfg.Category.Default,
		payees:          classify.Build(cfg.Payee.Mapping),
		categories:      classify.Build(cfg.Category.Mapping),
	}
}

// Apply classifies tx. It never fails: unmatched transactions get the
// default category and UnknownPayee.
func (r *Rules) Apply(tx model.Transaction) model.AccountingLine {
	payee, ok := classify.Payee(r.payees, tx.Amount, r.income, tx.Text)
	if !ok {
		payee = UnknownPayee
	}
	category, ok := classify.Category(r.categories, tx.Text)
	if !ok {
		category = r.defaultCategory
	}

	return model.AccountingLine{
		Date:     tx.Date,
		Payment:  model.PaymentNone,
		Payee:    payee,
		Memo:     tx.Text,
		Amount:   tx.Amount,
		Category: category,
		Tags:     []string{},
	}
}

// ApplyAll classifies every transaction in order.
func (r *Rules) ApplyAll(txns []model.Transaction) []model.AccountingLine {
	lines := make([]model.AccountingLine, len(txns))
	for i, tx := range txns {
		lines[i] = r.Apply(tx)
	}
	return lines
}

// Normalize classifies a single transaction, building the indices on the fly.
// Use Rules or Normalizer when converting more than one transaction.
func Normalize(tx model.Transaction, cfg config.BankConfig) model.AccountingLine {
	return NewRules(cfg).Apply(tx)
}

// Normalizer caches Rules per bank id.
type Normalizer struct {
	cfg *config.Config

	mu    sync.Mutex
	rules map[string]*Rules
}

// NewNormalizer creates a Normalizer over a resolved config.
func NewNormalizer(cfg *config.Config) *Normalizer {
	return &Normalizer{cfg: cfg, rules: make(map[string]*Rules)}
}

// Rules returns the cached rules for bank, building them on first use.
func (n *Normalizer) Rules(bank string) *Rules {
	bank = config.NormalizeID(bank)
	n.mu.Lock()
	defer n.mu.Unlock()

	r, ok := n.rules[bank]
	if !ok {
		r = NewRules(n.cfg.Bank(bank))
		n.rules[bank] = r
	}
	return r
}

// Line classifies tx with the rules of bank.
func (n *Normalizer) Line(bank string, tx model.Transaction) model.AccountingLine {
	return n.Rules(bank).Apply(tx)
}
