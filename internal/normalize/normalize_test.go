package normalize

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbc-dev/hbc/internal/config"
	"github.com/hbc-dev/hbc/internal/model"
)

func bankConfig() config.BankConfig {
	return config.BankConfig{
		Income: "Employer",
		Category: config.CategoryConfig{
			Default: "Unknown",
			Mapping: map[string][]string{
				"Family":      {"Kill Bill"},
				"Maintenance": {"Dish Washer", "Bath Room"},
				"Repairs":     {"dish washer repair"},
			},
		},
		Payee: config.PayeeConfig{
			Mapping: map[string][]string{
				"Company":     {"gmbh"},
				"ABC Company": {"abc gmbh"},
			},
		},
	}
}

func txn(text, amount string) model.Transaction {
	return model.Transaction{
		AccountID: "AT1",
		Text:      text,
		Date:      time.Date(2020, 5, 26, 0, 0, 0, 0, time.UTC),
		Amount:    decimal.RequireFromString(amount),
		Currency:  "EUR",
	}
}

func TestNormalize_Matches(t *testing.T) {
	line := Normalize(txn("buy kill bill at ABC GmbH", "-15.39"), bankConfig())

	assert.Equal(t, "Family", line.Category)
	assert.Equal(t, "ABC Company", line.Payee, "longest payee keyword wins")
	assert.Equal(t, "buy kill bill at ABC GmbH", line.Memo)
	assert.Equal(t, "-15.39", line.Amount.String())
	assert.Equal(t, "2020-05-26", line.Date.Format("2006-01-02"))
	assert.Empty(t, line.Tags)
	assert.NotNil(t, line.Tags)
	assert.Equal(t, model.PaymentNone, line.Payment)
	assert.Empty(t, line.Info)
}

func TestNormalize_Fallbacks(t *testing.T) {
	line := Normalize(txn("nothing found", "-3.00"), bankConfig())

	assert.Equal(t, "Unknown", line.Category)
	assert.Equal(t, UnknownPayee, line.Payee)
}

func TestNormalize_Income(t *testing.T) {
	line := Normalize(txn("Gehalt ABC GmbH", "2345.67"), bankConfig())
	assert.Equal(t, "Employer", line.Payee)
	assert.Equal(t, "Unknown", line.Category, "income still goes through category keywords")
}

func TestNormalize_ZeroAmountIsNotIncome(t *testing.T) {
	line := Normalize(txn("storno", "0"), bankConfig())
	assert.Equal(t, UnknownPayee, line.Payee)
}

func TestNormalize_LongestCategoryFirst(t *testing.T) {
	line := Normalize(txn("Dish Washer Repair Service", "-99"), bankConfig())
	assert.Equal(t, "Repairs", line.Category)

	line = Normalize(txn("new dish washer", "-499"), bankConfig())
	assert.Equal(t, "Maintenance", line.Category)
}

func TestRules_ApplyAll(t *testing.T) {
	r := NewRules(bankConfig())
	lines := r.ApplyAll([]model.Transaction{
		txn("kill bill", "-1"),
		txn("bath room tiles", "-2"),
		txn("xyz", "-3"),
	})

	require.Len(t, lines, 3)
	assert.Equal(t, []string{"Family", "Maintenance", "Unknown"},
		[]string{lines[0].Category, lines[1].Category, lines[2].Category})
}

func TestNormalizer_CachesPerBank(t *testing.T) {
	income := "Employer"
	raw := config.Raw{
		config.DefaultBank: {Category: &config.RawCategory{Mapping: map[string][]string{"Family": {"Joe"}}}},
		"bawag":            {Income: &income, Category: &config.RawCategory{Mapping: map[string][]string{"Family": {"Jill"}}}},
	}
	banks, err := config.Resolve(raw)
	require.NoError(t, err)
	n := NewNormalizer(config.New(banks))

	assert.Same(t, n.Rules("bawag"), n.Rules("bawag"))
	assert.Same(t, n.Rules("bawag"), n.Rules("BAWAG"))
	assert.Equal(t, "Family", n.Line("Bawag", txn("for Jill", "-1")).Category)
	assert.NotSame(t, n.Rules("bawag"), n.Rules(config.DefaultBank))

	assert.Equal(t, "Family", n.Line("bawag", txn("for Jill", "-1")).Category)
	assert.Equal(t, "Unknown", n.Line("bawag", txn("for Joe", "-1")).Category)
	assert.Equal(t, "Family", n.Line("easybank", txn("for Joe", "-1")).Category, "unknown bank uses default")
	assert.Equal(t, "Employer", n.Line("bawag", txn("refund", "5")).Payee)
	assert.Equal(t, "Unknown", n.Line(config.DefaultBank, txn("refund", "5")).Payee)
}

func TestNormalizer_Concurrent(t *testing.T) {
	n := NewNormalizer(config.New(map[string]config.BankConfig{"bawag": bankConfig()}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.Equal(t, "Family", n.Line("bawag", txn("kill bill", "-1")).Category)
			}
		}()
	}
	wg.Wait()
}
