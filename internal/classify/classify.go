package classify

import "github.com/shopspring/decimal"

// Category returns the category label for texts, if any keyword matches.
func Category(idx Index, texts ...string) (string, bool) {
	return idx.Lookup(texts...)
}

// Payee returns incomeLabel for strictly positive amounts without looking at
// the text. Zero and negative amounts go through the payee keywords.
func Payee(idx Index, amount decimal.Decimal, incomeLabel string, texts ...string) (string, bool) {
	if amount.IsPositive() {
		return incomeLabel, true
	}
	return idx.Lookup(texts...)
}
