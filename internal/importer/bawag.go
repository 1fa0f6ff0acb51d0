package importer

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/hbc-dev/hbc/internal/model"
)

// BawagParser parses BAWAG P.S.K. account exports: ";" separated, no header,
// no quoting. A '"' is ordinary text, so every physical line is one row.
type BawagParser struct{}

const (
	bawagSep         = ";"
	bawagMinFields   = 5
	bawagColIBAN     = 0
	bawagColText     = 1
	bawagColDate     = 2
	bawagColAmount   = 4
	bawagColCurrency = 5
)

// Format returns the parser name.
func (p *BawagParser) Format() string { return "bawag" }

// Parse reads a BAWAG CSV. Rows that cannot be decoded are skipped and
// reported in the result. Blank lines are ignored.
func (p *BawagParser) Parse(r io.Reader) (Result, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var res Result
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSuffix(sc.Text(), "\r")
		if line == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		txn, err := parseBawagRow(strings.Split(text, bawagSep))
		if err != nil {
			res.Skipped = append(res.Skipped, RowError{Line: line, Err: err})
			continue
		}
		res.Transactions = append(res.Transactions, txn)
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("reading bawag CSV: %w", err)
	}
	return res, nil
}

func parseBawagRow(rec []string) (model.Transaction, error) {
	if len(rec) < bawagMinFields {
		return model.Transaction{}, fmt.Errorf("expected at least %d fields, got %d", bawagMinFields, len(rec))
	}

	date, err := ParseGermanDate(rec[bawagColDate])
	if err != nil {
		return model.Transaction{}, err
	}

	amount, err := ParseGermanAmount(rec[bawagColAmount])
	if err != nil {
		return model.Transaction{}, err
	}

	var currency string
	if len(rec) > bawagColCurrency {
		currency = strings.TrimSpace(rec[bawagColCurrency])
	}

	return model.Transaction{
		AccountID: rec[bawagColIBAN],
		Text:      rec[bawagColText],
		Date:      date,
		Amount:    amount,
		Currency:  currency,
	}, nil
}
