// Package homebank reads and writes the HomeBank CSV import format.
package homebank

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hbc-dev/hbc/internal/model"
)

// Header is the first row of an exported file.
const Header = "date;payment;info;payee;memo;amount;category;tags"

const (
	numFields   = 8
	separator   = ';'
	dateFormat  = "2006-01-02"
	colDate     = 0
	colPayment  = 1
	colInfo     = 2
	colPayee    = 3
	colMemo     = 4
	colAmount   = 5
	colCategory = 6
	colTags     = 7
)

// ReadLines reads all lines from a HomeBank CSV reader.
func ReadLines(r io.Reader) ([]model.AccountingLine, error) {
	cr := csv.NewReader(r)
	cr.Comma = separator
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading homebank CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var lines []model.AccountingLine
	for i, rec := range records[1:] {
		line, err := UnmarshalLine(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// WriteLines writes lines to w, header first.
func WriteLines(w io.Writer, lines []model.AccountingLine) error {
	cw := csv.NewWriter(w)
	cw.Comma = separator
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, string(separator))); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, line := range lines {
		if err := cw.Write(MarshalLine(line)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalLine converts an AccountingLine to a CSV row.
func MarshalLine(line model.AccountingLine) []string {
	row := make([]string, numFields)
	row[colDate] = line.Date.Format(dateFormat)
	row[colPayment] = strconv.Itoa(line.Payment)
	row[colInfo] = line.Info
	row[colPayee] = line.Payee
	row[colMemo] = line.Memo
	row[colAmount] = line.Amount.StringFixed(2)
	row[colCategory] = line.Category
	row[colTags] = line.TagString()
	return row
}

// UnmarshalLine converts a CSV row to an AccountingLine.
func UnmarshalLine(record []string) (model.AccountingLine, error) {
	if len(record) != numFields {
		return model.AccountingLine{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.AccountingLine{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	payment, err := strconv.Atoi(record[colPayment])
	if err != nil {
		return model.AccountingLine{}, fmt.Errorf("parsing payment %q: %w", record[colPayment], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.AccountingLine{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	return model.AccountingLine{
		Date:     date,
		Payment:  payment,
		Info:     record[colInfo],
		Payee:    record[colPayee],
		Memo:     record[colMemo],
		Amount:   amount,
		Category: record[colCategory],
		Tags:     strings.Fields(record[colTags]),
	}, nil
}
