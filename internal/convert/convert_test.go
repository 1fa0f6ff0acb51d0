package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbc-dev/hbc/internal/config"
	"github.com/hbc-dev/hbc/internal/history"
	"github.com/hbc-dev/hbc/internal/homebank"
	"github.com/hbc-dev/hbc/internal/importer"
	"github.com/hbc-dev/hbc/internal/normalize"
)

const testConfig = `
default:
  income: Salary
  category:
    default: Unknown
    mapping:
      Groceries: [billa]
  payee:
    mapping:
      Company: [gmbh]
      Company Place: [company gmbh]
bawag:
  income: Employer
  category:
    mapping:
      Household: [some other text]
`

var testTime = time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)

func newConverter(t *testing.T, opts ...Option) *Converter {
	t.Helper()
	raw, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)
	banks, err := config.Resolve(raw)
	require.NoError(t, err)

	opts = append([]Option{WithClock(func() time.Time { return testTime }), WithRunID("run-1")}, opts...)
	return New(config.New(banks), importer.DefaultRegistry(), zerolog.Nop(), opts...)
}

func readOutput(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	lines, err := homebank.ReadLines(f)
	require.NoError(t, err)
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = fmt.Sprintf("%s|%s|%s|%s", l.Date.Format("2006-01-02"), l.Payee, l.Category, l.Amount.StringFixed(2))
	}
	return out
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("in", "may.homebank.csv"), OutputPath(filepath.Join("in", "may.csv"), ""))
	assert.Equal(t, filepath.Join("out", "may.homebank.csv"), OutputPath(filepath.Join("in", "may.CSV"), "out"))
}

func TestConvertFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "bawag.homebank.csv")
	c := newConverter(t)

	rep, err := c.ConvertFile(context.Background(), Job{Bank: "bawag", Input: "../../testdata/bawag.csv", Output: out})
	require.NoError(t, err)
	assert.Len(t, rep.Lines, 4)
	assert.Empty(t, rep.Skipped)

	assert.Equal(t, []string{
		"2020-05-26|" + normalize.UnknownPayee + "|Unknown|-15.39",
		"2020-05-25|" + normalize.UnknownPayee + "|Household|-880.00",
		"2020-05-25|Company Place|Unknown|-2.40",
		"2020-05-28|Employer|Unknown|2345.67",
	}, readOutput(t, out))
}

func TestConvertFile_SkipsBadRows(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte("AT1;BILLA;01.06.2020;01.06.2020;-1,00;EUR\nAT1;broken;99.99.2020;;-1,00;EUR\n"), 0o644))

	rep, err := newConverter(t).ConvertFile(context.Background(), Job{Bank: "bawag", Input: in, Output: OutputPath(in, "")})
	require.NoError(t, err)
	assert.Len(t, rep.Lines, 1)
	require.Len(t, rep.Skipped, 1)
	assert.Equal(t, 2, rep.Skipped[0].Line)
	assert.Equal(t, []string{"2020-06-01|" + normalize.UnknownPayee + "|Groceries|-1.00"}, readOutput(t, OutputPath(in, "")))
}

func TestConvertFile_MissingInput(t *testing.T) {
	_, err := newConverter(t).ConvertFile(context.Background(), Job{Bank: "bawag", Input: filepath.Join(t.TempDir(), "nope.csv"), Output: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConvertFile_UnknownBank(t *testing.T) {
	_, err := newConverter(t).ConvertFile(context.Background(), Job{Bank: "chase", Input: "../../testdata/bawag.csv", Output: "x"})
	assert.ErrorIs(t, err, importer.ErrUnknownFormat)
}

func TestConvertFile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newConverter(t).ConvertFile(ctx, Job{Bank: "bawag", Input: "../../testdata/bawag.csv", Output: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvertFile_BankIDIgnoresCase(t *testing.T) {
	out := filepath.Join(t.TempDir(), "bawag.homebank.csv")

	rep, err := newConverter(t).ConvertFile(context.Background(), Job{Bank: "BAWAG", Input: "../../testdata/bawag.csv", Output: out})
	require.NoError(t, err)
	assert.Equal(t, "bawag", rep.Bank)

	lines := readOutput(t, out)
	require.Len(t, lines, 4)
	assert.Equal(t, "2020-05-25|"+normalize.UnknownPayee+"|Household|-880.00", lines[1])
	assert.Equal(t, "2020-05-28|Employer|Unknown|2345.67", lines[3])
}

func TestIsGenerated(t *testing.T) {
	assert.True(t, IsGenerated("history.csv"))
	assert.True(t, IsGenerated(filepath.Join("out", "History.CSV")))
	assert.True(t, IsGenerated("may.homebank.csv"))
	assert.True(t, IsGenerated("may.HomeBank.csv"))
	assert.False(t, IsGenerated("may.csv"))
	assert.False(t, IsGenerated("homebank.csv"))
}

func TestScanInputs_SkipsGeneratedFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"may.csv", "may.homebank.csv", history.FileName, "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(row), 0o644))
	}

	files, err := ScanInputs(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "may.csv", files[0].Name)
}

func TestConvertFile_RecordsHistory(t *testing.T) {
	dir := t.TempDir()
	c := newConverter(t, WithHistory(dir))

	_, err := c.ConvertFile(context.Background(), Job{Bank: "bawag", Input: "../../testdata/bawag.csv", Output: filepath.Join(dir, "a.homebank.csv")})
	require.NoError(t, err)

	entries, err := history.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run-1", entries[0].RunID)
	assert.Equal(t, "bawag", entries[0].Bank)
	assert.Equal(t, 4, entries[0].Lines)
	assert.Equal(t, 0, entries[0].Skipped)
	assert.True(t, testTime.Equal(entries[0].Timestamp))
}

func TestConvertAll(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	data, err := os.ReadFile("../../testdata/bawag.csv")
	require.NoError(t, err)

	var jobs []Job
	for i := 0; i < 6; i++ {
		in := filepath.Join(inDir, fmt.Sprintf("export-%d.csv", i))
		require.NoError(t, os.WriteFile(in, data, 0o644))
		jobs = append(jobs, Job{Bank: "bawag", Input: in, Output: OutputPath(in, outDir)})
	}

	c := newConverter(t, WithHistory(outDir))
	reports, err := c.ConvertAll(context.Background(), jobs, 3)
	require.NoError(t, err)
	require.Len(t, reports, 6)
	for i, rep := range reports {
		assert.Equal(t, jobs[i].Input, rep.Input, "reports keep job order")
		assert.Len(t, rep.Lines, 4)
		assert.Len(t, readOutput(t, jobs[i].Output), 4)
	}

	entries, err := history.Read(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 6)
}

func TestConvertAll_FailsOnMissingFile(t *testing.T) {
	out := t.TempDir()
	jobs := []Job{
		{Bank: "bawag", Input: "../../testdata/bawag.csv", Output: filepath.Join(out, "ok.homebank.csv")},
		{Bank: "bawag", Input: filepath.Join(out, "missing.csv"), Output: filepath.Join(out, "missing.homebank.csv")},
	}
	_, err := newConverter(t).ConvertAll(context.Background(), jobs, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.csv")
}

func TestNew_GeneratesRunID(t *testing.T) {
	a := New(config.Default(), importer.DefaultRegistry(), zerolog.Nop())
	b := New(config.Default(), importer.DefaultRegistry(), zerolog.Nop())
	assert.NotEmpty(t, a.RunID())
	assert.NotEqual(t, a.RunID(), b.RunID())
}
