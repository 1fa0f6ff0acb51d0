// Package convert runs bank exports through parsing, classification and
// HomeBank export.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hbc-dev/hbc/internal/config"
	"github.com/hbc-dev/hbc/internal/history"
	"github.com/hbc-dev/hbc/internal/homebank"
	"github.com/hbc-dev/hbc/internal/importer"
	"github.com/hbc-dev/hbc/internal/model"
	"github.com/hbc-dev/hbc/internal/normalize"
)

// OutputSuffix is appended to the input file's base name.
const OutputSuffix = ".homebank.csv"

// Job is one input file to convert.
type Job struct {
	Bank   string
	Input  string
	Output string
}

// Report summarizes a converted file.
type Report struct {
	Job
	Lines   []model.AccountingLine
	Skipped []importer.RowError
}

// Converter converts bank exports to HomeBank CSV files.
type Converter struct {
	registry   *importer.Registry
	normalizer *normalize.Normalizer
	log        zerolog.Logger

	runID      string
	historyDir string
	now        func() time.Time
	historyMu  sync.Mutex
}

// New creates a Converter over a resolved config.
func New(cfg *config.Config, registry *importer.Registry, log zerolog.Logger, opts ...Option) *Converter {
	c := &Converter{
		registry:   registry,
		normalizer: normalize.NewNormalizer(cfg),
		log:        log,
		runID:      uuid.NewString(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunID identifies this converter's entries in the history file.
func (c *Converter) RunID() string { return c.runID }

// IsGenerated reports whether name is a file this package writes: a HomeBank
// export or the history file. Such files are never treated as bank exports.
func IsGenerated(name string) bool {
	base := strings.ToLower(filepath.Base(name))
	return base == history.FileName || strings.HasSuffix(base, OutputSuffix)
}

// ScanInputs lists the bank exports in dir, leaving out generated files.
func ScanInputs(dir string) ([]importer.FileInfo, error) {
	files, err := importer.Scan(dir)
	if err != nil {
		return nil, err
	}
	inputs := files[:0]
	for _, f := range files {
		if !IsGenerated(f.Name) {
			inputs = append(inputs, f)
		}
	}
	return inputs, nil
}

// OutputPath returns the export path for input inside outDir. An empty outDir
// means next to the input file.
func OutputPath(input, outDir string) string {
	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, stem+OutputSuffix)
}

// ConvertFile parses, classifies and exports one file. The bank id is matched
// case-insensitively. Undecodable rows are logged and skipped; a missing input
// file or unknown bank is an error.
func (c *Converter) ConvertFile(ctx context.Context, job Job) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	job.Bank = config.NormalizeID(job.Bank)
	log := c.log.With().Str("bank", job.Bank).Str("input", job.Input).Logger()

	parser, err := c.registry.Lookup(job.Bank)
	if err != nil {
		return Report{}, err
	}

	f, err := os.Open(job.Input)
	if err != nil {
		return Report{}, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	res, err := parser.Parse(f)
	if err != nil {
		return Report{}, fmt.Errorf("parsing %s: %w", job.Input, err)
	}
	for _, rowErr := range res.Skipped {
		log.Warn().Int("line", rowErr.Line).Err(rowErr.Err).Msg("skipping row")
	}

	lines := c.normalizer.Rules(job.Bank).ApplyAll(res.Transactions)
	if err := writeOutput(job.Output, lines); err != nil {
		return Report{}, err
	}

	rep := Report{Job: job, Lines: lines, Skipped: res.Skipped}
	if err := c.record(rep); err != nil {
		return rep, err
	}

	log.Info().
		Str("output", job.Output).
		Int("lines", len(lines)).
		Int("skipped", len(res.Skipped)).
		Msg("converted")
	return rep, nil
}

// ConvertAll converts jobs with at most workers files in flight. Reports are
// returned in job order. The first failing job cancels the rest.
func (c *Converter) ConvertAll(ctx context.Context, jobs []Job, workers int) ([]Report, error) {
	if workers < 1 {
		workers = 1
	}
	reports := make([]Report, len(jobs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			rep, err := c.ConvertFile(gCtx, job)
			if err != nil {
				return fmt.Errorf("%s: %w", job.Input, err)
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func writeOutput(path string, lines []model.AccountingLine) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := homebank.WriteLines(f, lines); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

func (c *Converter) record(rep Report) error {
	if c.historyDir == "" {
		return nil
	}
	c.historyMu.Lock()
	defer c.historyMu.Unlock()

	entry := history.Entry{
		Timestamp: c.now().UTC(),
		RunID:     c.runID,
		Bank:      rep.Bank,
		Source:    rep.Input,
		Output:    rep.Output,
		Lines:     len(rep.Lines),
		Skipped:   len(rep.Skipped),
	}
	if err := history.Append(c.historyDir, []history.Entry{entry}); err != nil {
		return fmt.Errorf("recording history: %w", err)
	}
	return nil
}
