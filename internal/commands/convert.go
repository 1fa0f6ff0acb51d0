package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/hbc-dev/hbc/internal/convert"
	"github.com/hbc-dev/hbc/internal/importer"
)

type convertOptions struct {
	bank    string
	outDir  string
	dir     string
	workers int
	move    bool
	history bool
}

func newConvertCommand(global *globalOptions) *cobra.Command {
	opts := convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert [file...]",
		Short: "Convert bank CSV exports to HomeBank CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.dir == "" {
				return errors.New("no input: pass files or --dir")
			}
			if opts.move && opts.dir == "" {
				return errors.New("--move requires --dir")
			}
			return runConvert(cmd, global, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.bank, "bank", "b", "bawag", "bank export format and config entry")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "output directory (default next to each input)")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "convert every CSV file in this directory")
	cmd.Flags().IntVar(&opts.workers, "workers", runtime.NumCPU(), "files converted in parallel")
	cmd.Flags().BoolVar(&opts.move, "move", false, "move files converted from --dir to <dir>/processed")
	cmd.Flags().BoolVar(&opts.history, "history", false, "append converted files to history.csv in the output directory")

	return cmd
}

func runConvert(cmd *cobra.Command, global *globalOptions, opts convertOptions, args []string) error {
	cfg, log, err := global.load(cmd)
	if err != nil {
		return err
	}

	inputs := append([]string(nil), args...)
	scanned := make(map[string]struct{})
	if opts.dir != "" {
		files, err := convert.ScanInputs(opts.dir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			log.Warn().Str("dir", opts.dir).Msg("no CSV files found")
		}
		for _, f := range files {
			inputs = append(inputs, f.Path)
			scanned[f.Path] = struct{}{}
		}
	}

	if !cfg.Has(opts.bank) {
		log.Debug().Str("bank", opts.bank).Msg("no bank entry in config, using default")
	}

	var convOpts []convert.Option
	if opts.history {
		convOpts = append(convOpts, convert.WithHistory(historyDir(opts, inputs)))
	}
	conv := convert.New(cfg, importer.DefaultRegistry(), log, convOpts...)

	jobs := make([]convert.Job, len(inputs))
	for i, in := range inputs {
		jobs[i] = convert.Job{Bank: opts.bank, Input: in, Output: convert.OutputPath(in, opts.outDir)}
	}

	reports, err := conv.ConvertAll(cmd.Context(), jobs, opts.workers)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, rep := range reports {
		fmt.Fprintf(out, "%s -> %s (%d lines, %d skipped)\n", rep.Input, rep.Output, len(rep.Lines), len(rep.Skipped))
		if _, ok := scanned[rep.Input]; ok && opts.move {
			if err := importer.MarkProcessed(opts.dir, filepath.Base(rep.Input)); err != nil {
				log.Warn().Err(err).Str("input", rep.Input).Msg("move failed")
			}
		}
	}
	return nil
}

func historyDir(opts convertOptions, inputs []string) string {
	switch {
	case opts.outDir != "":
		return opts.outDir
	case opts.dir != "":
		return opts.dir
	case len(inputs) > 0:
		return filepath.Dir(inputs[0])
	default:
		return "."
	}
}
