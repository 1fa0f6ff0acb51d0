package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hbc-dev/hbc/internal/config"
	"github.com/hbc-dev/hbc/internal/importer"
)

// WatchOptions controls Watch.
type WatchOptions struct {
	Bank   string
	OutDir string
	// Move converted inputs to <dir>/processed.
	Move bool
	// Quiet period after the last write before a file is converted.
	Debounce time.Duration
	// Called after every conversion attempt.
	OnConverted func(Report, error)
}

const defaultDebounce = 200 * time.Millisecond

// ConvertedDir is the output subdirectory Watch uses when no output dir is set.
const ConvertedDir = "converted"

// WatchOutDir returns the directory Watch writes exports for dir to.
func WatchOutDir(dir, outDir string) string {
	if outDir != "" {
		return outDir
	}
	return filepath.Join(dir, ConvertedDir)
}

// Watch converts CSV files already in dir, then every CSV file created or
// written in dir until ctx is cancelled. Exports and history files are
// ignored even when they are written into dir. Conversion failures are logged
// and do not stop the watcher.
func (c *Converter) Watch(ctx context.Context, dir string, opts WatchOptions) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	if opts.OutDir != "" {
		absOut, err := filepath.Abs(opts.OutDir)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}
		if absOut == absDir {
			return errors.New("output dir must differ from the watched dir")
		}
	}
	opts.Bank = config.NormalizeID(opts.Bank)
	if _, err := c.registry.Lookup(opts.Bank); err != nil {
		return err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(absDir); err != nil {
		return fmt.Errorf("watching %s: %w", absDir, err)
	}
	c.log.Info().Str("dir", absDir).Str("bank", opts.Bank).Msg("watcher: started")

	existing, err := ScanInputs(absDir)
	if err != nil {
		return err
	}
	for _, f := range existing {
		c.convertWatched(ctx, absDir, f.Path, opts)
	}

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(opts.Debounce)
			timerCh = timer.C
		} else {
			timer.Reset(opts.Debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			c.log.Info().Msg("watcher: stopped")
			return nil

		case <-timerCh:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			for _, p := range paths {
				if info, err := os.Stat(p); err != nil || info.IsDir() {
					continue
				}
				c.convertWatched(ctx, absDir, p, opts)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !importer.IsCSV(ev.Name) || IsGenerated(ev.Name) {
				continue
			}
			pending[ev.Name] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.log.Error().Err(watchErr).Msg("watcher: error")
		}
	}
}

func (c *Converter) convertWatched(ctx context.Context, dir, path string, opts WatchOptions) {
	job := Job{Bank: opts.Bank, Input: path, Output: OutputPath(path, WatchOutDir(dir, opts.OutDir))}

	rep, err := c.ConvertFile(ctx, job)
	if err != nil {
		c.log.Error().Err(err).Str("input", path).Msg("watcher: conversion failed")
	} else if opts.Move {
		if mvErr := importer.MarkProcessed(dir, filepath.Base(path)); mvErr != nil {
			c.log.Warn().Err(mvErr).Str("input", path).Msg("watcher: move failed")
		}
	}
	if opts.OnConverted != nil {
		opts.OnConverted(rep, err)
	}
}
