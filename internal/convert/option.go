package convert

import "time"

// Option is a functional option for configuring a Converter.
type Option func(*Converter)

// WithHistory records every converted file in <dir>/history.csv.
func WithHistory(dir string) Option {
	return func(c *Converter) {
		c.historyDir = dir
	}
}

// WithClock overrides the time source used for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		c.now = now
	}
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(c *Converter) {
		c.runID = id
	}
}
