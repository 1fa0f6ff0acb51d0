package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultBank is the bank id whose entry seeds every other bank.
const DefaultBank = "default"

const (
	defaultDir  = ".hbc"
	defaultFile = "config.yaml"
	unknown     = "Unknown"
)

var (
	// ErrConfigNotFound is returned when an explicitly requested file is missing.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrConfigParse is returned when the document is not valid.
	ErrConfigParse = errors.New("parsing config")
	// ErrConfigInvalid is returned when a resolved bank fails validation.
	ErrConfigInvalid = errors.New("invalid config")
)

// Config holds the effective configuration of every configured bank.
type Config struct {
	Source string // file the config was read from, empty for built-in
	banks  map[string]BankConfig
}

// Default returns the built-in configuration used when no file exists.
func Default() *Config {
	return &Config{banks: map[string]BankConfig{DefaultBank: BuiltinBank()}}
}

// New wraps already resolved banks. Bank ids are case-insensitive and stored
// lower-cased. A missing "default" entry is filled with the built-in one.
func New(banks map[string]BankConfig) *Config {
	ids := make([]string, 0, len(banks))
	for id := range banks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	c := &Config{banks: make(map[string]BankConfig, len(banks)+1)}
	for _, id := range ids {
		c.banks[NormalizeID(id)] = banks[id].clone()
	}
	if _, ok := c.banks[DefaultBank]; !ok {
		c.banks[DefaultBank] = BuiltinBank()
	}
	return c
}

// Bank returns the effective config for id. Banks without an entry of their
// own get the effective default.
func (c *Config) Bank(id string) BankConfig {
	if b, ok := c.banks[NormalizeID(id)]; ok {
		return b.clone()
	}
	return c.banks[DefaultBank].clone()
}

// Has reports whether id has its own entry.
func (c *Config) Has(id string) bool {
	_, ok := c.banks[NormalizeID(id)]
	return ok
}

// NormalizeID returns the canonical form of a bank id.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Banks returns all configured bank ids, sorted.
func (c *Config) Banks() []string {
	ids := make([]string, 0, len(c.banks))
	for id := range c.banks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DefaultPath returns $HOME/.hbc/config.yaml, or a path relative to the
// working directory when the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(defaultDir, defaultFile)
	}
	return filepath.Join(home, defaultDir, defaultFile)
}

// Load reads and resolves the config at path. An empty path means the default
// location, where a missing file yields the built-in config. A missing file at
// an explicit path is an error.
func Load(path string, log zerolog.Logger) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	log.Debug().Str("path", path).Msg("loading config")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if explicit {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
			}
			log.Warn().Str("path", path).Msg("no config file found, using built-in defaults")
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	raw, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	banks, err := Resolve(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg := New(banks)
	cfg.Source = path
	return cfg, nil
}

// Parse decodes a YAML document keyed by bank id. Bank ids are lower-cased.
// ${VAR} references in the income and category.default values are replaced
// with set environment variables. Keyword phrases are never expanded.
func Parse(data []byte) (Raw, error) {
	var raw Raw
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	out := make(Raw, len(raw))
	for id, entry := range raw {
		key := NormalizeID(id)
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("%w: bank %q is defined more than once", ErrConfigParse, key)
		}
		entry.Income = expandPtr(entry.Income)
		if entry.Category != nil {
			entry.Category.Default = expandPtr(entry.Category.Default)
		}
		out[key] = entry
	}
	return out, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} with its value. Unset variables and bare "$" are
// left as written.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		if v, ok := os.LookupEnv(ref[2 : len(ref)-1]); ok {
			return v
		}
		return ref
	})
}

func expandPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := expandEnv(*s)
	return &v
}

// Save writes raw as YAML to path, creating parent directories.
func Save(path string, raw Raw) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Example returns a starter config with a default entry and a bawag override.
func Example() Raw {
	income := "Salary"
	bawagIncome := "Employer"
	return Raw{
		DefaultBank: {
			Income: &income,
			Category: &RawCategory{
				Default: strPtr(unknown),
				Mapping: map[string][]string{
					"Groceries": {"billa", "spar", "hofer"},
					"Rent":      {"miete"},
				},
			},
			Payee: &RawPayee{
				Mapping: map[string][]string{
					"Billa": {"billa"},
					"Spar":  {"spar", "interspar"},
				},
			},
		},
		"bawag": {
			Income: &bawagIncome,
			Category: &RawCategory{
				Mapping: map[string][]string{
					"Bank Fees": {"kontofuehrung", "entgelt"},
				},
			},
		},
	}
}

func strPtr(s string) *string { return &s }
