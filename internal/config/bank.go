package config

import (
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CategoryConfig maps category labels to keyword phrases.
type CategoryConfig struct {
	Default string              `yaml:"default"`
	Mapping map[string][]string `yaml:"mapping,omitempty"`
}

// Validate validates the category configuration.
func (c CategoryConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Default, validation.Required),
	)
}

// PayeeConfig maps payee labels to keyword phrases.
type PayeeConfig struct {
	Mapping map[string][]string `yaml:"mapping,omitempty"`
}

// BankConfig is the effective configuration for one bank.
type BankConfig struct {
	Income   string         `yaml:"income"`
	Category CategoryConfig `yaml:"category"`
	Payee    PayeeConfig    `yaml:"payee"`
}

// Validate validates the bank configuration. Income may be empty.
func (b BankConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Category),
	)
}

// BuiltinBank returns the hard-coded base every config is merged onto.
func BuiltinBank() BankConfig {
	return BankConfig{
		Income: unknown,
		Category: CategoryConfig{
			Default: unknown,
			Mapping: map[string][]string{},
		},
		Payee: PayeeConfig{
			Mapping: map[string][]string{},
		},
	}
}

func (b BankConfig) clone() BankConfig {
	return BankConfig{
		Income: b.Income,
		Category: CategoryConfig{
			Default: b.Category.Default,
			Mapping: cloneMapping(b.Category.Mapping),
		},
		Payee: PayeeConfig{
			Mapping: cloneMapping(b.Payee.Mapping),
		},
	}
}

func cloneMapping(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for label, phrases := range m {
		out[label] = slices.Clone(phrases)
	}
	return out
}
