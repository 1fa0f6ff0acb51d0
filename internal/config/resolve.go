package config

import (
	"fmt"
	"slices"
	"sort"
)

// RawCategory is the category section as written in the file. Nil fields
// are inherited from the base config.
type RawCategory struct {
	Default *string             `yaml:"default,omitempty"`
	Mapping map[string][]string `yaml:"mapping,omitempty"`
}

// RawPayee is the payee section as written in the file.
type RawPayee struct {
	Mapping map[string][]string `yaml:"mapping,omitempty"`
}

// RawBank is one bank entry as written in the file.
type RawBank struct {
	Income   *string      `yaml:"income,omitempty"`
	Category *RawCategory `yaml:"category,omitempty"`
	Payee    *RawPayee    `yaml:"payee,omitempty"`
}

// Raw is the parsed, unresolved document keyed by bank id.
type Raw map[string]RawBank

// Resolve merges the "default" entry onto the built-in config, then every
// other entry onto that effective default. The result always has a "default"
// entry.
func Resolve(raw Raw) (map[string]BankConfig, error) {
	base := BuiltinBank()
	if def, ok := raw[DefaultBank]; ok {
		base = def.MergeOnto(base)
	}

	banks := make(map[string]BankConfig, len(raw)+1)
	banks[DefaultBank] = base
	for id, entry := range raw {
		if id == DefaultBank {
			continue
		}
		banks[id] = entry.MergeOnto(base)
	}

	ids := make([]string, 0, len(banks))
	for id := range banks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := banks[id].Validate(); err != nil {
			return nil, fmt.Errorf("%w: bank %q: %v", ErrConfigInvalid, id, err)
		}
	}
	return banks, nil
}

// MergeOnto returns base with the fields present in r applied. Scalars are
// overridden; mapping labels present in r replace the base keyword list for
// that label, other labels are kept.
func (r RawBank) MergeOnto(base BankConfig) BankConfig {
	out := base.clone()
	if r.Income != nil {
		out.Income = *r.Income
	}
	if r.Category != nil {
		if r.Category.Default != nil {
			out.Category.Default = *r.Category.Default
		}
		overrideMapping(out.Category.Mapping, r.Category.Mapping)
	}
	if r.Payee != nil {
		overrideMapping(out.Payee.Mapping, r.Payee.Mapping)
	}
	return out
}

func overrideMapping(dst, src map[string][]string) {
	for label, phrases := range src {
		dst[label] = slices.Clone(phrases)
	}
}
