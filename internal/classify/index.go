// Package classify assigns payees and categories to transaction text by
// case-insensitive keyword matching.
package classify

import (
	"sort"
	"strings"
)

// Index maps lower-cased keywords to labels. Keywords are
// tried longest first. An Index is never modified after Build, so one value
// can be shared by any number of goroutines.
type Index struct {
	lookup   map[string]string
	priority []string
}

// Build inverts mapping (label -> keyword phrases) into an Index.
//
// Labels are processed in lexicographic order; when two labels share the same
// lower-cased phrase the label processed last wins. Keywords of equal length
// are ordered lexicographically. Surrounding spaces are part of a keyword;
// only blank phrases are dropped.
func Build(mapping map[string][]string) Index {
	labels := make([]string, 0, len(mapping))
	for label := range mapping {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	lookup := make(map[string]string)
	for _, label := range labels {
		for _, phrase := range mapping[label] {
			if strings.TrimSpace(phrase) == "" {
				continue
			}
			key := strings.ToLower(phrase)
			lookup[key] = label
		}
	}

	priority := make([]string, 0, len(lookup))
	for key := range lookup {
		priority = append(priority, key)
	}
	sort.Slice(priority, func(i, j int) bool {
		if len(priority[i]) != len(priority[j]) {
			return len(priority[i]) > len(priority[j])
		}
		return priority[i] < priority[j]
	})

	return Index{lookup: lookup, priority: priority}
}

// Len returns the number of distinct keywords.
func (idx Index) Len() int { return len(idx.priority) }

// Keywords returns the keywords in match order.
func (idx Index) Keywords() []string {
	out := make([]string, len(idx.priority))
	copy(out, idx.priority)
	return out
}

// Label returns the label registered for a lower-cased keyword.
func (idx Index) Label(keyword string) (string, bool) {
	label, ok := idx.lookup[keyword]
	return label, ok
}

// Lookup returns the label of the first keyword, in priority order, that is
// contained in any of texts. Matching is case-insensitive.
func (idx Index) Lookup(texts ...string) (string, bool) {
	if len(idx.priority) == 0 {
		return "", false
	}
	lowered := make([]string, len(texts))
	for i, t := range texts {
		lowered[i] = strings.ToLower(t)
	}
	for _, key := range idx.priority {
		for _, text := range lowered {
			if strings.Contains(text, key) {
				return idx.lookup[key], true
			}
		}
	}
	return "", false
}
