package cache

import "sort"

// InvalidationTarget is computed per event and handed to the cache client.
// Keys are the cheapest eviction and are applied first, then tags, then
// patterns, which require a scan.
type InvalidationTarget struct {
	Keys     []string
	Tags     []string
	Patterns []string
}

func (t *InvalidationTarget) AddKeys(keys ...string) {
	t.Keys = appendUnique(t.Keys, keys)
}

func (t *InvalidationTarget) AddTags(tags ...string) {
	t.Tags = appendUnique(t.Tags, tags)
}

func (t *InvalidationTarget) AddPatterns(patterns ...string) {
	t.Patterns = appendUnique(t.Patterns, patterns)
}

func (t *InvalidationTarget) Merge(other InvalidationTarget) {
	t.AddKeys(other.Keys...)
	t.AddTags(other.Tags...)
	t.AddPatterns(other.Patterns...)
}

func (t InvalidationTarget) IsEmpty() bool {
	return len(t.Keys) == 0 && len(t.Tags) == 0 && len(t.Patterns) == 0
}

// Normalize sorts every set so equal targets compare equal regardless of
// the order rules ran in.
func (t *InvalidationTarget) Normalize() {
	sort.Strings(t.Keys)
	sort.Strings(t.Tags)
	sort.Strings(t.Patterns)
}

func appendUnique(existing []string, values []string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}
		found := false
		for _, have := range existing {
			if have == v {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, v)
		}
	}
	return existing
}
