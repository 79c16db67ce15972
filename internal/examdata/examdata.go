// Package examdata locates, loads, and serves the question-set catalog.
//
// Question sets are individual JSON files in the resolved data directory,
// either flat (<slug>.json) or nested (<mode>/<category>/<slug>.json).
// Each file holds one set:
//
//	{
//	  "version": 1,
//	  "slug": "antonym_basic",
//	  "mode": "verbal",
//	  "category": "antonym",
//	  "title": "...",
//	  "description": "...",
//	  "time_per_question_sec": 60,
//	  "questions": [
//	    {"prompt": "...", "options": ["a", "b"], "answer_index": 0}
//	  ]
//	}
//
// The file's base name is the set's slug and must be unique within the
// directory. A file that fails to parse or validate is skipped and reported;
// it never prevents the other files from loading.
package examdata

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/spilabs/spiexam/internal/model"
)

// LoadError reports one question-set file that could not be loaded.
type LoadError struct {
	Path   string
	Reason string
}

func (e LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Catalog is an immutable snapshot of all loaded question sets.
// Reload replaces the whole catalog; a snapshot is never mutated.
type Catalog struct {
	// Dir is the resolved data directory the sets were loaded from.
	Dir        string
	sets       map[string]*model.QuestionSet
	LoadErrors []LoadError
}

// Get returns the question set for the given slug.
func (c *Catalog) Get(slug string) (*model.QuestionSet, error) {
	qs, ok := c.sets[slug]
	if !ok {
		return nil, fmt.Errorf("%q: %w", slug, model.ErrSetNotFound)
	}
	return qs, nil
}

// Len returns the number of loaded question sets.
func (c *Catalog) Len() int {
	return len(c.sets)
}

// Modes returns the distinct modes across all sets, sorted.
func (c *Catalog) Modes() []string {
	seen := map[string]bool{}
	for _, qs := range c.sets {
		seen[qs.Mode] = true
	}
	return sortedKeys(seen)
}

// Categories returns the distinct categories within a mode, sorted.
func (c *Catalog) Categories(mode string) []string {
	seen := map[string]bool{}
	for _, qs := range c.sets {
		if qs.Mode == mode {
			seen[qs.Category] = true
		}
	}
	return sortedKeys(seen)
}

// Sets returns summaries of the sets in a mode (and category, if non-empty),
// sorted by slug.
func (c *Catalog) Sets(mode, category string) []model.SetSummary {
	var out []model.SetSummary
	for _, qs := range c.sets {
		if mode != "" && qs.Mode != mode {
			continue
		}
		if category != "" && qs.Category != category {
			continue
		}
		out = append(out, qs.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Provider owns the current catalog and supports atomic reload.
// Concurrent readers always see either the old or the new snapshot in full.
type Provider struct {
	override string
	current  atomic.Pointer[Catalog]
}

// NewProvider creates a provider. The override, when non-empty, is the
// highest-priority directory candidate (normally from EXAM_DATA_DIR).
func NewProvider(override string) *Provider {
	return &Provider{override: override}
}

// Reload resolves the data directory, loads all question sets, and swaps
// the catalog. On resolution failure the previous catalog (if any) stays.
func (p *Provider) Reload() (*Catalog, error) {
	dir, err := Resolve(p.override)
	if err != nil {
		return nil, err
	}
	cat, err := Load(dir)
	if err != nil {
		return nil, err
	}
	p.current.Store(cat)
	return cat, nil
}

// Catalog returns the current snapshot, or nil if no load has succeeded yet.
func (p *Provider) Catalog() *Catalog {
	return p.current.Load()
}
