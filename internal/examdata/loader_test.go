package examdata

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

const validSet = `{
	"version": 1,
	"mode": "verbal",
	"category": "antonym",
	"title": "Antonyms (basic)",
	"description": "Pick the antonym.",
	"time_per_question_sec": 60,
	"questions": [
		{"prompt": "opposite of hot", "options": ["cold", "warm"], "answer_index": 0},
		{"prompt": "opposite of up", "options": ["down", "left", "right"], "answer_index": 0}
	]
}`

func writeSet(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFlatAndNested(t *testing.T) {
	dir := t.TempDir()
	writeSet(t, dir, "flat_set.json", validSet)
	writeSet(t, dir, filepath.Join("verbal", "antonym", "nested_set.json"), validSet)

	cat, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Len() != 2 {
		t.Fatalf("expected 2 sets, got %d", cat.Len())
	}
	if len(cat.LoadErrors) != 0 {
		t.Fatalf("expected no load errors, got %v", cat.LoadErrors)
	}

	qs, err := cat.Get("nested_set")
	if err != nil {
		t.Fatalf("Get(nested_set): %v", err)
	}
	if qs.Title != "Antonyms (basic)" {
		t.Errorf("unexpected title %q", qs.Title)
	}
	if len(qs.Questions) != 2 {
		t.Errorf("expected 2 questions, got %d", len(qs.Questions))
	}
}

func TestLoadPartialFailure(t *testing.T) {
	dir := t.TempDir()
	writeSet(t, dir, "good_one.json", validSet)
	writeSet(t, dir, "good_two.json", validSet)
	writeSet(t, dir, "broken.json", `{not json`)

	cat, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Len() != 2 {
		t.Errorf("expected 2 valid sets, got %d", cat.Len())
	}
	if len(cat.LoadErrors) != 1 {
		t.Fatalf("expected 1 load error, got %d: %v", len(cat.LoadErrors), cat.LoadErrors)
	}
	if filepath.Base(cat.LoadErrors[0].Path) != "broken.json" {
		t.Errorf("load error points at %q, want broken.json", cat.LoadErrors[0].Path)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"wrong version", `{"version": 2, "title": "t", "time_per_question_sec": 60,
			"questions": [{"prompt": "p", "options": ["a", "b"], "answer_index": 0}]}`},
		{"missing title", `{"version": 1, "time_per_question_sec": 60,
			"questions": [{"prompt": "p", "options": ["a", "b"], "answer_index": 0}]}`},
		{"time out of range", `{"version": 1, "title": "t", "time_per_question_sec": 0,
			"questions": [{"prompt": "p", "options": ["a", "b"], "answer_index": 0}]}`},
		{"no questions", `{"version": 1, "title": "t", "time_per_question_sec": 60, "questions": []}`},
		{"single option", `{"version": 1, "title": "t", "time_per_question_sec": 60,
			"questions": [{"prompt": "p", "options": ["a"], "answer_index": 0}]}`},
		{"answer index out of range", `{"version": 1, "title": "t", "time_per_question_sec": 60,
			"questions": [{"prompt": "p", "options": ["a", "b"], "answer_index": 2}]}`},
		{"missing prompt", `{"version": 1, "title": "t", "time_per_question_sec": 60,
			"questions": [{"options": ["a", "b"], "answer_index": 0}]}`},
		{"multi answer index out of range", `{"version": 1, "title": "t", "time_per_question_sec": 60,
			"questions": [{"prompt": "p", "options": ["a", "b"], "answer_index": 0, "answer_indexes": [0, 5]}]}`},
		{"slug mismatch", `{"version": 1, "slug": "other_name", "title": "t", "time_per_question_sec": 60,
			"questions": [{"prompt": "p", "options": ["a", "b"], "answer_index": 0}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeSet(t, dir, "bad_set.json", tt.content)

			cat, err := Load(dir)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cat.Len() != 0 {
				t.Errorf("invalid set was loaded")
			}
			if len(cat.LoadErrors) != 1 {
				t.Errorf("expected 1 load error, got %d", len(cat.LoadErrors))
			}
		})
	}
}

func TestLoadInvalidSlugFileName(t *testing.T) {
	dir := t.TempDir()
	writeSet(t, dir, "Bad Name.json", validSet)

	cat, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Len() != 0 {
		t.Error("set with invalid slug was loaded")
	}
	if len(cat.LoadErrors) != 1 {
		t.Errorf("expected 1 load error, got %d", len(cat.LoadErrors))
	}
}

func TestLoadDuplicateSlug(t *testing.T) {
	dir := t.TempDir()
	writeSet(t, dir, filepath.Join("verbal", "antonym", "dup_set.json"), validSet)
	writeSet(t, dir, filepath.Join("verbal", "synonym", "dup_set.json"), validSet)

	cat, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Len() != 1 {
		t.Errorf("expected 1 set after dedup, got %d", cat.Len())
	}
	if len(cat.LoadErrors) != 1 {
		t.Errorf("expected 1 duplicate-slug error, got %d", len(cat.LoadErrors))
	}
}

func TestCatalogAccessors(t *testing.T) {
	dir := t.TempDir()
	for i, mc := range []struct{ mode, cat string }{
		{"verbal", "antonym"},
		{"verbal", "synonym"},
		{"nonverbal", "math"},
	} {
		content := fmt.Sprintf(`{
			"version": 1, "mode": %q, "category": %q, "title": "t",
			"time_per_question_sec": 30,
			"questions": [{"prompt": "p", "options": ["a", "b"], "answer_index": 1}]
		}`, mc.mode, mc.cat)
		writeSet(t, dir, fmt.Sprintf("set_%d.json", i), content)
	}

	cat, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	modes := cat.Modes()
	if len(modes) != 2 || modes[0] != "nonverbal" || modes[1] != "verbal" {
		t.Errorf("Modes() = %v, want [nonverbal verbal]", modes)
	}

	cats := cat.Categories("verbal")
	if len(cats) != 2 || cats[0] != "antonym" || cats[1] != "synonym" {
		t.Errorf("Categories(verbal) = %v, want [antonym synonym]", cats)
	}

	sets := cat.Sets("verbal", "")
	if len(sets) != 2 {
		t.Errorf("Sets(verbal) returned %d sets, want 2", len(sets))
	}
	sets = cat.Sets("nonverbal", "math")
	if len(sets) != 1 || sets[0].NumQuestions != 1 {
		t.Errorf("Sets(nonverbal, math) = %v", sets)
	}
}

func TestProviderReloadSwapsAtomically(t *testing.T) {
	dir := t.TempDir()
	writeSet(t, dir, "first_set.json", validSet)

	p := NewProvider(dir)
	if p.Catalog() != nil {
		t.Fatal("expected nil catalog before first load")
	}

	cat1, err := p.Reload()
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if cat1.Len() != 1 {
		t.Fatalf("expected 1 set, got %d", cat1.Len())
	}

	writeSet(t, dir, "second_set.json", validSet)
	cat2, err := p.Reload()
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if cat2.Len() != 2 {
		t.Errorf("expected 2 sets after reload, got %d", cat2.Len())
	}

	// The first snapshot must be untouched by the reload.
	if cat1.Len() != 1 {
		t.Errorf("old snapshot mutated: len = %d", cat1.Len())
	}
	if p.Catalog() != cat2 {
		t.Error("provider does not serve the new snapshot")
	}
}
