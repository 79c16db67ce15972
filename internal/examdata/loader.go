package examdata

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spilabs/spiexam/internal/model"
)

var slugRE = regexp.MustCompile(`^[a-z0-9_\-]+$`)

// Load walks dir for *.json files and builds a catalog keyed by slug.
// Malformed files are skipped and collected in Catalog.LoadErrors so one
// bad file never takes down the rest. On duplicate slugs the first file
// wins and the later one is reported.
func Load(dir string) (*Catalog, error) {
	cat := &Catalog{
		Dir:  dir,
		sets: map[string]*model.QuestionSet{},
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}

		qs, lerr := loadFile(path)
		if lerr != nil {
			slog.Warn("skipping question set file", "path", path, "reason", lerr.Reason)
			cat.LoadErrors = append(cat.LoadErrors, *lerr)
			return nil
		}
		if _, exists := cat.sets[qs.Slug]; exists {
			slog.Warn("duplicate question set slug", "path", path, "slug", qs.Slug)
			cat.LoadErrors = append(cat.LoadErrors, LoadError{
				Path:   path,
				Reason: fmt.Sprintf("duplicate slug %q", qs.Slug),
			})
			return nil
		}
		cat.sets[qs.Slug] = qs
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	slog.Info("loaded exam data",
		"dir", dir,
		"sets", len(cat.sets),
		"errors", len(cat.LoadErrors),
	)
	return cat, nil
}

func loadFile(path string) (*model.QuestionSet, *LoadError) {
	slug := strings.TrimSuffix(filepath.Base(path), ".json")
	if !slugRE.MatchString(slug) {
		return nil, &LoadError{Path: path, Reason: fmt.Sprintf("invalid slug %q", slug)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "read: " + err.Error()}
	}

	var qs model.QuestionSet
	if err := json.Unmarshal(data, &qs); err != nil {
		return nil, &LoadError{Path: path, Reason: "parse: " + err.Error()}
	}

	// The file name is authoritative for the key; an internal slug, when
	// present, must agree with it.
	if qs.Slug != "" && qs.Slug != slug {
		return nil, &LoadError{Path: path, Reason: fmt.Sprintf("slug %q does not match file name %q", qs.Slug, slug)}
	}
	qs.Slug = slug

	if reason := validate(&qs); reason != "" {
		return nil, &LoadError{Path: path, Reason: reason}
	}
	return &qs, nil
}

// validate checks a decoded question set against the schema. It returns an
// empty string when the set is valid, otherwise the first problem found.
func validate(qs *model.QuestionSet) string {
	if qs.Version != model.SchemaVersion {
		return fmt.Sprintf("unsupported version %d", qs.Version)
	}
	if qs.Title == "" {
		return "missing title"
	}
	if qs.TimePerQuestionSec < 1 || qs.TimePerQuestionSec > 600 {
		return fmt.Sprintf("time_per_question_sec %d out of range [1, 600]", qs.TimePerQuestionSec)
	}
	if len(qs.Questions) == 0 {
		return "no questions"
	}
	for i, q := range qs.Questions {
		if reason := validateQuestion(q); reason != "" {
			return fmt.Sprintf("question %d: %s", i, reason)
		}
	}
	return ""
}

func validateQuestion(q model.Question) string {
	if q.Prompt == "" {
		return "missing prompt"
	}
	if len(q.Options) < 2 {
		return fmt.Sprintf("needs at least 2 options, has %d", len(q.Options))
	}
	for _, idx := range q.CorrectIndexes() {
		if idx < 0 || idx >= len(q.Options) {
			return fmt.Sprintf("answer index %d out of range [0, %d)", idx, len(q.Options))
		}
	}
	return ""
}
