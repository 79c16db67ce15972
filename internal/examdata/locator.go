package examdata

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spilabs/spiexam/internal/model"
)

// Default directory candidates, tried in order after the override:
// a repo-root exams/ directory, then the bundled data set.
var defaultCandidates = []string{
	"exams",
	filepath.Join("data", "exams"),
}

// Resolve returns the exam data directory: the first existing, readable
// directory among the override (if non-empty) and the default candidates.
// It returns model.ErrNoDataDir when none exists; callers must surface
// this rather than fall back to an empty catalog.
func Resolve(override string) (string, error) {
	candidates := defaultCandidates
	if override != "" {
		candidates = append([]string{override}, defaultCandidates...)
	}

	for _, c := range candidates {
		if !dirReadable(c) {
			continue
		}
		abs, err := filepath.Abs(c)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", c, err)
		}
		return abs, nil
	}

	return "", fmt.Errorf("tried %v: %w", candidates, model.ErrNoDataDir)
}

func dirReadable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
