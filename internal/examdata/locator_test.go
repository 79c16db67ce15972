package examdata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spilabs/spiexam/internal/model"
)

// chdir moves into a fresh temp directory so the relative default
// candidates resolve against a known-empty root.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
	return dir
}

func mkdir(t *testing.T, path string) string {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	return path
}

func TestResolvePrecedence(t *testing.T) {
	tests := []struct {
		name     string
		override bool
		repoRoot bool
		bundled  bool
		want     string // which candidate should win
	}{
		{"override wins over all", true, true, true, "override"},
		{"override wins over bundled", true, false, true, "override"},
		{"repo root wins over bundled", false, true, true, "exams"},
		{"bundled as last resort", false, false, true, filepath.Join("data", "exams")},
		{"repo root alone", false, true, false, "exams"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := chdir(t)

			var override string
			if tt.override {
				override = mkdir(t, filepath.Join(root, "custom_exams"))
			}
			if tt.repoRoot {
				mkdir(t, "exams")
			}
			if tt.bundled {
				mkdir(t, filepath.Join("data", "exams"))
			}

			got, err := Resolve(override)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}

			want := override
			if tt.want != "override" {
				want = filepath.Join(root, tt.want)
			}
			// Resolve returns absolute paths; compare resolved forms to
			// tolerate symlinked temp dirs (e.g. /tmp on macOS).
			wantAbs, _ := filepath.EvalSymlinks(want)
			gotAbs, _ := filepath.EvalSymlinks(got)
			if gotAbs != wantAbs {
				t.Errorf("Resolve() = %q, want %q", got, want)
			}
		})
	}
}

func TestResolveNoneExist(t *testing.T) {
	chdir(t)

	_, err := Resolve("")
	if !errors.Is(err, model.ErrNoDataDir) {
		t.Fatalf("expected ErrNoDataDir, got %v", err)
	}
}

func TestResolveOverrideMissingFallsThrough(t *testing.T) {
	root := chdir(t)
	mkdir(t, "exams")

	got, err := Resolve(filepath.Join(root, "does-not-exist"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	wantAbs, _ := filepath.EvalSymlinks(filepath.Join(root, "exams"))
	gotAbs, _ := filepath.EvalSymlinks(got)
	if gotAbs != wantAbs {
		t.Errorf("Resolve() = %q, want repo-root exams dir", got)
	}
}

func TestResolveIgnoresPlainFile(t *testing.T) {
	root := chdir(t)
	if err := os.WriteFile(filepath.Join(root, "exams"), []byte("not a dir"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_, err := Resolve("")
	if !errors.Is(err, model.ErrNoDataDir) {
		t.Fatalf("expected ErrNoDataDir for plain file candidate, got %v", err)
	}
}
