package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	committedScene = "INT. KITCHEN - NIGHT\nShe waits.\n"
	stagedScene    = "INT. KITCHEN - NIGHT\nShe waits by the door.\n"
	workingScene   = "INT. KITCHEN - NIGHT\nShe leaves.\n"
)

// setupTestRepo creates a repository where scenes/one.md differs between HEAD, the index
// and the working tree.
func setupTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}

	const path = "scenes/one.md"
	write := func(content string) {
		if err := util.WriteFile(worktree.Filesystem, path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}

	write(committedScene)
	if _, err := worktree.Add(path); err != nil {
		t.Fatalf("failed to add file: %v", err)
	}
	_, err = worktree.Commit("first draft", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}

	write(stagedScene)
	if _, err := worktree.Add(path); err != nil {
		t.Fatalf("failed to stage file: %v", err)
	}
	write(workingScene)
	return dir
}

func TestGitSource(t *testing.T) {
	dir := setupTestRepo(t)

	gs, err := OpenGitSource(filepath.Join(dir, "scenes"))
	if err != nil {
		t.Fatalf("OpenGitSource() error = %v", err)
	}

	root, err := gs.RootPath()
	if err != nil {
		t.Fatalf("RootPath() error = %v", err)
	}
	if root != dir {
		t.Errorf("RootPath() = %q, want %q", root, dir)
	}

	committed, err := gs.ReadCommitted("HEAD", "scenes/one.md")
	if err != nil {
		t.Fatalf("ReadCommitted() error = %v", err)
	}
	if committed != committedScene {
		t.Errorf("ReadCommitted() = %q, want %q", committed, committedScene)
	}

	staged, err := gs.ReadStaged("scenes/one.md")
	if err != nil {
		t.Fatalf("ReadStaged() error = %v", err)
	}
	if staged != stagedScene {
		t.Errorf("ReadStaged() = %q, want %q", staged, stagedScene)
	}

	if _, err := gs.ReadCommitted("HEAD", "scenes/two.md"); err == nil {
		t.Error("ReadCommitted() should fail for a file that was never committed")
	}
	if _, err := gs.ReadCommitted("no-such-branch", "scenes/one.md"); err == nil {
		t.Error("ReadCommitted() should fail for an unknown revision")
	}
	if _, err := gs.ReadStaged("scenes/two.md"); err == nil {
		t.Error("ReadStaged() should fail for a file that is not in the index")
	}
}

func TestOpenGitSourceOutsideRepository(t *testing.T) {
	if _, err := OpenGitSource(t.TempDir()); err == nil {
		t.Error("OpenGitSource() should fail outside a repository")
	}
}

func TestDocumentLoader(t *testing.T) {
	dir := setupTestRepo(t)
	scenesDir := filepath.Join(dir, "scenes")

	testCases := []struct {
		name     string
		dir      string
		arg      string
		wantName string
		wantText string
		wantPath string
	}{
		{"working tree file", dir, "scenes/one.md", "scenes/one.md", workingScene, filepath.Join(dir, "scenes", "one.md")},
		{"committed blob", dir, "HEAD:scenes/one.md", "scenes/one.md", committedScene, ""},
		{"committed blob from subdirectory", scenesDir, "HEAD:./one.md", "scenes/one.md", committedScene, ""},
		{"staged blob", dir, ":scenes/one.md", "scenes/one.md", stagedScene, ""},
		{"leading slash is root-relative", scenesDir, ":/scenes/one.md", "scenes/one.md", stagedScene, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := newDocumentLoader(tc.dir, nil).Load(tc.arg)
			if err != nil {
				t.Fatalf("Load(%q) error = %v", tc.arg, err)
			}
			if doc.Name != tc.wantName || doc.Text != tc.wantText || doc.Path != tc.wantPath {
				t.Errorf("Load(%q) = %+v", tc.arg, doc)
			}
		})
	}
}

func TestDocumentLoaderErrors(t *testing.T) {
	dir := setupTestRepo(t)

	testCases := []struct {
		name string
		dir  string
		arg  string
		want string
	}{
		{"missing file", dir, "scenes/two.md", "does not exist"},
		{"path outside the repository", dir, "HEAD:../elsewhere.md", "outside the repository"},
		{"not a repository", t.TempDir(), "HEAD:scenes/one.md", "failed to open git repository"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newDocumentLoader(tc.dir, nil).Load(tc.arg)
			if err == nil {
				t.Fatalf("Load(%q) expected an error", tc.arg)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Load(%q) error = %q, want it to contain %q", tc.arg, err, tc.want)
			}
		})
	}
}

func TestDocumentLoaderStdin(t *testing.T) {
	loader := newDocumentLoader(t.TempDir(), strings.NewReader("from stdin\n"))

	doc, err := loader.Load("-")
	if err != nil {
		t.Fatalf("Load(-) error = %v", err)
	}
	if doc.Name != "stdin" || doc.Text != "from stdin\n" || doc.Path != "" {
		t.Errorf("Load(-) = %+v", doc)
	}

	if _, err := loader.Load("-"); !errors.Is(err, errStdinReused) {
		t.Errorf("second Load(-) error = %v, want %v", err, errStdinReused)
	}
}

func TestReadLimited(t *testing.T) {
	big := strings.NewReader(strings.Repeat("x", MaxDocumentSize+1))
	if _, err := readLimited(big, "big.md"); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("readLimited() error = %v, want a size error", err)
	}

	text, err := readLimited(strings.NewReader("ok"), "small.md")
	if err != nil || text != "ok" {
		t.Errorf("readLimited() = %q, %v", text, err)
	}
}

func TestSplitGitRef(t *testing.T) {
	testCases := []struct {
		arg      string
		wantRev  string
		wantPath string
		wantOK   bool
	}{
		{"HEAD:scenes/one.md", "HEAD", "scenes/one.md", true},
		{"HEAD~2:one.md", "HEAD~2", "one.md", true},
		{":one.md", "", "one.md", true},
		{":/one.md", "", "one.md", true},
		{"HEAD:", "", "", false},
		{"plain.md", "", "", false},
	}

	for _, tc := range testCases {
		rev, path, ok := splitGitRef(tc.arg)
		if rev != tc.wantRev || path != tc.wantPath || ok != tc.wantOK {
			t.Errorf("splitGitRef(%q) = %q, %q, %v; want %q, %q, %v",
				tc.arg, rev, path, ok, tc.wantRev, tc.wantPath, tc.wantOK)
		}
	}
}
