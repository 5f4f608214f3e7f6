package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// MaxDocumentSize is the largest document any command will read.
const MaxDocumentSize = 10 * 1024 * 1024

var errStdinReused = errors.New("stdin can only be read once")

// Document is a loaded text together with where it came from.
type Document struct {
	// Name is used in diff headers and the TUI.
	Name string
	Text string
	// Path is the file on disk, empty for stdin and git blobs.
	Path string
}

// GitSource reads document revisions out of a git repository.
type GitSource struct {
	repo *git.Repository
}

// OpenGitSource opens the repository containing dir.
func OpenGitSource(dir string) (*GitSource, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %s: %w", dir, err)
	}
	return &GitSource{repo: repo}, nil
}

// RootPath gets the git repository root path
func (gs *GitSource) RootPath() (string, error) {
	worktree, err := gs.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	return worktree.Filesystem.Root(), nil
}

// repoPath turns a path written relative to dir ("./x" or "../x") into one relative to
// the repository root. Other paths are already root-relative.
func (gs *GitSource) repoPath(dir, path string) (string, error) {
	if !strings.HasPrefix(path, "./") && !strings.HasPrefix(path, "../") {
		return path, nil
	}
	root, err := gs.RootPath()
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, filepath.Join(dir, path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the repository", path)
	}
	return filepath.ToSlash(rel), nil
}

// ReadCommitted returns the content of path at revision rev.
func (gs *GitSource) ReadCommitted(rev, path string) (string, error) {
	hash, err := gs.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("failed to resolve revision %s: %w", rev, err)
	}
	commit, err := gs.repo.CommitObject(*hash)
	if err != nil {
		return "", fmt.Errorf("failed to get commit %s: %w", hash, err)
	}
	file, err := commit.File(path)
	if err != nil {
		return "", fmt.Errorf("failed to find %s at %s: %w", path, rev, err)
	}
	if file.Size > MaxDocumentSize {
		return "", fmt.Errorf("file %s too large (%d > %d)", path, file.Size, MaxDocumentSize)
	}
	content, err := file.Contents()
	if err != nil {
		return "", fmt.Errorf("failed to read %s at %s: %w", path, rev, err)
	}
	return content, nil
}

// ReadStaged returns the content of path in the index.
func (gs *GitSource) ReadStaged(path string) (string, error) {
	idx, err := gs.repo.Storer.Index()
	if err != nil {
		return "", fmt.Errorf("failed to read index: %w", err)
	}
	entry, err := idx.Entry(path)
	if err != nil {
		return "", fmt.Errorf("failed to find %s in index: %w", path, err)
	}
	blob, err := object.GetBlob(gs.repo.Storer, entry.Hash)
	if err != nil {
		return "", fmt.Errorf("failed to get blob for %s: %w", path, err)
	}
	reader, err := blob.Reader()
	if err != nil {
		return "", fmt.Errorf("failed to open blob for %s: %w", path, err)
	}
	defer reader.Close()
	return readLimited(reader, path)
}

// documentLoader resolves command-line document arguments. The git repository is only
// opened when an argument refers to it.
type documentLoader struct {
	dir       string
	stdin     io.Reader
	stdinUsed bool
	git       *GitSource
}

func newDocumentLoader(dir string, stdin io.Reader) *documentLoader {
	return &documentLoader{dir: dir, stdin: stdin}
}

// Load reads a document argument: "-" for stdin, an existing file path, "REV:path" for a
// committed blob or ":path" for a staged one.
func (l *documentLoader) Load(arg string) (Document, error) {
	if arg == "-" {
		if l.stdinUsed {
			return Document{}, errStdinReused
		}
		l.stdinUsed = true
		text, err := readLimited(l.stdin, "stdin")
		if err != nil {
			return Document{}, err
		}
		return Document{Name: "stdin", Text: text}, nil
	}

	path := arg
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.dir, path)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		text, err := readFile(path)
		if err != nil {
			return Document{}, err
		}
		return Document{Name: filepath.ToSlash(filepath.Clean(arg)), Text: text, Path: path}, nil
	}

	rev, gitPath, ok := splitGitRef(arg)
	if !ok {
		return Document{}, fmt.Errorf("failed to read %s: %w", arg, os.ErrNotExist)
	}
	gs, err := l.gitSource()
	if err != nil {
		return Document{}, err
	}
	if gitPath, err = gs.repoPath(l.dir, gitPath); err != nil {
		return Document{}, err
	}
	var text string
	if rev == "" {
		text, err = gs.ReadStaged(gitPath)
	} else {
		text, err = gs.ReadCommitted(rev, gitPath)
	}
	if err != nil {
		return Document{}, err
	}
	return Document{Name: gitPath, Text: text}, nil
}

func (l *documentLoader) gitSource() (*GitSource, error) {
	if l.git == nil {
		gs, err := OpenGitSource(l.dir)
		if err != nil {
			return nil, err
		}
		l.git = gs
	}
	return l.git, nil
}

// splitGitRef splits "REV:path" or ":path". Paths are relative to the repository root
// unless they start with "./" or "../".
func splitGitRef(arg string) (rev, path string, ok bool) {
	i := strings.Index(arg, ":")
	if i < 0 {
		return "", "", false
	}
	rev, path = arg[:i], strings.TrimPrefix(arg[i+1:], "/")
	if path == "" {
		return "", "", false
	}
	return rev, filepath.ToSlash(path), true
}

func readFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return readLimited(f, path)
}

func readLimited(r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(data) > MaxDocumentSize {
		return "", fmt.Errorf("%s too large (> %d bytes)", name, MaxDocumentSize)
	}
	return string(data), nil
}
