// Package vcs reads package trees out of git history.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var (
	// ErrNotRepository is returned when a path is not inside a git worktree.
	ErrNotRepository = errors.New("not a git repository")
	// ErrRevision is returned when a revision cannot be resolved to a commit.
	ErrRevision = errors.New("unknown revision")
	// ErrPathNotInRevision is returned when the requested path does not exist
	// in the resolved commit.
	ErrPathNotInRevision = errors.New("path does not exist in revision")
)

// Repository is a git repository opened from a path inside its worktree.
type Repository struct {
	repo *git.Repository
	root string
}

// Open opens the repository containing path, detecting .git in parent
// directories.
func Open(path string) (*Repository, error) {
	abs, err := realpath(path)
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
		}
		return nil, err
	}

	w, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no worktree", ErrNotRepository, path)
	}
	root, err := realpath(w.Filesystem.Root())
	if err != nil {
		return nil, err
	}
	return &Repository{repo: repo, root: root}, nil
}

// Root returns the worktree root.
func (r *Repository) Root() string {
	return r.root
}

// Resolve resolves a revision (branch, tag, hash, HEAD~n) to a commit.
func (r *Repository) Resolve(rev string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrRevision, rev, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrRevision, rev, err)
	}
	return commit, nil
}

// Rel returns path relative to the worktree root, slash-separated.
func (r *Repository) Rel(p string) (string, error) {
	abs, err := realpath(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: %s is outside %s", ErrNotRepository, p, r.root)
	}
	return rel, nil
}

// Snapshot copies the file or directory at p, as recorded in rev, into a
// fresh in-memory filesystem. It returns the filesystem and the name the
// snapshot is stored under, which is the base name of p.
func (r *Repository) Snapshot(ctx context.Context, p, rev string) (billy.Filesystem, string, error) {
	rel, err := r.Rel(p)
	if err != nil {
		return nil, "", err
	}
	commit, err := r.Resolve(rev)
	if err != nil {
		return nil, "", err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, "", err
	}

	name := path.Base(rel)
	if rel == "." {
		name = filepath.Base(r.root)
	}
	fs := memfs.New()

	if rel != "." {
		entry, err := tree.FindEntry(rel)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %s at %s", ErrPathNotInRevision, rel, rev)
		}
		if entry.Mode != filemode.Dir {
			f, err := tree.File(rel)
			if err != nil {
				return nil, "", fmt.Errorf("%w: %s at %s", ErrPathNotInRevision, rel, rev)
			}
			if err := copyFile(fs, name, f); err != nil {
				return nil, "", err
			}
			return fs, name, nil
		}
		if tree, err = tree.Tree(rel); err != nil {
			return nil, "", err
		}
	}

	if err := fs.MkdirAll(name, 0o755); err != nil {
		return nil, "", err
	}
	err = tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return copyFile(fs, path.Join(name, f.Name), f)
	})
	if err != nil {
		return nil, "", err
	}
	return fs, name, nil
}

// Snapshot opens the repository containing p and snapshots p at rev.
func Snapshot(ctx context.Context, p, rev string) (billy.Filesystem, string, error) {
	repo, err := Open(p)
	if err != nil {
		return nil, "", err
	}
	return repo.Snapshot(ctx, p, rev)
}

// copyFile writes a blob into fs. Symlinks and submodules are skipped, the
// same way the scanner skips them on disk.
func copyFile(fs billy.Filesystem, name string, f *object.File) error {
	if f.Mode == filemode.Symlink || f.Mode == filemode.Submodule {
		return nil
	}

	rd, err := f.Reader()
	if err != nil {
		return err
	}
	defer rd.Close()

	data, err := io.ReadAll(rd)
	if err != nil {
		return fmt.Errorf("read %s: %w", f.Name, err)
	}
	if err := fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return err
	}
	return util.WriteFile(fs, name, data, 0o644)
}

func realpath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
