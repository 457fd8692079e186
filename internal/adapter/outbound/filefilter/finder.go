// Package filefilter discovers the source files a transform run works on.
package filefilter

import (
	"context"
	"fmt"
	"io/fs"
	"nextdynamic/internal/domain/errors/domain"
	"nextdynamic/internal/domain/valueobject"
	"nextdynamic/internal/port/outbound"
	"os"
	"path/filepath"
)

var _ outbound.SourceFinder = (*Finder)(nil)

// DefaultSkipDirs are never descended into.
var DefaultSkipDirs = []string{"node_modules", ".git", ".next", ".turbo", ".vercel"}

// Finder walks directories for JavaScript and TypeScript sources, honouring
// the .gitignore at the root of each walked directory.
type Finder struct {
	skipDirs map[string]bool
}

// NewFinder creates a Finder that skips DefaultSkipDirs and extra.
func NewFinder(extra ...string) *Finder {
	skip := make(map[string]bool, len(DefaultSkipDirs)+len(extra))
	for _, dir := range append(append([]string{}, DefaultSkipDirs...), extra...) {
		skip[dir] = true
	}
	return &Finder{skipDirs: skip}
}

// FindSources expands roots into source file paths. Files named directly are
// returned as is and must have a supported extension. Paths are returned once,
// in walk order.
func (f *Finder) FindSources(ctx context.Context, roots []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if !valueobject.IsSupportedPath(root) {
				return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, root)
			}
			add(root)
			continue
		}

		files, err := f.walk(ctx, root)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			add(file)
		}
	}
	return out, nil
}

func (f *Finder) walk(ctx context.Context, root string) ([]string, error) {
	rules, err := loadIgnoreFile(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read .gitignore in %s: %w", root, err)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if f.skipDirs[d.Name()] || rules.Ignored(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && valueobject.IsSupportedPath(path) && !rules.Ignored(rel, false) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
