// Package glob expands workspace-relative glob patterns to files and
// directories. Results are cached per (pattern, mode) pair because include
// path globs are re-expanded by every file task of a step.
package glob

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vk/cppbuildgo/internal/template"
)

// Mode selects what a pattern expands to.
type Mode int

const (
	// NoExpand returns the pattern unchanged.
	NoExpand Mode = iota
	// FilesOnly returns matching files.
	FilesOnly
	// DirectoriesOnly returns matching directories.
	DirectoriesOnly
	// ExpandAll returns both files and directories.
	ExpandAll
)

const cacheSize = 256

type cacheKey struct {
	pattern string
	mode    Mode
}

// Expander expands glob patterns against a fixed workspace root.
type Expander struct {
	root  string
	cache *lru.Cache[cacheKey, []string]
}

// New builds an expander rooted at the workspace directory.
func New(root string) *Expander {
	cache, err := lru.New[cacheKey, []string](cacheSize)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &Expander{root: root, cache: cache}
}

// Expand evaluates pattern under the expander's root. Relative patterns
// match below the workspace root and yield workspace-relative results;
// absolute patterns match from the filesystem root and yield absolute
// results. Every result is escaped as template text.
func (e *Expander) Expand(pattern string, mode Mode) ([]string, error) {
	if mode == NoExpand {
		return []string{pattern}, nil
	}
	key := cacheKey{pattern: pattern, mode: mode}
	if cached, ok := e.cache.Get(key); ok {
		out := make([]string, len(cached))
		copy(out, cached)
		return out, nil
	}

	results, err := e.expand(pattern, mode)
	if err != nil {
		return nil, err
	}
	e.cache.Add(key, results)
	out := make([]string, len(results))
	copy(out, results)
	return out, nil
}

func (e *Expander) expand(pattern string, mode Mode) ([]string, error) {
	dir := e.root
	prefix := ""
	p := filepath.ToSlash(pattern)
	if filepath.IsAbs(pattern) {
		dir = "/"
		prefix = "/"
		p = strings.TrimPrefix(p, "/")
	}
	// A trailing separator is dropped; whether files, directories or both
	// are kept is decided by mode alone.
	p = strings.TrimSuffix(p, "/")
	if !doublestar.ValidatePattern(p) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}

	var results []string
	fsys := os.DirFS(dir)
	err := doublestar.GlobWalk(fsys, p, func(match string, d fs.DirEntry) error {
		switch mode {
		case FilesOnly:
			if d.IsDir() {
				return nil
			}
		case DirectoriesOnly:
			if !d.IsDir() {
				return nil
			}
		}
		results = append(results, template.Escape(prefix+path.Clean(match)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("expanding %q: %w", pattern, err)
	}
	sort.Strings(results)
	return results, nil
}
