package library

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Excluder holds user glob exclusions. Patterns use doublestar syntax and
// are matched against slash-separated paths relative to a library root. A
// pattern that matches a directory excludes everything below it.
type Excluder struct {
	patterns []string
}

// NewExcluder validates the patterns.
func NewExcluder(patterns []string) (*Excluder, error) {
	e := &Excluder{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
		e.patterns = append(e.patterns, p)
	}
	return e, nil
}

// Match reports whether rel, or one of its parent directories, is excluded.
func (e *Excluder) Match(rel string) bool {
	if e == nil || len(e.patterns) == 0 {
		return false
	}
	rel = filepath.ToSlash(rel)
	for {
		if e.matchOne(rel) {
			return true
		}
		i := strings.LastIndexByte(rel, '/')
		if i < 0 {
			return false
		}
		rel = rel[:i]
	}
}

// Excluded reports whether an absolute path is excluded under root.
func (e *Excluder) Excluded(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || !isLocal(rel) {
		return false
	}
	return e.Match(rel)
}

func (e *Excluder) matchOne(rel string) bool {
	for _, p := range e.patterns {
		// Patterns were validated, so Match cannot fail.
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
