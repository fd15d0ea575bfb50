// This file decides which directories a series rescan walks. Walking only
// the directories that hold a series keeps the rescan of one series cheap on
// large libraries.

package library

import (
	"path/filepath"
	"sort"
	"strings"
)

// HighestStableDirectories returns the smallest set of directories that
// together contain every file: for each file, the directory directly below
// the library root that holds it, or the root itself for files sitting in
// it. Files outside every root are ignored.
func HighestStableDirectories(roots, files []string) []string {
	dirs := make(map[string]bool)
	for _, f := range files {
		root, ok := rootOf(roots, f)
		if !ok {
			continue
		}
		rel, _ := filepath.Rel(root, filepath.Dir(f))
		if rel == "." {
			dirs[root] = true
			continue
		}
		first := strings.SplitN(rel, string(filepath.Separator), 2)[0]
		dirs[filepath.Join(root, first)] = true
	}
	return minimalDirs(dirs)
}

// EscalateDirectories moves every directory one level up, never above its
// library root. ok is false when every directory already is a root, so there
// is nowhere left to go.
func EscalateDirectories(roots, dirs []string) (escalated []string, ok bool) {
	up := make(map[string]bool)
	for _, d := range dirs {
		root, inRoot := rootOf(roots, d)
		if !inRoot || sameDir(root, d) {
			up[d] = true
			continue
		}
		up[filepath.Dir(d)] = true
		ok = true
	}
	return minimalDirs(up), ok
}

// rootOf returns the deepest root containing path.
func rootOf(roots []string, path string) (string, bool) {
	best := ""
	for _, r := range roots {
		if within(path, r) && len(r) > len(best) {
			best = r
		}
	}
	return best, best != ""
}

// minimalDirs drops directories nested in another one of the set and sorts
// the rest.
func minimalDirs(set map[string]bool) []string {
	all := make([]string, 0, len(set))
	for d := range set {
		all = append(all, filepath.Clean(d))
	}
	sort.Strings(all)

	out := make([]string, 0, len(all))
	for _, d := range all {
		nested := false
		for _, kept := range out {
			if within(d, kept) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, d)
		}
	}
	return out
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && (rel == "." || isLocal(rel))
}

func isLocal(rel string) bool {
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func sameDir(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
