// This file walks library folders, parses every eligible file and groups the
// results into per-series parse groups.

package library

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/vrsandeep/mango-catalog/internal/models"
	"github.com/vrsandeep/mango-catalog/internal/parser"
	"github.com/vrsandeep/mango-catalog/internal/reconcile"
	"golang.org/x/sync/errgroup"
)

// Target is a directory to walk. Files are parsed relative to Root, the
// library folder that holds Dir.
type Target struct {
	Root string
	Dir  string
}

// WalkOptions configure a walk.
type WalkOptions struct {
	Profile *parser.Profile
	Exclude *Excluder
	// Workers bounds concurrent parses. Zero means one per CPU.
	Workers int
}

// WalkResult holds the outcome of a walk.
type WalkResult struct {
	// Records are sorted by full path.
	Records []*parser.Info
	// Unparsed lists supported files no series could be derived for.
	Unparsed []string
	// Files counts every supported file seen, parsed or not.
	Files int
}

type candidate struct {
	root     string
	path     string
	siblings int
}

// Walk enumerates the supported files under every target and parses them.
// A target directory that does not exist contributes nothing. The walk stops
// early only when ctx is done.
func Walk(ctx context.Context, targets []Target, opts WalkOptions) (*WalkResult, error) {
	profile := opts.Profile
	if profile == nil {
		profile = parser.ProfileFor(models.LibraryManga, false)
	}

	seen := make(map[string]bool)
	images := make(map[string]int)
	var candidates []candidate

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := os.Stat(t.Dir); errors.Is(err, fs.ErrNotExist) {
			log.Printf("Skipping missing directory %s", t.Dir)
			continue
		}

		err := filepath.WalkDir(t.Dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				log.Printf("Error accessing path %q: %v", path, err)
				if d != nil && d.IsDir() && path != t.Dir {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if path == t.Dir {
					return nil
				}
				if parser.IsBlacklistedFolder(d.Name()) || opts.Exclude.Excluded(t.Root, path) {
					return filepath.SkipDir
				}
				return nil
			}

			if seen[path] || !parser.IsSupported(path) || opts.Exclude.Excluded(t.Root, path) {
				return nil
			}
			seen[path] = true
			if parser.ParseFormat(path) == models.FormatImage {
				images[filepath.Dir(path)]++
			}
			candidates = append(candidates, candidate{root: t.Root, path: path})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	for i := range candidates {
		candidates[i].siblings = images[filepath.Dir(candidates[i].path)]
	}

	infos := make([]*parser.Info, len(candidates))
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			infos[i] = profile.Parse(c.path, c.root, parser.WithSiblingImages(c.siblings))
			return nil
		})
	}
	g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &WalkResult{Files: len(candidates)}
	for i, info := range infos {
		c := candidates[i]
		if info != nil {
			res.Records = append(res.Records, info)
			continue
		}
		// A lone cover image is dropped on purpose, it is not a failure.
		if c.siblings <= 1 && parser.IsCoverImage(c.path) {
			continue
		}
		res.Unparsed = append(res.Unparsed, c.path)
	}

	sort.Slice(res.Records, func(i, j int) bool {
		return res.Records[i].FullPath < res.Records[j].FullPath
	})
	sort.Strings(res.Unparsed)
	return res, nil
}

// Group folds parse records into one group per series key. The group name
// is the most common literal series name, ties going to the first record in
// path order. Groups are sorted by normalized name, then format.
func Group(records []*parser.Info) []*reconcile.Group {
	sorted := make([]*parser.Info, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].FullPath < sorted[j].FullPath })

	byKey := make(map[reconcile.Key]*reconcile.Group)
	var groups []*reconcile.Group
	for _, r := range sorted {
		key := reconcile.Key{NormalizedName: r.NormalizedSeries, Format: r.Format}
		g, ok := byKey[key]
		if !ok {
			g = &reconcile.Group{NormalizedName: key.NormalizedName, Format: key.Format}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.Records = append(g.Records, r)
	}

	for _, g := range groups {
		g.Name = commonName(g.Records)
		g.FolderPath = commonFolder(g.Records)
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].NormalizedName != groups[j].NormalizedName {
			return groups[i].NormalizedName < groups[j].NormalizedName
		}
		return groups[i].Format < groups[j].Format
	})
	return groups
}

func commonName(records []*parser.Info) string {
	counts := make(map[string]int)
	best, bestCount := "", 0
	for _, r := range records {
		counts[r.Series]++
	}
	for _, r := range records {
		if n := counts[r.Series]; n > bestCount {
			best, bestCount = r.Series, n
		}
	}
	return best
}

// commonFolder returns the deepest directory containing every record.
func commonFolder(records []*parser.Info) string {
	if len(records) == 0 {
		return ""
	}
	dir := filepath.Dir(records[0].FullPath)
	for _, r := range records[1:] {
		for !within(r.FullPath, dir) {
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	return dir
}
