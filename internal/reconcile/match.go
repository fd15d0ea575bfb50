package reconcile

import (
	"errors"
	"sort"

	"github.com/vrsandeep/mango-catalog/internal/models"
	"github.com/vrsandeep/mango-catalog/internal/parser"
)

var (
	// ErrAmbiguousMatch means a group matched more than one existing series.
	ErrAmbiguousMatch = errors.New("group matches more than one series")
	// ErrDuplicateClaim means more than one group matched the same series.
	ErrDuplicateClaim = errors.New("series claimed by more than one group")
)

// Group is every parsed record that shares one series key.
type Group struct {
	Name           string
	NormalizedName string
	Format         models.Format
	// FolderPath is the deepest directory containing every record.
	FolderPath string
	Records    []*parser.Info
}

// Key identifies a group.
type Key struct {
	NormalizedName string
	Format         models.Format
}

func (g *Group) Key() Key {
	return Key{NormalizedName: g.NormalizedName, Format: g.Format}
}

// Conflict is a group that was skipped for this pass.
type Conflict struct {
	Group     *Group
	SeriesIDs []int64
	Err       error
}

func (c Conflict) Error() string {
	return c.Group.Name + ": " + c.Err.Error()
}

func (c Conflict) Unwrap() error { return c.Err }

// Assignment is the outcome of matching groups against the catalog.
type Assignment struct {
	// Matched maps an existing series id to the group that now describes it.
	Matched map[int64]*Group
	// New holds groups with no existing series.
	New       []*Group
	Conflicts []Conflict
	// Claimed marks series involved in a conflict. They are left untouched:
	// neither updated nor considered for removal.
	Claimed map[int64]bool
}

// Matches reports whether an existing series is described by a group: the
// normalized name equals the series' current, on-disk or localized name, and
// the formats agree (an unknown series format agrees with anything).
func Matches(s *models.Series, g *Group) bool {
	if s.Format != g.Format && s.Format != models.FormatUnknown && s.Format != "" {
		return false
	}
	if s.NormalizedName == g.NormalizedName || parser.Normalize(s.Name) == g.NormalizedName {
		return true
	}
	if s.OriginalName != "" && parser.Normalize(s.OriginalName) == g.NormalizedName {
		return true
	}
	return s.LocalizedName != "" && parser.Normalize(s.LocalizedName) == g.NormalizedName
}

// Match assigns every group to at most one existing series. index only needs
// the scalar series fields; volumes are not read.
func Match(index []*models.Series, groups []*Group) *Assignment {
	a := &Assignment{
		Matched: make(map[int64]*Group),
		Claimed: make(map[int64]bool),
	}

	claims := make(map[int64][]*Group)
	for _, g := range groups {
		var candidates []*models.Series
		for _, s := range index {
			if Matches(s, g) {
				candidates = append(candidates, s)
			}
		}

		// An exact format match beats a series of unknown format.
		if len(candidates) > 1 {
			var exact []*models.Series
			for _, s := range candidates {
				if s.Format == g.Format {
					exact = append(exact, s)
				}
			}
			if len(exact) == 1 {
				candidates = exact
			}
		}

		switch len(candidates) {
		case 0:
			a.New = append(a.New, g)
		case 1:
			claims[candidates[0].ID] = append(claims[candidates[0].ID], g)
		default:
			ids := seriesIDs(candidates)
			for _, id := range ids {
				a.Claimed[id] = true
			}
			a.Conflicts = append(a.Conflicts, Conflict{Group: g, SeriesIDs: ids, Err: ErrAmbiguousMatch})
		}
	}

	for id, gs := range claims {
		if len(gs) == 1 && !a.Claimed[id] {
			a.Matched[id] = gs[0]
			continue
		}
		a.Claimed[id] = true
		for _, g := range gs {
			a.Conflicts = append(a.Conflicts, Conflict{Group: g, SeriesIDs: []int64{id}, Err: ErrDuplicateClaim})
		}
	}

	sort.Slice(a.Conflicts, func(i, j int) bool {
		ci, cj := a.Conflicts[i], a.Conflicts[j]
		if ci.Group.NormalizedName != cj.Group.NormalizedName {
			return ci.Group.NormalizedName < cj.Group.NormalizedName
		}
		return ci.Group.Format < cj.Group.Format
	})
	return a
}

func seriesIDs(series []*models.Series) []int64 {
	ids := make([]int64, len(series))
	for i, s := range series {
		ids[i] = s.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
