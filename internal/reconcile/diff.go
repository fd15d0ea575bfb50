// Package reconcile computes how the catalog must change to reflect the parse
// groups found on disk. Everything here is pure: the inputs are an immutable
// snapshot of the catalog plus a read-only Disk, the output is a Plan that
// the store applies in one transaction.
package reconcile

import (
	"errors"
	"sort"

	"github.com/vrsandeep/mango-catalog/internal/models"
	"golang.org/x/sync/errgroup"
)

// Plan is the set of catalog mutations for one pass.
type Plan struct {
	Create []*models.Series
	Update []*SeriesUpdate
	Remove []*models.Series

	// Conflicts are groups skipped because their match was ambiguous.
	Conflicts []Conflict
	// Unresolved are existing series with no group whose files still exist.
	Unresolved []*models.Series
}

// Empty reports whether applying the plan would change nothing.
func (p *Plan) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Remove) == 0
}

// Merge appends another plan's entries.
func (p *Plan) Merge(o *Plan) {
	p.Create = append(p.Create, o.Create...)
	p.Update = append(p.Update, o.Update...)
	p.Remove = append(p.Remove, o.Remove...)
	p.Conflicts = append(p.Conflicts, o.Conflicts...)
	p.Unresolved = append(p.Unresolved, o.Unresolved...)
}

// Diff reconciles a complete snapshot: existing holds full series trees of
// one library and groups every parse group found in it. Series that fail to
// plan are left out of the plan and reported through the returned error;
// the rest of the plan is still valid.
func Diff(libraryID int64, existing []*models.Series, groups []*Group, disk Disk) (*Plan, error) {
	a := Match(existing, groups)
	plan, err := PlanExisting(a, existing, disk, 1)
	plan.Conflicts = a.Conflicts
	plan.Merge(PlanNew(libraryID, a.New, disk, 1))
	return plan, err
}

// PlanExisting plans every series of existing, which must be full trees,
// against an assignment computed over the whole library. Up to workers
// series are planned at once; the result does not depend on scheduling.
// Conflicts are not copied into the plan.
func PlanExisting(a *Assignment, existing []*models.Series, disk Disk, workers int) (*Plan, error) {
	type outcome struct {
		upd        *SeriesUpdate
		changed    bool
		remove     bool
		unresolved bool
		err        error
	}
	outcomes := make([]outcome, len(existing))

	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for i, s := range existing {
		if a.Claimed[s.ID] {
			continue
		}
		g.Go(func() error {
			out := &outcomes[i]
			grp, ok := a.Matched[s.ID]
			if !ok {
				out.remove = ShouldRemove(s, disk)
				out.unresolved = !out.remove
				return nil
			}
			out.upd, out.changed, out.err = PlanSeries(s, grp, disk)
			return nil
		})
	}
	g.Wait()

	plan := &Plan{}
	var errs []error
	for i, out := range outcomes {
		switch {
		case out.err != nil:
			errs = append(errs, out.err)
		case out.remove:
			plan.Remove = append(plan.Remove, existing[i])
		case out.unresolved:
			plan.Unresolved = append(plan.Unresolved, existing[i])
		case out.changed:
			plan.Update = append(plan.Update, out.upd)
		}
	}
	return plan, errors.Join(errs...)
}

// PlanNew builds a new series for each group, up to workers at once. The
// series are returned sorted by normalized name.
func PlanNew(libraryID int64, groups []*Group, disk Disk, workers int) *Plan {
	created := make([]*models.Series, len(groups))

	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for i, grp := range groups {
		g.Go(func() error {
			created[i] = NewSeries(libraryID, grp, disk)
			return nil
		})
	}
	g.Wait()

	sort.SliceStable(created, func(i, j int) bool {
		return created[i].NormalizedName < created[j].NormalizedName
	})
	return &Plan{Create: created}
}
