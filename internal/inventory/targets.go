package inventory

import (
	"errors"
	"fmt"
)

// ErrTargetNotFound is returned when no target matches a lookup.
var ErrTargetNotFound = errors.New("target not found in inventory")

// FactJobID is the fact linking a target to the ABS job that created it.
const FactJobID = "job_id"

// Group returns the named group, or nil.
func (inv *Inventory) Group(name string) *Group {
	for i := range inv.Groups {
		if inv.Groups[i].Name == name {
			return &inv.Groups[i]
		}
	}
	return nil
}

// AddTarget appends t to the named group, creating the group if needed.
func (inv *Inventory) AddTarget(group string, t Target) {
	g := inv.Group(group)
	if g == nil {
		inv.Groups = append(inv.Groups, Group{Name: group})
		g = &inv.Groups[len(inv.Groups)-1]
	}
	g.Targets = append(g.Targets, t)
}

// Find returns the first target addressed by id across all groups.
func (inv *Inventory) Find(id string) (*Target, error) {
	for gi := range inv.Groups {
		targets := inv.Groups[gi].Targets
		for ti := range targets {
			if targets[ti].URI == id || (targets[ti].URI == "" && targets[ti].Name == id) {
				return &targets[ti], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, id)
}

// FactsOf returns the facts stored for the target addressed by id.
func (inv *Inventory) FactsOf(id string) (map[string]any, error) {
	t, err := inv.Find(id)
	if err != nil {
		return nil, err
	}
	return t.Facts, nil
}

// RemoveTargets deletes every target whose ID is in ids from all groups and
// returns how many were removed. Groups are kept even when they become empty.
func (inv *Inventory) RemoveTargets(ids ...string) int {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	removed := 0
	for gi := range inv.Groups {
		g := &inv.Groups[gi]
		kept := g.Targets[:0]
		for _, t := range g.Targets {
			if _, ok := drop[t.ID()]; ok {
				removed++
				continue
			}
			kept = append(kept, t)
		}
		g.Targets = kept
	}
	return removed
}

// JobIndex maps a job id to the IDs of the targets it created, in inventory order.
type JobIndex map[string][]string

// IndexByJob builds the job index. Targets without a job_id fact are skipped.
func (inv *Inventory) IndexByJob() JobIndex {
	idx := JobIndex{}
	for _, g := range inv.Groups {
		for _, t := range g.Targets {
			job := t.Fact(FactJobID)
			if job == "" {
				continue
			}
			idx[job] = append(idx[job], t.ID())
		}
	}
	return idx
}

// Targets returns the IDs recorded for job, never nil.
func (idx JobIndex) Targets(job string) []string {
	ids := idx[job]
	if ids == nil {
		return []string{}
	}
	return append([]string(nil), ids...)
}
