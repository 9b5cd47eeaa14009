package services

import (
	"slices"
	"waste-dispatch-service/internal/domain"
)

// fillEpsilon absorbs float rounding so that 70/100 meets a 0.7 threshold.
const fillEpsilon = 1e-9

type SelectionMode string

const (
	SelectedByThreshold SelectionMode = "threshold"
	SelectedByFallback  SelectionMode = "fallback"
)

// A collection point chosen for the next route together with its demand.
type Candidate struct {
	Point domain.CollectionPoint
	Load  domain.Load
}

// Decide which points the next route must visit, in point id order.
//
// A point qualifies when it is unlocked and its fill ratio reaches the policy
// threshold; a point without usable capacity qualifies on any positive load.
// When nothing qualifies and the fallback is enabled, every unlocked point with
// active orders is taken instead. Load entries whose point is missing from
// points are ignored.
func SelectCandidates(loads map[int64]domain.Load, points map[int64]domain.CollectionPoint, policy Policy) ([]Candidate, SelectionMode, error) {
	ids := make([]int64, 0, len(loads))
	for id, l := range loads {
		if !l.HasAnyActiveOrders {
			continue
		}
		if _, ok := points[id]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, "", domain.ErrNoPendingDemand
	}
	slices.Sort(ids)

	unlocked := make([]Candidate, 0, len(ids))
	for _, id := range ids {
		if p := points[id]; !p.Locked {
			unlocked = append(unlocked, Candidate{Point: p, Load: loads[id]})
		}
	}
	if len(unlocked) == 0 {
		return nil, "", domain.ErrAllCandidatesLocked
	}

	selected := make([]Candidate, 0, len(unlocked))
	for _, c := range unlocked {
		if overThreshold(c, policy.FillThreshold) {
			selected = append(selected, c)
		}
	}
	if len(selected) > 0 {
		return selected, SelectedByThreshold, nil
	}

	if !policy.FallbackEnabled {
		return nil, "", domain.ErrNoPointsOverThreshold
	}
	return unlocked, SelectedByFallback, nil
}

func overThreshold(c Candidate, threshold float64) bool {
	ratio, ok := c.Point.FillRatio(c.Load)
	if !ok {
		return c.Load.Value > 0
	}
	return ratio+fillEpsilon >= threshold
}
