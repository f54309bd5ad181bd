package classify

import (
	"log/slog"

	"aslquant/internal/models"
	"aslquant/pkg/volume"
)

// Classify determines the role assignment for a run.
//
// Tier 1 (explicit): a 3-D volume is always already-differenced, whatever
// any context table says. Otherwise, when a context table is supplied its
// declared roles decide the assignment directly.
//
// Tier 2 (clustering): with no context table, the per-frame spatial
// intensity means are split by a deterministic two-cluster refinement; the
// cluster with the higher final center is control. A degenerate split
// (empty control set, or control covering every frame) is rejected.
//
// Tier 3 (positional): every other frame starting at index 0 is control.
//
// Tier 3 guarantees a result, so the unresolved state is never returned.
func Classify(v *volume.Volume, contextRoles []Role, log *slog.Logger) models.RoleAssignment {
	if !v.Is4D() {
		log.Debug("single-timepoint volume, treating as already differenced")
		return models.RoleAssignment{Kind: models.RoleAlreadyDifferenced}
	}

	if len(contextRoles) > 0 {
		return fromContext(contextRoles, log)
	}

	if assignment, ok := fromClustering(v, log); ok {
		return assignment
	}

	log.Debug("falling back to positional control/label assignment")
	return positional(v.NT)
}

// fromContext maps explicit context-table roles to an assignment.
func fromContext(roles []Role, log *slog.Logger) models.RoleAssignment {
	allDifference := true
	var controls []int
	for i, r := range roles {
		if r != Difference {
			allDifference = false
		}
		if r == Control {
			controls = append(controls, i)
		}
	}

	if allDifference {
		log.Debug("context table declares a difference series")
		return models.RoleAssignment{Kind: models.RoleAlreadyDifferenced}
	}

	order := models.LabelFirst
	if roles[0] == Control {
		order = models.ControlFirst
	}
	log.Debug("context table supplied volume roles",
		"controls", len(controls), "order", order.String())
	return models.RoleAssignment{
		Kind:           models.RoleAlternatingPair,
		Order:          order,
		ControlIndices: controls,
	}
}

// fromClustering attempts the intensity-clustering tier. The second return
// is false when the split is degenerate and the positional fallback should
// be used instead.
func fromClustering(v *volume.Volume, log *slog.Logger) (models.RoleAssignment, bool) {
	means := v.FrameMeans()
	res := twoCluster(means)

	// Control volumes carry the unsuppressed signal, so the cluster with
	// the higher center is control.
	controls := res.high
	if res.lowCenter > res.highCenter {
		controls = res.low
	}

	if len(controls) == 0 || len(controls) >= v.NT {
		log.Warn("intensity clustering produced a degenerate split",
			"controls", len(controls), "frames", v.NT)
		return models.RoleAssignment{}, false
	}

	order := models.LabelFirst
	if controls[0] == 0 {
		order = models.ControlFirst
	}
	log.Debug("intensity clustering assigned volume roles",
		"controls", len(controls), "order", order.String())
	return models.RoleAssignment{
		Kind:           models.RoleAlternatingPair,
		Order:          order,
		ControlIndices: controls,
	}, true
}

// positional assigns every other frame starting at 0 as control.
func positional(frames int) models.RoleAssignment {
	var controls []int
	for i := 0; i < frames; i += 2 {
		controls = append(controls, i)
	}
	return models.RoleAssignment{
		Kind:           models.RoleAlternatingPair,
		Order:          models.ControlFirst,
		ControlIndices: controls,
	}
}
