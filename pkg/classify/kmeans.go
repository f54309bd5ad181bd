package classify

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	clusterMaxIterations = 20
	clusterTolerance     = 1e-6
)

// clusterResult is the outcome of the two-cluster refinement: the indices
// assigned to each center and the final center values. The low cluster is
// the one seeded from the minimum mean.
type clusterResult struct {
	low, high             []int
	lowCenter, highCenter float64
}

// twoCluster partitions the per-frame intensity means into two groups by a
// fixed-iteration 1-D k-means (k=2). Centers are initialized at the minimum
// and maximum of the means, ties are resolved toward the lower-valued
// center, and an empty group keeps its previous center. The refinement is
// fully deterministic.
func twoCluster(means []float64) clusterResult {
	lo, hi := means[0], means[0]
	for _, m := range means[1:] {
		if m < lo {
			lo = m
		}
		if m > hi {
			hi = m
		}
	}
	centers := [2]float64{lo, hi}

	var groups [2][]int
	for iter := 0; iter < clusterMaxIterations; iter++ {
		groups = [2][]int{}
		for i, m := range means {
			// Ties go to the first (lower-valued) center.
			if math.Abs(m-centers[0]) <= math.Abs(m-centers[1]) {
				groups[0] = append(groups[0], i)
			} else {
				groups[1] = append(groups[1], i)
			}
		}

		next := centers
		for g := 0; g < 2; g++ {
			if len(groups[g]) == 0 {
				continue
			}
			vals := make([]float64, len(groups[g]))
			for j, idx := range groups[g] {
				vals[j] = means[idx]
			}
			next[g] = stat.Mean(vals, nil)
		}

		if math.Abs(next[0]-centers[0]) < clusterTolerance &&
			math.Abs(next[1]-centers[1]) < clusterTolerance {
			centers = next
			break
		}
		centers = next
	}

	return clusterResult{
		low:        groups[0],
		high:       groups[1],
		lowCenter:  centers[0],
		highCenter: centers[1],
	}
}
