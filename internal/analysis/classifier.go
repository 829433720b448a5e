// Package analysis holds the pure frame-type statistics and the on-disk size
// accounting of extracted frames.
package analysis

import "github.com/fiapx/fiapx-frametype-service/internal/domain/entity"

// Classify counts I, P and B tags and derives each type's share of the total.
// The result always carries all three types; with no input every count and
// percentage is zero.
func Classify(tags []entity.FrameType) entity.FrameDistribution {
	counts := entity.FrameTypeCounts{}
	for _, t := range entity.AllFrameTypes() {
		counts[t] = 0
	}
	for _, tag := range tags {
		if _, known := counts[tag]; known {
			counts[tag]++
		}
	}

	total := counts.Total()
	percentages := entity.FrameTypePercentages{}
	for t, n := range counts {
		if total == 0 {
			percentages[t] = 0
			continue
		}
		percentages[t] = float64(n) / float64(total) * 100
	}

	return entity.FrameDistribution{
		Counts:      counts,
		Percentages: percentages,
		Total:       total,
	}
}
