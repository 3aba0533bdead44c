package plagiarism

import (
	"math"

	"github.com/RishiKendai/aegis-console/internal/models"
)

// Stats summarizes a result collection for display.
type Stats struct {
	TotalPairs        int                      `json:"totalPairs"`
	RiskLevels        map[models.RiskLevel]int `json:"riskLevels"`
	AverageSimilarity float64                  `json:"averageSimilarity"`
	MaxSimilarity     float64                  `json:"maxSimilarity"`
}

// ComputeStats reduces results into summary counts. A result without a risk
// level counts as LOW; an unrecognized level is left out of the per-level
// counts but still counts towards TotalPairs. Missing similarity is 0.
func ComputeStats(results []models.PlagiarismResult) Stats {
	stats := Stats{
		TotalPairs: len(results),
		RiskLevels: make(map[models.RiskLevel]int, len(models.RiskLevels)),
	}
	for _, level := range models.RiskLevels {
		stats.RiskLevels[level] = 0
	}

	if len(results) == 0 {
		return stats
	}

	sum := 0.0
	maxSimilarity := 0.0
	for i, r := range results {
		level := r.RiskLevel
		if level == "" {
			level = models.RiskLow
		}
		if _, ok := stats.RiskLevels[level]; ok {
			stats.RiskLevels[level]++
		}

		similarity := r.Similarity()
		sum += similarity
		if i == 0 || similarity > maxSimilarity {
			maxSimilarity = similarity
		}
	}

	stats.AverageSimilarity = roundOneDecimal(sum / float64(len(results)))
	stats.MaxSimilarity = roundOneDecimal(maxSimilarity)

	return stats
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
