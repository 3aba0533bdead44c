package plagiarism

import (
	"fmt"
	"strconv"

	"github.com/RishiKendai/aegis-console/internal/models"
)

type Verdict string

const (
	VerdictClear   Verdict = "CLEAR"
	VerdictMinor   Verdict = "MINOR"
	VerdictWarning Verdict = "WARNING"
)

const clearMessage = "No plagiarism concerns were found for your submissions."

// ViewerStatus is the verdict a student sees about their own submissions.
type ViewerStatus struct {
	Verdict       Verdict                   `json:"verdict"`
	Message       string                    `json:"message"`
	MaxSimilarity float64                   `json:"maxSimilarity"`
	Pairs         []models.PlagiarismResult `json:"pairs,omitempty"`
}

// GetViewerStatus classifies the session's results for one viewer. It
// returns nil for anyone but a student, and for students while the student
// view is disabled.
func GetViewerStatus(viewer models.Viewer, state State) *ViewerStatus {
	if !viewer.IsStudent() || !state.StudentViewEnabled {
		return nil
	}

	var mine, highRisk []models.PlagiarismResult
	for _, r := range state.Results {
		if !r.Involves(viewer.ID) {
			continue
		}
		mine = append(mine, r)
		if r.RiskLevel.IsHigh() {
			highRisk = append(highRisk, r)
		}
	}

	if len(mine) == 0 {
		return &ViewerStatus{
			Verdict: VerdictClear,
			Message: clearMessage,
		}
	}

	if len(highRisk) > 0 {
		peak := maxSimilarity(highRisk)
		return &ViewerStatus{
			Verdict:       VerdictWarning,
			Message:       fmt.Sprintf("High similarity detected: up to %s%% match with another student's work.", formatPercent(peak)),
			MaxSimilarity: peak,
			Pairs:         highRisk,
		}
	}

	peak := maxSimilarity(mine)
	return &ViewerStatus{
		Verdict:       VerdictMinor,
		Message:       fmt.Sprintf("Minor similarity detected: up to %s%% match. No action is needed.", formatPercent(peak)),
		MaxSimilarity: peak,
		Pairs:         mine,
	}
}

func maxSimilarity(results []models.PlagiarismResult) float64 {
	peak := 0.0
	for i, r := range results {
		if s := r.Similarity(); i == 0 || s > peak {
			peak = s
		}
	}
	return peak
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
