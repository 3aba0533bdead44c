package models

type RiskLevel string

const (
	RiskVeryHigh RiskLevel = "VERY_HIGH"
	RiskHigh     RiskLevel = "HIGH"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskLow      RiskLevel = "LOW"
)

// RiskLevels lists the recognized levels, most severe first.
var RiskLevels = []RiskLevel{RiskVeryHigh, RiskHigh, RiskMedium, RiskLow}

// IsHigh reports whether the level counts as high risk for a viewer verdict.
func (r RiskLevel) IsHigh() bool {
	return r == RiskVeryHigh || r == RiskHigh
}

// PlagiarismResult is one compared submission pair as returned by the scanner.
// Results are treated as immutable once received.
type PlagiarismResult struct {
	Student1ID           string    `json:"student1_id" bson:"student1_id"`
	Student2ID           string    `json:"student2_id" bson:"student2_id"`
	SimilarityPercentage *float64  `json:"similarity_percentage,omitempty" bson:"similarity_percentage,omitempty"`
	RiskLevel            RiskLevel `json:"risk_level,omitempty" bson:"risk_level,omitempty"`
}

// Similarity returns the similarity percentage, 0 when the scanner omitted it.
func (r PlagiarismResult) Similarity() float64 {
	if r.SimilarityPercentage == nil {
		return 0
	}
	return *r.SimilarityPercentage
}

// Involves reports whether the given student is one side of the pair.
func (r PlagiarismResult) Involves(studentID string) bool {
	return r.Student1ID == studentID || r.Student2ID == studentID
}

// Percent is a small helper for building results with a similarity value.
func Percent(v float64) *float64 {
	return &v
}
