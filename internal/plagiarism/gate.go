package plagiarism

import "github.com/RishiKendai/aegis-console/internal/models"

// MinAssignmentsForScan is the smallest class a pairwise scan makes sense for.
const MinAssignmentsForScan = 2

// CanCheckPlagiarism reports whether the scan trigger should be offered.
func CanCheckPlagiarism(viewer models.Viewer, assignmentCount int64) bool {
	return viewer.IsLecturer() && assignmentCount >= MinAssignmentsForScan
}
