package plagiarism

import (
	"sync"

	"github.com/RishiKendai/aegis-console/internal/models"
)

// Board holds what every session mounted on a class shares: the result set of
// the latest successful scan and the lecturer's student-view switch.
type Board struct {
	mu      sync.RWMutex
	classes map[string]*classRecord
}

type classRecord struct {
	results     []models.PlagiarismResult
	studentView bool
}

func NewBoard() *Board {
	return &Board{classes: make(map[string]*classRecord)}
}

func (b *Board) record(classID string) *classRecord {
	rec, ok := b.classes[classID]
	if !ok {
		rec = &classRecord{results: []models.PlagiarismResult{}}
		b.classes[classID] = rec
	}
	return rec
}

// PublishResults replaces the class's result set.
func (b *Board) PublishResults(classID string, results []models.PlagiarismResult) {
	out := make([]models.PlagiarismResult, len(results))
	copy(out, results)

	b.mu.Lock()
	b.record(classID).results = out
	b.mu.Unlock()
}

func (b *Board) SetStudentView(classID string, enabled bool) {
	b.mu.Lock()
	b.record(classID).studentView = enabled
	b.mu.Unlock()
}

func (b *Board) StudentView(classID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if rec, ok := b.classes[classID]; ok {
		return rec.studentView
	}
	return false
}

// Results returns a copy of the class's latest successful result set.
func (b *Board) Results(classID string) []models.PlagiarismResult {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.classes[classID]
	if !ok {
		return []models.PlagiarismResult{}
	}
	out := make([]models.PlagiarismResult, len(rec.results))
	copy(out, rec.results)
	return out
}
