package plagiarism

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RishiKendai/aegis-console/internal/auth"
	"github.com/RishiKendai/aegis-console/internal/metrics"
	"github.com/RishiKendai/aegis-console/internal/models"
	"github.com/RishiKendai/aegis-console/internal/scanner"
	"github.com/rs/zerolog/log"
)

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseIdle, PhaseRunning, PhaseSucceeded, PhaseFailed:
		return true
	}
	return false
}

// Scanner runs the pairwise similarity scan for a class.
type Scanner interface {
	Scan(ctx context.Context, classID, token string) ([]models.PlagiarismResult, error)
}

// SessionConfig wires a session to its collaborators. Notifier, Status and
// Board are optional.
type SessionConfig struct {
	ClassID  string
	Viewer   models.Viewer
	Scanner  Scanner
	Tokens   auth.TokenProvider
	Notifier Notifier
	Status   StatusPublisher
	Board    *Board
}

// State is a point-in-time copy of a session.
type State struct {
	ClassID            string
	Phase              Phase
	ModalVisible       bool
	StudentViewEnabled bool
	Results            []models.PlagiarismResult
}

func (s State) IsChecking() bool {
	return s.Phase == PhaseRunning
}

// Session holds one class view's scan results and lifecycle.
type Session struct {
	classID  string
	viewer   models.Viewer
	scanner  Scanner
	tokens   auth.TokenProvider
	notifier Notifier
	status   StatusPublisher
	board    *Board

	mu                 sync.RWMutex
	phase              Phase
	results            []models.PlagiarismResult
	modalVisible       bool
	studentViewEnabled bool
}

func NewSession(cfg SessionConfig) *Session {
	s := &Session{
		classID:  cfg.ClassID,
		viewer:   cfg.Viewer,
		scanner:  cfg.Scanner,
		tokens:   cfg.Tokens,
		notifier: cfg.Notifier,
		status:   cfg.Status,
		board:    cfg.Board,
		phase:    PhaseIdle,
		results:  []models.PlagiarismResult{},
	}
	if s.board != nil {
		s.studentViewEnabled = s.board.StudentView(s.classID)
	}
	return s
}

func (s *Session) ClassID() string {
	return s.classID
}

func (s *Session) Viewer() models.Viewer {
	return s.viewer
}

// StartScan runs a scan and waits for it to resolve. Non-lecturers are
// ignored without error. Scan failures are reported to the notifier, leave
// previous results in place and are also returned.
func (s *Session) StartScan(ctx context.Context) error {
	started, err := s.begin(ctx)
	if err != nil || !started {
		return err
	}
	return s.run(ctx)
}

// StartScanAsync enters the running phase immediately and hands the request
// to the submitter. ctx bounds how long scheduling may block; the scan itself
// runs on the submitter's context.
func (s *Session) StartScanAsync(ctx context.Context, submitter Submitter) error {
	started, err := s.begin(ctx)
	if err != nil || !started {
		return err
	}

	if err := submitter.Submit(ctx, &ScanJob{session: s}); err != nil {
		s.fail(context.WithoutCancel(ctx), &scanner.ScanTransportError{Op: "schedule scan", Err: err}, 0)
		return fmt.Errorf("failed to schedule scan: %w", err)
	}
	return nil
}

func (s *Session) begin(ctx context.Context) (bool, error) {
	if !s.viewer.IsLecturer() {
		log.Debug().
			Str("classId", s.classID).
			Str("viewer", s.viewer.ID).
			Msg("Ignoring scan trigger from non-lecturer")
		return false, nil
	}

	s.mu.Lock()
	if s.phase == PhaseRunning {
		s.mu.Unlock()
		metrics.ScanCount.WithLabelValues(metrics.OutcomeRejected).Inc()
		return false, ErrScanInProgress
	}
	s.phase = PhaseRunning
	s.mu.Unlock()

	log.Debug().Str("classId", s.classID).Str("viewer", s.viewer.ID).Msg("Plagiarism scan started")
	s.publish(ctx, PhaseRunning)
	return true, nil
}

func (s *Session) run(ctx context.Context) error {
	start := time.Now()

	results, err := s.fetch(ctx)
	if err != nil {
		s.fail(ctx, err, time.Since(start))
		return err
	}

	if s.board != nil {
		s.board.PublishResults(s.classID, results)
	}

	s.mu.Lock()
	s.results = results
	s.phase = PhaseSucceeded
	s.modalVisible = true
	s.mu.Unlock()

	elapsed := time.Since(start)
	metrics.ObserveScan(metrics.OutcomeSucceeded, elapsed, len(results))
	log.Info().
		Str("classId", s.classID).
		Int("pairs", len(results)).
		Dur("duration", elapsed).
		Msg("Plagiarism scan completed")

	s.publish(ctx, PhaseSucceeded)
	return nil
}

func (s *Session) fetch(ctx context.Context) ([]models.PlagiarismResult, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, &scanner.ScanTransportError{Op: "load token", Err: err}
	}

	results, err := s.scanner.Scan(ctx, s.classID, token)
	if err != nil {
		return nil, err
	}

	out := make([]models.PlagiarismResult, len(results))
	copy(out, results)
	return out, nil
}

func (s *Session) fail(ctx context.Context, err error, elapsed time.Duration) {
	s.mu.Lock()
	s.phase = PhaseFailed
	s.mu.Unlock()

	metrics.ObserveScan(metrics.OutcomeFailed, elapsed, 0)
	log.Warn().Err(err).Str("classId", s.classID).Msg("Plagiarism scan failed")

	if s.notifier != nil {
		s.notifier.Notify(Notification{
			Level:   NotificationError,
			Message: FailureMessage(err),
		})
	}

	s.publish(ctx, PhaseFailed)
}

func (s *Session) publish(ctx context.Context, phase Phase) {
	if s.status == nil {
		return
	}
	if err := s.status.Publish(ctx, s.classID, phase); err != nil {
		log.Warn().Err(err).Str("classId", s.classID).Str("phase", string(phase)).Msg("Failed to publish scan phase")
	}
}

func (s *Session) IsChecking() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase == PhaseRunning
}

func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// CloseModal hides the results modal without discarding results.
func (s *Session) CloseModal() {
	s.mu.Lock()
	s.modalVisible = false
	s.mu.Unlock()
}

// SetStudentView records the switch locally. A lecturer's choice is also
// published to the class board, where students' sessions read it.
func (s *Session) SetStudentView(enabled bool) {
	s.mu.Lock()
	s.studentViewEnabled = enabled
	s.mu.Unlock()

	if s.board != nil && s.viewer.IsLecturer() {
		s.board.SetStudentView(s.classID, enabled)
	}
}

// followsBoard reports whether the session mirrors class-wide state instead
// of owning it.
func (s *Session) followsBoard() bool {
	return s.board != nil && !s.viewer.IsLecturer()
}

func (s *Session) Snapshot() State {
	s.mu.RLock()
	results := make([]models.PlagiarismResult, len(s.results))
	copy(results, s.results)
	state := State{
		ClassID:            s.classID,
		Phase:              s.phase,
		ModalVisible:       s.modalVisible,
		StudentViewEnabled: s.studentViewEnabled,
		Results:            results,
	}
	s.mu.RUnlock()

	if s.followsBoard() {
		state.StudentViewEnabled = s.board.StudentView(s.classID)
	}
	return state
}

// Stats is recomputed from the current results on every call.
func (s *Session) Stats() Stats {
	return ComputeStats(s.Snapshot().Results)
}

// ViewerStatus classifies results for the session's viewer. Sessions on a
// board are judged against the class's latest successful scan.
func (s *Session) ViewerStatus() *ViewerStatus {
	state := s.Snapshot()
	if s.followsBoard() {
		state.Results = s.board.Results(s.classID)
	}
	return GetViewerStatus(s.viewer, state)
}

// ScanJob runs a session's pending scan on a worker pool.
type ScanJob struct {
	session *Session
}

// Execute resolves the scan. Failures are already surfaced through the
// session's notifier, so they are not reported to the pool. A job handed a
// cancelled context fails without contacting the scanner.
func (j *ScanJob) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		j.session.fail(context.WithoutCancel(ctx), &scanner.ScanTransportError{Op: "execute scan", Err: err}, 0)
		return nil
	}
	_ = j.session.run(ctx)
	return nil
}
