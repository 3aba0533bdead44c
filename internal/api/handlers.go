package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/RishiKendai/aegis-console/internal/auth"
	"github.com/RishiKendai/aegis-console/internal/models"
	"github.com/RishiKendai/aegis-console/internal/plagiarism"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	inboxLimit = 20

	// scheduleTimeout bounds how long a trigger waits for room in the scan queue.
	scheduleTimeout = 2 * time.Second
)

// AssignmentCounter reports how many assignments a class has.
type AssignmentCounter interface {
	CountAssignmentsByClassID(ctx context.Context, classID string) (int64, error)
}

// TokenStore persists the credential each viewer's scans are sent with.
type TokenStore interface {
	Save(ctx context.Context, viewerID, token string) error
	ForViewer(viewerID string) auth.TokenProvider
}

// PhaseStore publishes and reads per-class scan phases.
type PhaseStore interface {
	plagiarism.StatusPublisher
	Current(ctx context.Context, classID string) (plagiarism.Phase, error)
}

// Handler holds dependencies for handlers
type Handler struct {
	registry    *Registry
	scanner     plagiarism.Scanner
	tokens      TokenStore
	assignments AssignmentCounter
	phases      PhaseStore
	pool        plagiarism.Submitter
	board       *plagiarism.Board
}

// NewHandler creates a new handler
func NewHandler(
	registry *Registry,
	scanner plagiarism.Scanner,
	tokens TokenStore,
	assignments AssignmentCounter,
	phases PhaseStore,
	pool plagiarism.Submitter,
	board *plagiarism.Board,
) *Handler {
	return &Handler{
		registry:    registry,
		scanner:     scanner,
		tokens:      tokens,
		assignments: assignments,
		phases:      phases,
		pool:        pool,
		board:       board,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"sessions": h.registry.Len(),
	})
}

// MountSession creates the scan session for a class view.
func (h *Handler) MountSession(c *gin.Context) {
	classID := c.Param("classId")
	if classID == "" {
		abortWithError(c, http.StatusBadRequest, "classId is required", "INVALID_CLASS_ID")
		return
	}

	viewer := viewerFrom(c)
	ctx := c.Request.Context()

	if err := h.tokens.Save(ctx, viewer.ID, c.GetString(ctxTokenKey)); err != nil {
		log.Error().Err(err).Str("viewer", viewer.ID).Msg("Failed to store viewer credential")
		abortWithError(c, http.StatusInternalServerError, "Failed to store credential", "INTERNAL_ERROR")
		return
	}

	inbox := plagiarism.NewInbox(inboxLimit)
	session := plagiarism.NewSession(plagiarism.SessionConfig{
		ClassID:  classID,
		Viewer:   viewer,
		Scanner:  h.scanner,
		Tokens:   h.tokens.ForViewer(viewer.ID),
		Notifier: inbox,
		Status:   h.phases,
		Board:    h.board,
	})

	id := h.registry.Mount(session, inbox)

	c.JSON(http.StatusCreated, models.MountSessionResponse{
		SessionID: id,
		ClassID:   classID,
	})
}

func (h *Handler) UnmountSession(c *gin.Context) {
	if err := h.registry.Unmount(c.Param("sessionId"), viewerFrom(c).ID); err != nil {
		h.sessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetSession(c *gin.Context) {
	ms, ok := h.lookup(c)
	if !ok {
		return
	}

	canCheck, err := h.canCheck(c.Request.Context(), ms.session)
	if err != nil {
		log.Error().Err(err).Str("classId", ms.session.ClassID()).Msg("Failed to count assignments")
		abortWithError(c, http.StatusInternalServerError, "Failed to count assignments", "INTERNAL_ERROR")
		return
	}

	c.JSON(http.StatusOK, sessionResponse(ms.id, ms.session.Snapshot(), canCheck))
}

// TriggerScan starts a scan in the background. Non-lecturers get the
// current state back unchanged.
func (h *Handler) TriggerScan(c *gin.Context) {
	ms, ok := h.lookup(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	viewer := viewerFrom(c)

	if viewer.IsLecturer() {
		if err := h.tokens.Save(ctx, viewer.ID, c.GetString(ctxTokenKey)); err != nil {
			log.Warn().Err(err).Str("viewer", viewer.ID).Msg("Failed to refresh viewer credential")
		}
	}

	scheduleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), scheduleTimeout)
	defer cancel()

	err := ms.session.StartScanAsync(scheduleCtx, h.pool)
	switch {
	case errors.Is(err, plagiarism.ErrScanInProgress):
		abortWithError(c, http.StatusConflict, "A plagiarism check is already running", "SCAN_IN_PROGRESS")
		return
	case err != nil:
		abortWithError(c, http.StatusServiceUnavailable, "Failed to schedule plagiarism check", "SCAN_UNAVAILABLE")
		return
	}

	state := ms.session.Snapshot()
	status := http.StatusOK
	if state.IsChecking() {
		status = http.StatusAccepted
	}

	c.JSON(status, models.ScanTriggerResponse{
		Phase:      string(state.Phase),
		IsChecking: state.IsChecking(),
	})
}

func (h *Handler) CloseModal(c *gin.Context) {
	ms, ok := h.lookup(c)
	if !ok {
		return
	}

	ms.session.CloseModal()
	c.Status(http.StatusNoContent)
}

// SetStudentView lets the lecturer choose whether students of the class see
// their verdict.
func (h *Handler) SetStudentView(c *gin.Context) {
	ms, ok := h.lookup(c)
	if !ok {
		return
	}

	if !viewerFrom(c).IsLecturer() {
		abortWithError(c, http.StatusForbidden, "Only lecturers can change the student view", "FORBIDDEN")
		return
	}

	var req models.StudentViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body", "INVALID_REQUEST")
		return
	}

	ms.session.SetStudentView(*req.Enabled)
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetStats(c *gin.Context) {
	ms, ok := h.lookup(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, ms.session.Stats())
}

// GetViewerStatus returns the verdict for the viewer, or null when the
// viewer is not entitled to one.
func (h *Handler) GetViewerStatus(c *gin.Context) {
	ms, ok := h.lookup(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, ms.session.ViewerStatus())
}

func (h *Handler) DrainNotifications(c *gin.Context) {
	ms, ok := h.lookup(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, ms.inbox.Drain())
}

// GetClassScanStatus reports the last published phase for a class.
func (h *Handler) GetClassScanStatus(c *gin.Context) {
	classID := c.Param("classId")

	phase, err := h.phases.Current(c.Request.Context(), classID)
	if err != nil {
		log.Error().Err(err).Str("classId", classID).Msg("Failed to read scan phase")
		abortWithError(c, http.StatusInternalServerError, "Failed to read scan status", "INTERNAL_ERROR")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"classId": classID,
		"phase":   phase,
	})
}

func (h *Handler) lookup(c *gin.Context) (*mountedSession, bool) {
	ms, err := h.registry.Get(c.Param("sessionId"), viewerFrom(c).ID)
	if err != nil {
		h.sessionError(c, err)
		return nil, false
	}
	return ms, true
}

func (h *Handler) sessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		abortWithError(c, http.StatusNotFound, "Session not found", "SESSION_NOT_FOUND")
	case errors.Is(err, ErrNotSessionOwner):
		abortWithError(c, http.StatusForbidden, "Session belongs to another viewer", "FORBIDDEN")
	default:
		_ = c.Error(err)
	}
}

func (h *Handler) canCheck(ctx context.Context, session *plagiarism.Session) (bool, error) {
	viewer := session.Viewer()
	if !viewer.IsLecturer() {
		return false, nil
	}

	count, err := h.assignments.CountAssignmentsByClassID(ctx, session.ClassID())
	if err != nil {
		return false, err
	}
	return plagiarism.CanCheckPlagiarism(viewer, count), nil
}

func sessionResponse(id string, state plagiarism.State, canCheck bool) models.SessionResponse {
	return models.SessionResponse{
		SessionID:          id,
		ClassID:            state.ClassID,
		Phase:              string(state.Phase),
		IsChecking:         state.IsChecking(),
		ModalVisible:       state.ModalVisible,
		StudentViewEnabled: state.StudentViewEnabled,
		CanCheckPlagiarism: canCheck,
		Results:            state.Results,
	}
}
