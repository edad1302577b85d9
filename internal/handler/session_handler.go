package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stjoseph/assessment-gateway/internal/middleware"
	"github.com/stjoseph/assessment-gateway/internal/response"
	"github.com/stjoseph/assessment-gateway/internal/service"
	"github.com/stjoseph/assessment-gateway/internal/session"
	"github.com/stjoseph/assessment-gateway/internal/validator"
)

// SessionHandler exposes the assessment-taking session over HTTP.
type SessionHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "session_handler").Logger(),
	}
}

// StartSession godoc
// POST /api/v1/student/assessments/:assessment_id/session
// Starts a timed session for the assessment.
func (h *SessionHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	assessmentID := c.Param("assessment_id")
	if assessmentID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	snap, err := h.sessionService.Start(c.Request.Context(), middleware.GetToken(c), claims.UserID, assessmentID)
	if err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": snap})
}

// GetSession godoc
// GET /api/v1/student/session
// Returns the observable state of the active session.
func (h *SessionHandler) GetSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	snap, err := h.sessionService.Snapshot(claims.UserID)
	if err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// GetPaper godoc
// GET /api/v1/student/session/paper
// Returns the full question paper for the active session.
func (h *SessionHandler) GetPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	paper, err := h.sessionService.Paper(claims.UserID)
	if err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assessment": paper})
}

// AnswerRequest records a selection for one question.
type AnswerRequest struct {
	QuestionIndex *int `json:"question_index" binding:"required"`
	Option        *int `json:"option" binding:"required"`
}

// Answer godoc
// PUT /api/v1/student/session/answer
// Records the selected option for a question.
func (h *SessionHandler) Answer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.Answer(claims.UserID, *req.QuestionIndex, *req.Option); err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"saved": true})
}

// NavigateRequest moves the session cursor.
type NavigateRequest struct {
	QuestionIndex *int `json:"question_index" binding:"required"`
}

// Navigate godoc
// PUT /api/v1/student/session/cursor
// Moves the session cursor to the given question.
func (h *SessionHandler) Navigate(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.Navigate(claims.UserID, *req.QuestionIndex); err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"moved": true})
}

// SubmitRequest finishes the session. Force bypasses the
// unanswered-questions confirmation.
type SubmitRequest struct {
	Force bool `json:"force"`
}

// Submit godoc
// POST /api/v1/student/session/submit
// Sends the session's answers to the grading platform.
func (h *SessionHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req SubmitRequest
	if c.Request.ContentLength > 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	result, err := h.sessionService.Submit(c.Request.Context(), claims.UserID, req.Force)
	if err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// GetResult godoc
// GET /api/v1/student/session/result
// Returns the grading outcome of a completed session.
func (h *SessionHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	result, err := h.sessionService.Result(claims.UserID)
	if err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// CloseSession godoc
// DELETE /api/v1/student/session
// Abandons the active session or dismisses a completed one.
func (h *SessionHandler) CloseSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.sessionService.Close(claims.UserID); err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"closed": true})
}

// failSession maps session and service errors onto API error codes.
func (h *SessionHandler) failSession(c *gin.Context, err error) {
	var unanswered *session.UnansweredError
	if errors.As(err, &unanswered) {
		response.FailWithFields(c, http.StatusConflict, response.ErrUnansweredQuestions, map[string]string{
			"unanswered": unanswered.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrNoActiveSession):
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
	case errors.Is(err, service.ErrSessionActive):
		response.Fail(c, http.StatusConflict, response.ErrSessionActive)
	case errors.Is(err, service.ErrAssessmentNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrAssessmentNotFound)
	case errors.Is(err, session.ErrNotOpenYet):
		response.Fail(c, http.StatusConflict, response.ErrAssessmentNotOpen)
	case errors.Is(err, session.ErrWindowClosed):
		response.Fail(c, http.StatusConflict, response.ErrAssessmentEnded)
	case errors.Is(err, session.ErrAlreadyCompleted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyCompleted)
	case errors.Is(err, session.ErrSubmissionInFlight):
		response.Fail(c, http.StatusConflict, response.ErrSubmissionInFlight)
	case errors.Is(err, session.ErrNotInProgress):
		response.Fail(c, http.StatusConflict, response.ErrNoActiveSession)
	case errors.Is(err, session.ErrOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrIndexOutOfRange)
	default:
		failUpstream(c, err)
	}
}

// failUpstream maps grading platform errors onto API error codes.
func failUpstream(c *gin.Context, err error) {
	var ge *session.GradingError
	if errors.As(err, &ge) {
		switch ge.Kind {
		case session.FailureAuth:
			response.Fail(c, http.StatusUnauthorized, response.ErrTokenExpired)
		case session.FailureValidation:
			response.FailWithMessage(c, http.StatusBadRequest, response.ErrSubmissionRejected, ge.Message)
		default:
			response.Fail(c, http.StatusBadGateway, response.ErrUpstreamUnavailable)
		}
		return
	}
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}
