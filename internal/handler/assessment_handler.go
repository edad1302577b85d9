package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stjoseph/assessment-gateway/internal/middleware"
	"github.com/stjoseph/assessment-gateway/internal/repository"
	"github.com/stjoseph/assessment-gateway/internal/response"
	"github.com/stjoseph/assessment-gateway/internal/service"
)

// AssessmentHandler serves the lobby listing and the student's result history.
type AssessmentHandler struct {
	assessmentService *service.AssessmentService
	results           *repository.ResultRepository
	log               zerolog.Logger
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(
	assessmentService *service.AssessmentService,
	results *repository.ResultRepository,
	log zerolog.Logger,
) *AssessmentHandler {
	return &AssessmentHandler{
		assessmentService: assessmentService,
		results:           results,
		log:               log.With().Str("component", "assessment_handler").Logger(),
	}
}

// GetLobby godoc
// GET /api/v1/student/assessments
// Lists the student's assessments with availability phase and completion flags.
func (h *AssessmentHandler) GetLobby(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	lobby, err := h.assessmentService.GetLobby(c.Request.Context(), middleware.GetToken(c), claims.UserID)
	if err != nil {
		h.log.Error().Err(err).Int("user_id", claims.UserID).Msg("Lobby fetch failed")
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assessments": lobby})
}

// GetHistory godoc
// GET /api/v1/student/results
// Lists the student's archived assessment results, most recent first.
func (h *AssessmentHandler) GetHistory(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.results.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.log.Error().Err(err).Int("user_id", claims.UserID).Msg("Result history query failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}
