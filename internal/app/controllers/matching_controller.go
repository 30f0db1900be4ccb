package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blindgrade/blindgrade/internal/app/models/dto"
	"github.com/blindgrade/blindgrade/internal/app/services"
	"github.com/blindgrade/blindgrade/internal/middleware"
)

// MatchingController serves question-to-rubric alignments
type MatchingController struct {
	matchingService *services.MatchingService
}

// NewMatchingController creates a new MatchingController
func NewMatchingController(matchingService *services.MatchingService) *MatchingController {
	return &MatchingController{
		matchingService: matchingService,
	}
}

// GetMatch aligns a question paper with its rubric
// @Summary Match questions to rubric
// @Description Pairs each question of a paper with the grading criterion sharing its question number. Unmatched sides are null.
// @Tags matching
// @Produce json
// @Security BearerAuth
// @Param id path int true "Question paper ID"
// @Success 200 {object} dto.APIResponse{data=dto.MatchResponse} "Alignment retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid question paper ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Question paper not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /question-papers/{id}/match [get]
func (c *MatchingController) GetMatch(ctx *gin.Context) {
	paperID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	match, err := c.matchingService.Match(ctx, paperID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      match,
		Timestamp: time.Now(),
	})
}
