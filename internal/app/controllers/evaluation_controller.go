package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blindgrade/blindgrade/internal/app/models"
	"github.com/blindgrade/blindgrade/internal/app/models/dto"
	"github.com/blindgrade/blindgrade/internal/app/services"
	"github.com/blindgrade/blindgrade/internal/middleware"
)

// EvaluationController handles mark submission and script views
type EvaluationController struct {
	evaluationService *services.EvaluationService
}

// NewEvaluationController creates a new EvaluationController
func NewEvaluationController(evaluationService *services.EvaluationService) *EvaluationController {
	return &EvaluationController{
		evaluationService: evaluationService,
	}
}

func (c *EvaluationController) submitMarks(ctx *gin.Context, slot models.EvaluatorSlot) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	scriptID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.SubmitMarksRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	script, err := c.evaluationService.SubmitMarks(ctx, userID, scriptID, slot, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      script,
		Timestamp: time.Now(),
	})
}

// SubmitFirstMarks records the first (teacher) evaluation
// @Summary Submit first evaluation
// @Description Records the first evaluator's total for a script. Resubmission overwrites the previous value.
// @Tags evaluation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Script ID"
// @Param request body dto.SubmitMarksRequest true "Marks and optional remarks"
// @Success 200 {object} dto.APIResponse{data=dto.ScriptView} "Evaluation recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid marks"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not the assigned first evaluator"
// @Failure 404 {object} dto.ErrorResponse "Script not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /teacher/scripts/{id}/marks [put]
func (c *EvaluationController) SubmitFirstMarks(ctx *gin.Context) {
	c.submitMarks(ctx, models.SlotFirst)
}

// SubmitSecondMarks records the second (external) evaluation
// @Summary Submit second evaluation
// @Description Records the second evaluator's total for a script. Rejected until the first evaluation exists.
// @Tags evaluation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Script ID"
// @Param request body dto.SubmitMarksRequest true "Marks and optional remarks"
// @Success 200 {object} dto.APIResponse{data=dto.ScriptView} "Evaluation recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid marks"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not the assigned second evaluator"
// @Failure 404 {object} dto.ErrorResponse "Script not found"
// @Failure 409 {object} dto.ErrorResponse "First evaluation not completed yet"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /external/scripts/{id}/marks [put]
func (c *EvaluationController) SubmitSecondMarks(ctx *gin.Context) {
	c.submitMarks(ctx, models.SlotSecond)
}

// GetScript retrieves a script projected for the caller
// @Summary Get script
// @Description Retrieves a script. Mark fields the caller must not see are omitted from the response.
// @Tags evaluation
// @Produce json
// @Security BearerAuth
// @Param id path int true "Script ID"
// @Success 200 {object} dto.APIResponse{data=dto.ScriptView} "Script retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid script ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not assigned to this script's subject"
// @Failure 404 {object} dto.ErrorResponse "Script not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /scripts/{id} [get]
func (c *EvaluationController) GetScript(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	scriptID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	script, err := c.evaluationService.GetScript(ctx, userID, scriptID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      script,
		Timestamp: time.Now(),
	})
}

// GetSubjectScripts lists a subject's scripts projected for the caller
// @Summary List subject scripts
// @Description Lists all scripts of a subject. The same mark redaction applies to every row.
// @Tags evaluation
// @Produce json
// @Security BearerAuth
// @Param id path int true "Subject ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.ScriptView} "Scripts retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid subject ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not assigned to this subject"
// @Failure 404 {object} dto.ErrorResponse "Subject not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /subjects/{id}/scripts [get]
func (c *EvaluationController) GetSubjectScripts(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	subjectID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	scripts, err := c.evaluationService.GetSubjectScripts(ctx, userID, subjectID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      scripts,
		Timestamp: time.Now(),
	})
}

// SaveMark upserts one per-question mark
// @Summary Save per-question mark
// @Description Inserts or overwrites the mark for one question of a script
// @Tags marks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Script ID"
// @Param request body dto.SaveMarkRequest true "Mark information"
// @Success 200 {object} dto.APIResponse{data=dto.MarkRow} "Mark saved"
// @Failure 400 {object} dto.ErrorResponse "Invalid mark data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not assigned to this script's subject"
// @Failure 404 {object} dto.ErrorResponse "Script not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /scripts/{id}/marks [post]
func (c *EvaluationController) SaveMark(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	scriptID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.SaveMarkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	mark, err := c.evaluationService.SaveMark(ctx, userID, scriptID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      mark,
		Timestamp: time.Now(),
	})
}

// GetMarks lists the per-question marks of a script
// @Summary List per-question marks
// @Description Lists the stored per-question marks of a script
// @Tags marks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Script ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.MarkRow} "Marks retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not assigned to this script's subject"
// @Failure 404 {object} dto.ErrorResponse "Script not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /scripts/{id}/marks [get]
func (c *EvaluationController) GetMarks(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	scriptID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	marks, err := c.evaluationService.GetMarks(ctx, userID, scriptID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      marks,
		Timestamp: time.Now(),
	})
}

// GetTotals sums the per-question marks of a script
// @Summary Mark totals
// @Description Sums the stored per-question marks of a script
// @Tags marks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Script ID"
// @Success 200 {object} dto.APIResponse{data=dto.MarkTotalsResponse} "Totals retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not assigned to this script's subject"
// @Failure 404 {object} dto.ErrorResponse "Script not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /scripts/{id}/marks/totals [get]
func (c *EvaluationController) GetTotals(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	scriptID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	totals, err := c.evaluationService.GetTotals(ctx, userID, scriptID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      totals,
		Timestamp: time.Now(),
	})
}

// SaveReport finalizes a script through the single-evaluator path
// @Summary Save evaluation report
// @Description Stores the report remarks and finalizes a script. Not available for scripts in the dual workflow.
// @Tags marks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Script ID"
// @Param request body dto.SaveReportRequest true "Report information"
// @Success 204 "Report saved"
// @Failure 400 {object} dto.ErrorResponse "Invalid report data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not assigned to this script's subject"
// @Failure 404 {object} dto.ErrorResponse "Script not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /scripts/{id}/report [post]
func (c *EvaluationController) SaveReport(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	scriptID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.SaveReportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	if err := c.evaluationService.SaveReport(ctx, userID, scriptID, &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// GetEvaluatedResults lists finalized single-evaluator scripts
// @Summary List evaluated results
// @Description Lists every script finalized through the single-evaluator path with summed totals and the question paper title
// @Tags marks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.EvaluatedResultRow} "Results retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /evaluation/results [get]
func (c *EvaluationController) GetEvaluatedResults(ctx *gin.Context) {
	results, err := c.evaluationService.GetEvaluatedResults(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      results,
		Timestamp: time.Now(),
	})
}
