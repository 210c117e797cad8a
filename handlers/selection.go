package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"limora/models"
	"limora/utils"
)

// SubmitCustomerReply delivers the customer's response to the presented
// quotes. A confirm with a quote ID is also written straight to the run so
// a workflow that just timed out on its event wait still finds it.
func (hb *HandlerBundle) SubmitCustomerReply(c *gin.Context) {
	runID := c.Param("runID")

	var input struct {
		Action  string `json:"action" binding:"required"`
		QuoteID string `json:"quoteId"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if input.Action != models.ActionConfirm && input.Action != models.ActionQuestion {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "action must be confirm or question")
		return
	}

	run, err := hb.Workflows.GetRun(c.Request.Context(), runID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to load workflow run", err.Error())
		return
	}
	if run == nil {
		utils.JSONError(c, http.StatusNotFound, "workflow run not found", runID)
		return
	}
	if run.Status.Terminal() {
		utils.JSONError(c, http.StatusConflict, "workflow run already finished", string(run.Status))
		return
	}

	if input.Action == models.ActionConfirm && input.QuoteID != "" {
		quote, err := hb.Quotes.GetByID(c.Request.Context(), input.QuoteID)
		if err != nil {
			utils.JSONError(c, http.StatusNotFound, "quote not found", input.QuoteID)
			return
		}
		if quote.WorkflowRunID != runID {
			utils.JSONError(c, http.StatusBadRequest, "invalid input", "quote does not belong to this workflow run")
			return
		}
		if err := hb.Workflows.RecordSelection(c.Request.Context(), runID, quote.ID, quote.ProviderID); err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "failed to record selection", err.Error())
			return
		}
	}

	reply := &models.CustomerReply{
		WorkflowRunID: runID,
		Action:        input.Action,
		QuoteID:       input.QuoteID,
		Message:       input.Message,
		ReceivedAt:    time.Now(),
	}
	if err := hb.Events.PublishReply(c.Request.Context(), reply); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to deliver reply", err.Error())
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "delivered"})
}
