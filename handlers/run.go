package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"limora/utils"
)

// GetWorkflowRun returns the current state of a fulfillment run.
func (hb *HandlerBundle) GetWorkflowRun(c *gin.Context) {
	runID := c.Param("runID")

	run, err := hb.Workflows.GetRun(c.Request.Context(), runID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to load workflow run", err.Error())
		return
	}
	if run == nil {
		utils.JSONError(c, http.StatusNotFound, "workflow run not found", runID)
		return
	}
	c.JSON(http.StatusOK, run)
}

// ListRunQuotes returns the quotes collected so far for a fulfillment run.
func (hb *HandlerBundle) ListRunQuotes(c *gin.Context) {
	runID := c.Param("runID")

	run, err := hb.Workflows.GetRun(c.Request.Context(), runID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to load workflow run", err.Error())
		return
	}
	if run == nil {
		utils.JSONError(c, http.StatusNotFound, "workflow run not found", runID)
		return
	}

	quotes, err := hb.Quotes.ListByRun(c.Request.Context(), runID)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list quotes", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}
