package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"limora/models"
	"limora/services/workflow"
	"limora/utils"
)

// SubmitQuote records a provider's response to a quote invitation. Both
// accepted quotes and declines count as responses for the polling loop.
func (hb *HandlerBundle) SubmitQuote(c *gin.Context) {
	runID := c.Param("runID")

	var input struct {
		ProviderID     string  `json:"providerId" binding:"required"`
		ProviderName   string  `json:"providerName"`
		ProviderRating float64 `json:"providerRating"`
		AmountCents    int64   `json:"amountCents"`
		ResponseNote   string  `json:"responseNote"`
		Status         string  `json:"status"`
		DeclineReason  string  `json:"declineReason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if input.Status == "" {
		input.Status = models.QuoteAccepted
	}
	if input.Status != models.QuoteAccepted && input.Status != models.QuoteDeclined {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "status must be accepted or declined")
		return
	}
	if input.Status == models.QuoteAccepted && input.AmountCents <= 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "accepted quotes need a positive amountCents")
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

	quote := &models.ProviderQuote{
		ID:               uuid.New().String(),
		BookingRequestID: run.BookingRequestID,
		WorkflowRunID:    runID,
		ProviderID:       input.ProviderID,
		ProviderName:     input.ProviderName,
		ProviderRating:   input.ProviderRating,
		AmountCents:      input.AmountCents,
		ResponseNote:     input.ResponseNote,
		Status:           input.Status,
		DeclineReason:    input.DeclineReason,
		RespondedAt:      time.Now(),
	}
	if err := hb.Quotes.Insert(c.Request.Context(), quote); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to record quote", err.Error())
		return
	}
	workflow.BumpResponseCount(c.Request.Context(), hb.Cache, runID)

	c.JSON(http.StatusCreated, gin.H{"quoteId": quote.ID})
}
