package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"limora/config"
	"limora/models"
	"limora/services/tasks"
	"limora/utils"
)

// CreateBookingRequest persists a new booking request and kicks off its
// fulfillment workflow as a background task. The run ID is assigned here so
// the caller can follow the run before the worker picks the task up.
func (hb *HandlerBundle) CreateBookingRequest(c *gin.Context) {
	var input struct {
		Customer        models.Customer `json:"customer" binding:"required"`
		PickupLocation  string          `json:"pickupLocation" binding:"required"`
		PickupGeo       models.GeoPoint `json:"pickupGeo" binding:"required"`
		DropoffLocation string          `json:"dropoffLocation" binding:"required"`
		PickupTime      time.Time       `json:"pickupTime" binding:"required"`
		EstimatedHours  float64         `json:"estimatedHours"`
		PassengerCount  int             `json:"passengerCount" binding:"required,min=1"`
		VehicleType     string          `json:"vehicleType" binding:"required"`
		SpecialRequests string          `json:"specialRequests"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if input.Customer.ID == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "customer.id is required")
		return
	}

	req := &models.BookingRequest{
		ID:              uuid.New().String(),
		CustomerID:      input.Customer.ID,
		PickupLocation:  input.PickupLocation,
		PickupGeo:       input.PickupGeo,
		DropoffLocation: input.DropoffLocation,
		PickupTime:      input.PickupTime,
		EstimatedHours:  input.EstimatedHours,
		PassengerCount:  input.PassengerCount,
		VehicleType:     input.VehicleType,
		SpecialRequests: input.SpecialRequests,
		Status:          "open",
		CreatedAt:       time.Now(),
	}
	if err := hb.Requests.Create(c.Request.Context(), req); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to create booking request", err.Error())
		return
	}

	runID := uuid.New().String()
	task, opts, err := tasks.NewFulfillTask(tasks.FulfillPayload{
		WorkflowRunID:    runID,
		BookingRequestID: req.ID,
		Customer:         input.Customer,
	}, config.AppConfig.WorkflowRetryAttempts)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to build fulfillment task", err.Error())
		return
	}
	if _, err := hb.TaskClient.Enqueue(task, opts...); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to enqueue fulfillment task", err.Error())
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"bookingRequestId": req.ID,
		"workflowRunId":    runID,
	})
}
