package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/0001Moksh/moto-service-hub-sub000/internal/dto"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/http/handlers/common"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/service"
)

type WorkerHandler struct {
	reassignments *service.ReassignmentService
}

func NewWorkerHandler(reassignments *service.ReassignmentService) *WorkerHandler {
	return &WorkerHandler{reassignments: reassignments}
}

// ReportEmergency handles POST /workers/:id/emergency.
func (h *WorkerHandler) ReportEmergency(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	workerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.WorkerEmergencyRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		common.RespondBadRequest(c, "booking_id is not a valid UUID")
		return
	}

	outcome, err := h.reassignments.ReportEmergency(c.Request.Context(), workerID, bookingID, actor, req.Reason)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, reassignmentOutcomeResponse(outcome))
}

// SetAvailability handles POST /workers/:id/availability. Marking a worker
// unavailable triggers the reassignment cascade over all their open
// bookings before the response returns.
func (h *WorkerHandler) SetAvailability(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	workerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.SetAvailabilityRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.reassignments.SetWorkerAvailability(c.Request.Context(), workerID, actor, *req.Available, req.Reason); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "availability updated", gin.H{
		"worker_id": workerID,
		"available": *req.Available,
	})
}
