package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/0001Moksh/moto-service-hub-sub000/internal/dto"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/http/handlers/common"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/service"
)

type AdminHandler struct {
	reassignments *service.ReassignmentService
}

func NewAdminHandler(reassignments *service.ReassignmentService) *AdminHandler {
	return &AdminHandler{reassignments: reassignments}
}

// ListManualAssignments handles GET /admin/manual-assignments.
func (h *AdminHandler) ListManualAssignments(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	bookings, err := h.reassignments.PendingManualAssignments(c.Request.Context(), actor)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"bookings": bookings})
}

// ManualAssign handles POST /admin/bookings/:id/assign.
func (h *AdminHandler) ManualAssign(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	bookingID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ManualAssignRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	workerID, err := uuid.Parse(req.WorkerID)
	if err != nil {
		common.RespondBadRequest(c, "worker_id is not a valid UUID")
		return
	}

	booking, err := h.reassignments.ManualAssign(c.Request.Context(), bookingID, workerID, actor)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, booking)
}
