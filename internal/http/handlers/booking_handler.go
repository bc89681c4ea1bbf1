package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/0001Moksh/moto-service-hub-sub000/internal/dto"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/http/handlers/common"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/service"
)

type BookingHandler struct {
	bookings      *service.BookingService
	reassignments *service.ReassignmentService
}

func NewBookingHandler(bookings *service.BookingService, reassignments *service.ReassignmentService) *BookingHandler {
	return &BookingHandler{bookings: bookings, reassignments: reassignments}
}

// Create handles POST /bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreateBookingRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	shopID, err := uuid.Parse(req.ShopID)
	if err != nil {
		common.RespondBadRequest(c, "shop_id is not a valid UUID")
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), actor, service.CreateBookingInput{
		ShopID:      shopID,
		ServiceType: req.ServiceType,
		BaseCost:    req.BaseCost,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, booking)
}

// Get handles GET /bookings/:id.
func (h *BookingHandler) Get(c *gin.Context) {
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

	booking, err := h.bookings.GetBooking(c.Request.Context(), bookingID, actor)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, booking)
}

// Confirm handles POST /bookings/:id/confirm.
func (h *BookingHandler) Confirm(c *gin.Context) {
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

	booking, err := h.bookings.Confirm(c.Request.Context(), bookingID, actor)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, booking)
}

// Assign handles POST /bookings/:id/assign. A null worker_id means no
// candidate was found and the booking stays confirmed.
func (h *BookingHandler) Assign(c *gin.Context) {
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

	workerID, err := h.bookings.Assign(c.Request.Context(), bookingID, actor)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.AssignResponse{WorkerID: workerID})
}

// Advance handles POST /bookings/:id/advance.
func (h *BookingHandler) Advance(c *gin.Context) {
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

	var req dto.AdvanceBookingRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	booking, err := h.bookings.Advance(c.Request.Context(), bookingID, actor, req.Target)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, booking)
}

// Cancel handles POST /bookings/:id/cancel.
func (h *BookingHandler) Cancel(c *gin.Context) {
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

	var req dto.CancelBookingRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.bookings.Cancel(c.Request.Context(), bookingID, actor, req.Reason)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.CancellationResponse{
		CancellationID:   result.CancellationID,
		TokensDeducted:   result.TokensDeducted,
		RefundAmount:     result.RefundAmount,
		RefundPercentage: result.RefundPercentage,
	})
}

// Reassign handles POST /bookings/:id/reassign.
func (h *BookingHandler) Reassign(c *gin.Context) {
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

	var req dto.ReassignBookingRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	outcome, err := h.reassignments.Reassign(c.Request.Context(), bookingID, actor, req.Reason)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, reassignmentOutcomeResponse(outcome))
}

// History handles GET /bookings/:id/reassignments.
func (h *BookingHandler) History(c *gin.Context) {
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

	records, err := h.reassignments.History(c.Request.Context(), bookingID, actor)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"reassignments": records})
}

func reassignmentOutcomeResponse(outcome *service.ReassignmentOutcome) gin.H {
	return gin.H{
		"booking_id":                outcome.BookingID,
		"worker_id":                 outcome.NewWorkerID,
		"fallback":                  outcome.Fallback,
		"pending_manual_assignment": outcome.ManualAssignment,
	}
}
