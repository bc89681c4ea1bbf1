package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/0001Moksh/moto-service-hub-sub000/internal/http/middleware"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/models"
)

func asActor(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextActorKey, models.Actor{ID: uuid.New(), Role: role})
		c.Next()
	}
}

func TestBookingHandler_Get_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &BookingHandler{bookings: nil}
	r.GET("/bookings/:id", handler.Get)

	req, _ := http.NewRequest("GET", "/bookings/"+"a2f1c9e0-0000-0000-0000-000000000001", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingHandler_Get_InvalidBookingID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &BookingHandler{bookings: nil}
	r.GET("/bookings/:id", asActor(models.RoleCustomer), handler.Get)

	req, _ := http.NewRequest("GET", "/bookings/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandler_Create_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &BookingHandler{bookings: nil}
	r.POST("/bookings", handler.Create)

	req, _ := http.NewRequest("POST", "/bookings", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingHandler_Cancel_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &BookingHandler{bookings: nil}
	r.POST("/bookings/:id/cancel", handler.Cancel)

	req, _ := http.NewRequest("POST", "/bookings/a2f1c9e0-0000-0000-0000-000000000001/cancel", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWorkerHandler_ReportEmergency_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &WorkerHandler{reassignments: nil}
	r.POST("/workers/:id/emergency", handler.ReportEmergency)

	req, _ := http.NewRequest("POST", "/workers/a2f1c9e0-0000-0000-0000-000000000002/emergency", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminHandler_ManualAssign_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &AdminHandler{reassignments: nil}
	r.POST("/admin/bookings/:id/assign", handler.ManualAssign)

	req, _ := http.NewRequest("POST", "/admin/bookings/a2f1c9e0-0000-0000-0000-000000000003/assign", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
