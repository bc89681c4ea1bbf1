package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/0001Moksh/moto-service-hub-sub000/internal/dto"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/http/middleware"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/logger"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/models"
	"github.com/0001Moksh/moto-service-hub-sub000/internal/pkg/apperror"
)

// ErrNoActor is returned when no authenticated actor is in the context.
var ErrNoActor = errors.New("no authenticated actor in context")

// CurrentActor extracts the acting identity from the gin context.
func CurrentActor(c *gin.Context) (models.Actor, error) {
	raw, exists := c.Get(middleware.ContextActorKey)
	if !exists {
		return models.Actor{}, ErrNoActor
	}

	actor, ok := raw.(models.Actor)
	if !ok {
		return models.Actor{}, ErrNoActor
	}
	return actor, nil
}

// ParseUUIDParam parses a UUID URL parameter.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	param := c.Param(paramName)
	if param == "" {
		return uuid.Nil, fmt.Errorf("missing %s parameter", paramName)
	}

	parsed, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid UUID", paramName)
	}
	return parsed, nil
}

// BindAndValidate binds the JSON body and normalizes the error message.
func BindAndValidate(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return fmt.Errorf("request validation failed: %w", err)
	}
	return nil
}

// RespondAppError maps a service error onto the uniform error envelope.
// Unknown errors are masked and logged.
func RespondAppError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, dto.ErrorResponse{
			Error:   appErr.Message,
			Code:    string(appErr.Code),
			Details: appErr.Details,
		})
		return
	}

	if logger.Log != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("request failed")
	}
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
}

// RespondJSON sends a JSON response with the given status code and data.
func RespondJSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// RespondSuccess wraps data in the success envelope.
func RespondSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, dto.SuccessResponse{
		Message: message,
		Data:    data,
	})
}

// RespondUnauthorized sends a 401 response.
func RespondUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "authorization required"
	}
	c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: message})
}

// RespondBadRequest sends a 400 response.
func RespondBadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "invalid request"
	}
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: message})
}
