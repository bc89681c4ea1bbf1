package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps operation results with a human message.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AssignResponse reports the matched worker, or null when the shop has no
// candidate and the booking stays confirmed.
type AssignResponse struct {
	WorkerID *uuid.UUID `json:"worker_id"`
}

// CancellationResponse is the receipt returned by a successful cancel.
type CancellationResponse struct {
	CancellationID   uuid.UUID       `json:"cancellation_id"`
	TokensDeducted   int             `json:"tokens_deducted"`
	RefundAmount     decimal.Decimal `json:"refund_amount"`
	RefundPercentage int             `json:"refund_percentage"`
}
