package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the body every endpoint returns. Code 0 means success. Error codes
// follow a 4xxyy/5xxyy scheme: the leading three digits mirror the HTTP status and
// the trailing two identify the failure, so 40910 is the in-window re-check-in
// conflict, 40210 a fee transfer the settlement book rejected, 40310 an admin
// operation from a non-admin principal.
type Envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes an envelope with the given HTTP status.
func Respond(ctx *gin.Context, status, code int, message string, data interface{}) {
	ctx.JSON(status, Envelope{Code: code, Message: message, Data: data})
}

// Success wraps a receipt, view, or row list in a zero-code envelope.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

// Error writes an error envelope carrying no data.
func Error(ctx *gin.Context, status, code int, message string) {
	Respond(ctx, status, code, message, nil)
}
