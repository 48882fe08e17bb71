package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the unified API response format.
type Response struct {
	Code      int         `json:"code"`
	ErrorCode string      `json:"error_code,omitempty"`
	Message   string      `json:"message"`
	Warning   string      `json:"warning,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// AppError represents a structured application error with HTTP status and error code.
type AppError struct {
	HTTPStatus int    // HTTP status code (e.g. 400, 404, 500)
	Code       int    // Numeric code echoed in the body
	ErrorCode  string // Machine-readable code, e.g. INVALID_TRANSITION
	Message    string // Human-readable error message
}

func (e *AppError) Error() string {
	return e.Message
}

func newAppError(status int, errorCode, msg string) *AppError {
	return &AppError{HTTPStatus: status, Code: status, ErrorCode: errorCode, Message: msg}
}

func NewBadRequest(errorCode, msg string) *AppError {
	return newAppError(http.StatusBadRequest, errorCode, msg)
}

func NewUnauthorized(errorCode, msg string) *AppError {
	return newAppError(http.StatusUnauthorized, errorCode, msg)
}

func NewForbidden(errorCode, msg string) *AppError {
	return newAppError(http.StatusForbidden, errorCode, msg)
}

func NewNotFound(errorCode, msg string) *AppError {
	return newAppError(http.StatusNotFound, errorCode, msg)
}

func NewConflict(errorCode, msg string) *AppError {
	return newAppError(http.StatusConflict, errorCode, msg)
}

func NewServerError(msg string) *AppError {
	return newAppError(http.StatusInternalServerError, "INTERNAL", msg)
}

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

// Created sends a 201 Created response with data. A non-empty warning is included.
func Created(c *gin.Context, data interface{}, warning string) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "created",
		Warning: warning,
		Data:    data,
	})
}

// Error sends an error response and aborts the chain. If err is an *AppError, its
// status and codes are used; otherwise a generic 500 is returned.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.AbortWithStatusJSON(appErr.HTTPStatus, Response{
			Code:      appErr.Code,
			ErrorCode: appErr.ErrorCode,
			Message:   appErr.Message,
		})
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
		Code:      500,
		ErrorCode: "INTERNAL",
		Message:   "internal server error",
	})
}

func BadRequest(c *gin.Context, msg string) {
	Error(c, NewBadRequest("VALIDATION_FAILED", msg))
}
