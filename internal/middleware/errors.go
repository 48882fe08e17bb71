package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huangang/coachflow/backend/internal/services"
	"github.com/huangang/coachflow/backend/pkg/logger"
	"github.com/huangang/coachflow/backend/pkg/response"
)

var kindStatus = map[services.ErrorKind]int{
	services.KindValidation:        http.StatusBadRequest,
	services.KindAuthentication:    http.StatusUnauthorized,
	services.KindAuthorization:     http.StatusForbidden,
	services.KindNotFound:          http.StatusNotFound,
	services.KindInvalidTransition: http.StatusBadRequest,
	services.KindConflict:          http.StatusConflict,
}

// ToAppError maps a service error onto its HTTP form. Unknown errors
// become a generic 500 so internals never reach the client.
func ToAppError(err error) *response.AppError {
	var appErr *response.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		if status, ok := kindStatus[svcErr.Kind]; ok {
			return &response.AppError{HTTPStatus: status, Code: status, ErrorCode: svcErr.Code, Message: svcErr.Message}
		}
	}
	return response.NewServerError("internal server error")
}

// RespondError writes err as an error envelope and aborts the chain.
func RespondError(c *gin.Context, err error) {
	appErr := ToAppError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}
	response.Error(c, appErr)
}
