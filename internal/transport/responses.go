package transport

import (
	"errors"
	"net/http"

	"github.com/sserbin1/silentbox-cloud-sub000/internal/entity"

	"github.com/gin-gonic/gin"
)

// SuccessResponse представляет успешный ответ
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// statusFor maps domain sentinels to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrSlotConflict):
		return http.StatusConflict
	case errors.Is(err, entity.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, entity.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, entity.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrBookingNotFound),
		errors.Is(err, entity.ErrBoothNotFound),
		errors.Is(err, entity.ErrDeviceNotFound),
		errors.Is(err, entity.ErrRuleNotFound),
		errors.Is(err, entity.ErrPackageNotFound),
		errors.Is(err, entity.ErrTenantNotFound),
		errors.Is(err, entity.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrDeviceUnreachable):
		return http.StatusServiceUnavailable
	case errors.Is(err, entity.ErrDeviceTimeout):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), ErrorResponse{
		Success: false,
		Error:   err.Error(),
	})
}
