package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atlas-vision/backend/domain"
)

type ErrorResponse struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// MapError maps domain errors to HTTP error responses.
func MapError(err error) ErrorResponse {
	switch {
	case errors.Is(err, domain.ErrClassification):
		return ErrorResponse{
			StatusCode: http.StatusBadGateway,
			Code:       "CLASSIFIER_UNAVAILABLE",
			Message:    "landmark classifier unavailable",
		}
	case errors.Is(err, domain.ErrVoiceProvider):
		return ErrorResponse{
			StatusCode: http.StatusBadGateway,
			Code:       "VOICE_UNAVAILABLE",
			Message:    "voice service unavailable",
		}
	case errors.Is(err, domain.ErrVoiceDisabled):
		return ErrorResponse{
			StatusCode: http.StatusServiceUnavailable,
			Code:       "VOICE_DISABLED",
			Message:    "voice features are disabled",
		}
	case errors.Is(err, domain.ErrInvalidRequest):
		return ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Code:       "INVALID_REQUEST",
			Message:    err.Error(),
		}
	default:
		return ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Code:       "INTERNAL_ERROR",
			Message:    "internal server error",
		}
	}
}

func HandleError(c echo.Context, err error) error {
	resp := MapError(err)
	return c.JSON(resp.StatusCode, resp)
}

func respondError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, ErrorResponse{Code: code, Message: message})
}
