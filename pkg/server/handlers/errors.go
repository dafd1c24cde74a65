package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soundprediction/graphconf/pkg/server/dto"
	"github.com/soundprediction/graphconf/pkg/types"
)

// errorStatus maps engine errors to HTTP status codes and error codes
func errorStatus(err error) (int, string) {
	switch {
	case isTooLarge(err):
		return http.StatusRequestEntityTooLarge, "graph_too_large"
	case errors.Is(err, types.ErrGraphBusy):
		return http.StatusConflict, "graph_busy"
	case errors.Is(err, types.ErrEmptyGraph):
		return http.StatusServiceUnavailable, "no_graph"
	case errors.Is(err, types.ErrInvalidPattern):
		return http.StatusNotFound, "invalid_pattern"
	case types.IsValidationError(err):
		return http.StatusBadRequest, "invalid_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func writeError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	writeErrorJSON(c, status, code, err.Error())
}

func writeErrorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    status,
	})
}
