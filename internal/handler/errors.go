package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice/internal/model"
	"backoffice/internal/service"
	"backoffice/pkg/response"
)

// writeError maps service sentinel errors to HTTP statuses
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrDuplicatePending), errors.Is(err, model.ErrAlreadyProcessed):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidLogin):
		status = http.StatusUnauthorized
	}
	c.JSON(status, response.Error(status, err.Error()))
}
