package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"marketplace-service/internal/apperr"
	"marketplace-service/pkg/logger"
)

// renderError writes a domain error as a JSON envelope carrying the error
// kind and message. Non-domain errors are logged and hidden behind a 500.
func renderError(c echo.Context, err error) error {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(c).Error("request failed", zap.Error(err))
		return c.JSON(status, echo.Map{"error": "Internal server error"})
	}
	return c.JSON(status, echo.Map{
		"error": err.Error(),
		"kind":  string(apperr.KindOf(err)),
	})
}

// Hello is a simple handler that returns a welcome message
// Used for health check and root endpoints
func Hello(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Marketplace Service API is running",
		"version": "1.0.0",
	})
}
