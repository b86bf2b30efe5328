package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lyzr/genstore/common/models"
)

// httpError maps engine errors onto transport status codes: the not-found
// family to 404, lifecycle violations to 409, storage failures to 500
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, models.ErrProjectNotFound),
		errors.Is(err, models.ErrGenerationNotFound),
		errors.Is(err, models.ErrVersionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrInvalidState):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		var storageErr *models.StorageWriteError
		if errors.As(err, &storageErr) {
			return echo.NewHTTPError(http.StatusInternalServerError, storageErr.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
