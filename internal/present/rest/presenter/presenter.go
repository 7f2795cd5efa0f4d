package presenter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/biomap/internal/domain"
	"github.com/totegamma/biomap/internal/utils"
)

type errorResponse struct {
	Error  string                     `json:"error"`
	Fields utils.OrderedKVMap[string] `json:"fields,omitempty"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func Created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

func BadRequest(c echo.Context, err error) error {
	slog.DebugContext(c.Request().Context(), "bad request", slog.String("error", err.Error()), slog.String("module", "rest"))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	slog.DebugContext(c.Request().Context(), "bad request", slog.String("error", msg), slog.String("module", "rest"))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func NotFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

func InternalError(c echo.Context, err error) error {
	slog.ErrorContext(c.Request().Context(), "internal error", slog.String("error", err.Error()), slog.String("module", "rest"))
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

// Error maps a domain error onto its status code. Anything unrecognised is a 500.
func Error(c echo.Context, err error) error {
	var verr domain.ValidationError
	if errors.As(err, &verr) {
		fields := utils.OrderedKVMap[string]{}
		for _, f := range verr.Fields {
			if prev, ok := fields.Get(f.Field); ok {
				fields.Set(f.Field, prev+"; "+f.Reason)
				continue
			}
			fields.Set(f.Field, f.Reason)
		}
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: fields})
	}

	var ferr domain.ForbiddenError
	if errors.As(err, &ferr) {
		return c.JSON(http.StatusForbidden, errorResponse{Error: ferr.Error()})
	}

	var nerr domain.NotFoundError
	if errors.As(err, &nerr) {
		return NotFound(c, nerr.Error())
	}

	var cerr domain.ConflictError
	if errors.As(err, &cerr) {
		return c.JSON(http.StatusConflict, errorResponse{Error: cerr.Error()})
	}

	var serr domain.StoreUnavailableError
	if errors.As(err, &serr) {
		slog.ErrorContext(c.Request().Context(), "store unavailable", slog.String("error", serr.Error()), slog.String("module", "rest"))
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "store unavailable"})
	}

	return InternalError(c, err)
}
