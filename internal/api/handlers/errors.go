package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/frostdev-ops/home-planner-go/internal/core/assignment"
	"github.com/frostdev-ops/home-planner-go/internal/core/backup"
	"github.com/frostdev-ops/home-planner-go/internal/core/floorplan"
	"github.com/frostdev-ops/home-planner-go/internal/core/planner"
	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
	apperrors "github.com/frostdev-ops/home-planner-go/pkg/errors"
	"github.com/frostdev-ops/home-planner-go/pkg/utils"
	"github.com/gin-gonic/gin"
)

var errNotImplemented = apperrors.New(http.StatusNotImplemented, "Not implemented")

// toAppError maps domain errors onto the API error taxonomy. Unknown errors
// map to nil and are reported as internal errors.
func toAppError(err error) *apperrors.AppError {
	var validation *planner.ValidationError
	var quota *planner.QuotaError
	var bodyTooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &validation):
		return apperrors.WithDetails(apperrors.Wrap(apperrors.ErrBadRequest, "Validation failed", err), validation.Errors)
	case errors.As(err, &quota):
		return apperrors.WithDetails(apperrors.Wrap(apperrors.ErrConflict, "Owned quantity exceeded", err), quota.Overdrawn)
	case errors.Is(err, assignment.ErrQuotaExceeded):
		return apperrors.Wrap(apperrors.ErrConflict, "Owned quantity exceeded", err)
	case errors.Is(err, repositories.ErrNotFound),
		errors.Is(err, assignment.ErrInstanceNotFound),
		errors.Is(err, backup.ErrNotFound):
		return apperrors.Wrap(apperrors.ErrNotFound, "Resource not found", err)
	case errors.Is(err, repositories.ErrInvalidQuery):
		return apperrors.Wrap(apperrors.ErrBadRequest, err.Error(), err)
	case errors.Is(err, floorplan.ErrTooLarge),
		errors.Is(err, backup.ErrTooLarge),
		errors.As(err, &bodyTooLarge):
		return apperrors.Wrap(apperrors.ErrTooLarge, err.Error(), err)
	case errors.Is(err, floorplan.ErrUnsupportedType):
		return apperrors.Wrap(apperrors.ErrUnsupported, err.Error(), err)
	case errors.Is(err, floorplan.ErrUndecodable),
		errors.Is(err, floorplan.ErrInvalidLayout),
		errors.Is(err, backup.ErrInvalidArchive):
		return apperrors.Wrap(apperrors.ErrBadRequest, err.Error(), err)
	case errors.Is(err, planner.ErrBackgroundsDisabled):
		return apperrors.Wrap(errNotImplemented, err.Error(), err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(apperrors.New(http.StatusGatewayTimeout, "Gateway timeout"), "Request timed out", err)
	}
	return nil
}

// fail reports err to the client. Store failures are logged and answered
// with a generic 500.
func (h *Handlers) fail(c *gin.Context, err error, msg string) {
	if appErr := toAppError(err); appErr != nil {
		utils.SendAppError(c, appErr)
		return
	}
	h.log.WithError(err).WithField("path", c.FullPath()).Error(msg)
	_ = c.Error(err)
	utils.SendError(c, http.StatusInternalServerError, msg)
}
