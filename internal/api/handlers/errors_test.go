package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/frostdev-ops/home-planner-go/internal/core/assignment"
	"github.com/frostdev-ops/home-planner-go/internal/core/backup"
	"github.com/frostdev-ops/home-planner-go/internal/core/floorplan"
	"github.com/frostdev-ops/home-planner-go/internal/core/planner"
	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToAppError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", &planner.ValidationError{Errors: []planner.FieldError{{Field: "name", Message: "is required"}}}, http.StatusBadRequest},
		{"quota", &planner.QuotaError{Overdrawn: []assignment.Usage{{DeviceID: "d1", Owned: 1, Used: 2}}}, http.StatusConflict},
		{"owned toggle", fmt.Errorf("toggle: %w", assignment.ErrQuotaExceeded), http.StatusConflict},
		{"missing record", fmt.Errorf("room r1: %w", repositories.ErrNotFound), http.StatusNotFound},
		{"missing instance", assignment.ErrInstanceNotFound, http.StatusNotFound},
		{"missing backup", backup.ErrNotFound, http.StatusNotFound},
		{"bad query", repositories.ErrInvalidQuery, http.StatusBadRequest},
		{"large image", floorplan.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{"unsupported image", floorplan.ErrUnsupportedType, http.StatusUnsupportedMediaType},
		{"broken archive", backup.ErrInvalidArchive, http.StatusBadRequest},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := toAppError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.code, appErr.Code)
			assert.ErrorIs(t, appErr, tt.err)
		})
	}
}

func TestToAppErrorDetails(t *testing.T) {
	fields := []planner.FieldError{{Field: "price", Message: "must not be negative"}}
	appErr := toAppError(&planner.ValidationError{Errors: fields})
	require.NotNil(t, appErr)
	assert.Equal(t, fields, appErr.Details)
}

func TestStoreFailuresAreNotMapped(t *testing.T) {
	assert.Nil(t, toAppError(errors.New("disk I/O error")))
}
