package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/courtbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Message   string `json:"message"`
	ErrorCode string `json:"error_code"`
	Details   any    `json:"details,omitempty"`
}

type conflictDetails struct {
	Instants  []string          `json:"instants"`
	Conflicts []domain.Conflict `json:"conflicts"`
}

// statusOf maps a service error to its HTTP status and stable error code.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrAuthenticationRequired):
		return http.StatusUnauthorized, "authentication_required"
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden, "permission_denied"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrEditLock):
		return http.StatusLocked, "edit_locked"
	case errors.Is(err, domain.ErrStateLock):
		return http.StatusLocked, "state_locked"
	}
	return http.StatusInternalServerError, "internal_error"
}

func writeError(c *gin.Context, err error) {
	status, code := statusOf(err)
	resp := errorResponse{Message: err.Error(), ErrorCode: code}

	var ce *domain.ConflictError
	if errors.As(err, &ce) {
		details := conflictDetails{Conflicts: ce.Conflicts}
		for _, at := range ce.Instants() {
			details.Instants = append(details.Instants, at.UTC().Format(timeFormat))
		}
		resp.Details = details
	}
	if status == http.StatusInternalServerError {
		// internal causes stay in the logs
		resp.Message = domain.ErrInternal.Error()
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, format string, args ...any) {
	writeError(c, domain.Validationf(format, args...))
}
