package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/promptforge/core/internal/pipeline"
	"github.com/promptforge/core/internal/providers"
	"github.com/promptforge/core/internal/services"
	"github.com/promptforge/core/internal/vfs"
)

// httpError is a status code paired with a client-facing message.
type httpError struct {
	Status  int
	Message string
}

// mapCoreError maps a services/vfs/pipeline error to an HTTP status and
// message, mirroring the teacher's pkg/api/errors.go mapServiceError,
// extended with the vfs and pipeline/provider error taxonomies this
// repo's domain adds.
func mapCoreError(err error) httpError {
	var validErr *services.ValidationError
	if errors.As(err, &validErr) {
		return httpError{http.StatusBadRequest, validErr.Error()}
	}
	if errors.Is(err, services.ErrNotFound) {
		return httpError{http.StatusNotFound, "resource not found"}
	}
	if errors.Is(err, services.ErrAlreadyExists) {
		return httpError{http.StatusConflict, "resource already exists"}
	}
	if errors.Is(err, services.ErrArchived) {
		return httpError{http.StatusForbidden, "project is archived"}
	}
	if errors.Is(err, services.ErrMaxDepthExceeded) {
		return httpError{http.StatusBadRequest, "project depth limit exceeded"}
	}
	if errors.Is(err, services.ErrNotCancellable) {
		return httpError{http.StatusConflict, "optimization is not in a cancellable state"}
	}

	if errors.Is(err, vfs.ErrNotFound) || errors.Is(err, vfs.ErrInvalidFolder) || errors.Is(err, vfs.ErrInvalidVersion) {
		return httpError{http.StatusNotFound, err.Error()}
	}
	if errors.Is(err, vfs.ErrEmptyQuery) {
		return httpError{http.StatusUnprocessableEntity, err.Error()}
	}
	if errors.Is(err, vfs.ErrNameConflict) {
		return httpError{http.StatusConflict, err.Error()}
	}
	if errors.Is(err, vfs.ErrDepthExceeded) || errors.Is(err, vfs.ErrSelfReference) || errors.Is(err, vfs.ErrCircularReference) {
		return httpError{http.StatusBadRequest, err.Error()}
	}

	var pipelineErr *pipeline.PipelineError
	if errors.As(err, &pipelineErr) {
		return httpError{http.StatusBadGateway, providers.FriendlyError(pipelineErr.Cause)}
	}
	if isProviderError(err) {
		return httpError{http.StatusBadGateway, providers.FriendlyError(err)}
	}

	slog.Error("unexpected core error", "error", err)
	return httpError{http.StatusInternalServerError, "internal server error"}
}

// isProviderError reports whether err is one of the concrete provider
// error types ClassifyError produces. These types carry no Unwrap, so
// a direct type switch is used rather than errors.As.
func isProviderError(err error) bool {
	switch err.(type) {
	case *providers.AuthenticationError, *providers.ProviderPermissionError,
		*providers.RateLimitError, *providers.ModelNotFoundError,
		*providers.ProviderConnectionError, *providers.ProviderError:
		return true
	default:
		return false
	}
}
