package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	accountentity "github.com/vadim/social-pulse/internal/domain/account/entity"
	"github.com/vadim/social-pulse/internal/domain/sync/policy"
	"github.com/vadim/social-pulse/internal/httpx/response"
)

// SyncRunner defines the interface for triggering a full sync run
type SyncRunner interface {
	SyncAccount(ctx context.Context, accountID string) (*policy.RunReport, error)
}

// SyncHandler handles HTTP requests for sync runs
type SyncHandler struct {
	runner SyncRunner
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(runner SyncRunner) *SyncHandler {
	return &SyncHandler{runner: runner}
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(r chi.Router) {
	r.Post("/accounts/{id}/sync", h.Run())
}

// Run handles POST /accounts/{id}/sync. The sync runs synchronously;
// with many comments the request can take a while, so callers should
// set generous client timeouts.
func (h *SyncHandler) Run() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := h.runner.SyncAccount(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			switch {
			case errors.Is(err, accountentity.ErrAccountNotFound):
				response.NotFound(w, "account not found")
			case errors.Is(err, accountentity.ErrCredentialNotFound):
				response.Conflict(w, err.Error())
			case errors.Is(err, accountentity.ErrCredentialMismatch):
				response.Conflict(w, err.Error())
			default:
				response.InternalError(w, "sync run failed")
			}
			return
		}

		response.OK(w, report)
	}
}
