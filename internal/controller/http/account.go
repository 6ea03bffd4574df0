package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/social-pulse/internal/domain/account/entity"
	"github.com/vadim/social-pulse/internal/domain/account/service"
	"github.com/vadim/social-pulse/internal/httpx/response"
)

// AccountManager defines the interface for account registry operations
// This interface is defined here (consumer) not in the service package (provider)
type AccountManager interface {
	Register(ctx context.Context, in service.RegisterInput) (*entity.Account, error)
	Get(ctx context.Context, externalID string) (*entity.Account, error)
	List(ctx context.Context) ([]entity.Account, error)
	SetCredential(ctx context.Context, accountID, token string) error
	DeleteData(ctx context.Context, accountID string) error
	Delete(ctx context.Context, accountID string) error
}

// AccountHandler handles HTTP requests for tracked accounts
type AccountHandler struct {
	accounts AccountManager
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts AccountManager) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// RegisterRoutes registers account routes
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Post("/accounts", h.Register())
	r.Get("/accounts", h.List())
	r.Get("/accounts/{id}", h.Get())
	r.Delete("/accounts/{id}", h.Delete())
	r.Delete("/accounts/{id}/data", h.DeleteData())
	r.Put("/accounts/{id}/credential", h.SetCredential())
}

type registerRequest struct {
	ExternalID string `json:"external_id"`
	Username   string `json:"username"`
}

// Register handles POST /accounts
func (h *AccountHandler) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}

		account, err := h.accounts.Register(r.Context(), service.RegisterInput{
			ExternalID: req.ExternalID,
			Username:   req.Username,
		})
		if err != nil {
			if errors.Is(err, entity.ErrEmptyAccountID) {
				response.BadRequest(w, err.Error())
				return
			}
			response.InternalError(w, "failed to register account")
			return
		}

		response.Created(w, account)
	}
}

// List handles GET /accounts
func (h *AccountHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, err := h.accounts.List(r.Context())
		if err != nil {
			response.InternalError(w, "failed to list accounts")
			return
		}

		response.OK(w, map[string]interface{}{
			"accounts": accounts,
			"total":    len(accounts),
		})
	}
}

// Get handles GET /accounts/{id}
func (h *AccountHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := h.accounts.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, entity.ErrAccountNotFound) {
				response.NotFound(w, "account not found")
				return
			}
			response.InternalError(w, "failed to get account")
			return
		}

		response.OK(w, account)
	}
}

// Delete handles DELETE /accounts/{id}
func (h *AccountHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.accounts.Delete(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, entity.ErrAccountNotFound) {
				response.NotFound(w, "account not found")
				return
			}
			response.InternalError(w, "failed to delete account")
			return
		}

		response.NoContent(w)
	}
}

// DeleteData handles DELETE /accounts/{id}/data
func (h *AccountHandler) DeleteData() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.accounts.DeleteData(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, entity.ErrAccountNotFound) {
				response.NotFound(w, "account not found")
				return
			}
			response.InternalError(w, "failed to delete account data")
			return
		}

		response.NoContent(w)
	}
}

type credentialRequest struct {
	Token string `json:"token"`
}

// SetCredential handles PUT /accounts/{id}/credential
func (h *AccountHandler) SetCredential() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}

		err := h.accounts.SetCredential(r.Context(), chi.URLParam(r, "id"), req.Token)
		if err != nil {
			switch {
			case errors.Is(err, entity.ErrEmptyToken):
				response.BadRequest(w, err.Error())
			case errors.Is(err, entity.ErrAccountNotFound):
				response.NotFound(w, "account not found")
			default:
				response.InternalError(w, "failed to store credential")
			}
			return
		}

		response.NoContent(w)
	}
}
