// Package httpx is the HTTP surface of the storefront: auth, catalog,
// cart, checkout, admin and the realtime stream, on a chi router.
package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dukahq/storefront/internal/auth"
	"github.com/dukahq/storefront/internal/cart"
	"github.com/dukahq/storefront/internal/catalog"
	"github.com/dukahq/storefront/internal/checkout"
	"github.com/dukahq/storefront/internal/core/domain/entity"
	"github.com/dukahq/storefront/internal/realtime"
	"github.com/dukahq/storefront/internal/restock"
)

var validate = validator.New()

// Handler carries the injected services. Carts and checkout machines are
// per-session containers, never package globals.
type Handler struct {
	auth      *auth.Service
	catalog   *catalog.Service
	restock   *restock.Service
	carts     *cart.Registry
	checkouts *checkout.Registry
	hub       *realtime.Hub
}

func NewHandler(
	authSvc *auth.Service,
	catalogSvc *catalog.Service,
	restockSvc *restock.Service,
	carts *cart.Registry,
	checkouts *checkout.Registry,
	hub *realtime.Hub,
) *Handler {
	return &Handler{
		auth:      authSvc,
		catalog:   catalogSvc,
		restock:   restockSvc,
		carts:     carts,
		checkouts: checkouts,
		hub:       hub,
	}
}

// decodeValid decodes the JSON body into dst and runs validation. A false
// return means the response has already been written.
func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", err.Error())
		return false
	}
	return true
}

// ── Auth ────────────────────────────────────────────────────────────────

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeValid(w, r, &req) {
		return
	}

	session, token, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "")
			return
		}
		slog.ErrorContext(r.Context(), "sign-in failed", "error", err)
		writeError(w, http.StatusInternalServerError, "sign_in_failed", "")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token: token,
		User: UserResponse{
			ID:    session.UserID,
			Email: session.Email,
			Role:  string(session.Role),
		},
	})
}

// Logout tears down the session's cart and checkout machine. The token
// itself is stateless and simply expires.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFrom(r.Context())
	h.carts.Drop(session.UserID)
	h.checkouts.Drop(session.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFrom(r.Context())
	writeJSON(w, http.StatusOK, UserResponse{
		ID:   session.UserID,
		Role: string(session.Role),
	})
}

// ── Catalog ─────────────────────────────────────────────────────────────

func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := h.catalog.ListBranches(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "list branches failed", "error", err)
		writeError(w, http.StatusInternalServerError, "catalog_error", "")
		return
	}

	out := make([]BranchResponse, len(branches))
	for i, branch := range branches {
		out[i] = mapBranch(branch)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "list products failed", "error", err)
		writeError(w, http.StatusInternalServerError, "catalog_error", "")
		return
	}

	out := make([]ProductResponse, len(products))
	for i, product := range products {
		out[i] = mapProduct(product)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) BranchStock(w http.ResponseWriter, r *http.Request) {
	branchID := chi.URLParam(r, "id")
	if branchID == "" {
		writeError(w, http.StatusBadRequest, "branch_id_required", "")
		return
	}

	stock, err := h.catalog.BranchStock(r.Context(), branchID)
	if err != nil {
		slog.ErrorContext(r.Context(), "branch stock failed", "branch_id", branchID, "error", err)
		writeError(w, http.StatusInternalServerError, "catalog_error", "")
		return
	}
	writeJSON(w, http.StatusOK, BranchStockResponse{BranchID: branchID, Stock: stock})
}

func mapBranch(branch entity.Branch) BranchResponse {
	return BranchResponse{
		ID:            branch.ID,
		Name:          branch.Name,
		DisplayName:   branch.DisplayName,
		IsHeadquarter: branch.IsHeadquarter,
	}
}

func mapProduct(product entity.Product) ProductResponse {
	return ProductResponse{
		ID:        product.ID,
		Name:      product.Name,
		UnitPrice: product.UnitPrice.String(),
		ImageURL:  product.ImageURL,
	}
}
