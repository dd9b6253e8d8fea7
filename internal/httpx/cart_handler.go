package httpx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dukahq/storefront/internal/cart"
)

func (h *Handler) cartFor(r *http.Request) *cart.Store {
	session, _ := SessionFrom(r.Context())
	return h.carts.For(session.UserID)
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mapCart(h.cartFor(r)))
}

// SetCartBranch replaces the selected branch. An empty branch_id clears
// the selection. Lines are kept either way.
func (h *Handler) SetCartBranch(w http.ResponseWriter, r *http.Request) {
	var req SetBranchRequest
	if !decodeValid(w, r, &req) {
		return
	}

	store := h.cartFor(r)
	if req.BranchID == "" {
		store.SetBranch(nil)
		writeJSON(w, http.StatusOK, mapCart(store))
		return
	}

	branch, err := h.catalog.GetBranch(r.Context(), req.BranchID)
	if err != nil {
		writeError(w, http.StatusNotFound, "branch_not_found", "")
		return
	}
	store.SetBranch(&branch)
	writeJSON(w, http.StatusOK, mapCart(store))
}

// AddCartItem puts quantity units of a product in the cart. The stock
// sufficiency check lives here, in the caller — the cart store itself
// enforces no upper bound.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if !decodeValid(w, r, &req) {
		return
	}

	store := h.cartFor(r)
	branch := store.Branch()
	if branch == nil {
		writeError(w, http.StatusConflict, "no_branch_selected", "select a branch before adding items")
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, http.StatusNotFound, "product_not_found", "")
		return
	}

	stock, err := h.catalog.BranchStock(r.Context(), branch.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "stock check failed", "branch_id", branch.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "catalog_error", "")
		return
	}
	inCart := 0
	for _, line := range store.Lines() {
		if line.Product.ID == req.ProductID {
			inCart = line.Quantity
		}
	}
	if available := stock[req.ProductID]; inCart+req.Quantity > available {
		writeError(w, http.StatusConflict, "insufficient_stock", "")
		return
	}

	store.Add(product, req.Quantity)
	writeJSON(w, http.StatusOK, mapCart(store))
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "product_id_required", "")
		return
	}

	var req UpdateCartItemRequest
	if !decodeValid(w, r, &req) {
		return
	}

	store := h.cartFor(r)
	store.UpdateQuantity(productID, req.Quantity)
	writeJSON(w, http.StatusOK, mapCart(store))
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "product_id_required", "")
		return
	}

	store := h.cartFor(r)
	store.Remove(productID)
	writeJSON(w, http.StatusOK, mapCart(store))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	store := h.cartFor(r)
	store.Clear()
	writeJSON(w, http.StatusOK, mapCart(store))
}

func mapCart(store *cart.Store) CartResponse {
	resp := CartResponse{
		Lines:       []CartLineResponse{},
		TotalAmount: store.TotalAmount().String(),
		TotalItems:  store.TotalItems(),
	}
	if branch := store.Branch(); branch != nil {
		mapped := mapBranch(*branch)
		resp.Branch = &mapped
	}
	for _, line := range store.Lines() {
		resp.Lines = append(resp.Lines, CartLineResponse{
			Product:  mapProduct(line.Product),
			Quantity: line.Quantity,
			Subtotal: line.Subtotal().String(),
		})
	}
	return resp
}
