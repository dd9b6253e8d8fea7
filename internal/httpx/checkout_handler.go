package httpx

import (
	"errors"
	"net/http"

	"github.com/dukahq/storefront/internal/checkout"
)

func (h *Handler) machineFor(r *http.Request) *checkout.Machine {
	session, _ := SessionFrom(r.Context())
	return h.checkouts.For(session, h.carts.For(session.UserID))
}

// GetCheckout reports the observable state of the session's machine.
func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	machine := h.machineFor(r)
	writeJSON(w, http.StatusOK, mapCheckout(machine.State(), machine.Last()))
}

// SubmitPayment drives one full checkout attempt. The handler blocks for
// the simulated gateway round trip, mirroring the original flow where the
// client awaits the payment promise.
func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	var req SubmitPaymentRequest
	if !decodeValid(w, r, &req) {
		return
	}

	machine := h.machineFor(r)
	result, err := machine.Submit(r.Context(), req.PayerHandle)
	if err != nil {
		var verr *checkout.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusUnprocessableEntity, "validation_failed", verr.Reason)
		case errors.Is(err, checkout.ErrNotIdle):
			writeError(w, http.StatusConflict, "checkout_busy", "an attempt is already in progress or awaiting retry")
		default:
			writeError(w, http.StatusInternalServerError, "checkout_error", "")
		}
		return
	}

	writeJSON(w, http.StatusOK, mapCheckout(result.State, result))
}

// RetryCheckout moves a failed machine back to idle. Cart contents and the
// client-held payer handle survive untouched.
func (h *Handler) RetryCheckout(w http.ResponseWriter, r *http.Request) {
	machine := h.machineFor(r)
	if err := machine.Retry(); err != nil {
		writeError(w, http.StatusConflict, "not_failed", "retry only applies to a failed attempt")
		return
	}
	writeJSON(w, http.StatusOK, mapCheckout(machine.State(), machine.Last()))
}

func mapCheckout(state checkout.State, result checkout.Result) CheckoutResponse {
	resp := CheckoutResponse{
		State:   string(state),
		Message: result.Message,
	}
	if result.State == checkout.StateSucceeded {
		resp.OrderID = result.OrderID
		resp.PaymentReference = result.PaymentReference
		resp.Total = result.Total.String()
	}
	return resp
}
