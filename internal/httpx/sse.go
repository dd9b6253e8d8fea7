package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dukahq/storefront/internal/realtime"
)

// StreamStock is the realtime endpoint: a Server-Sent Events stream of
// stock row changes, optionally filtered to one branch with ?branch_id=.
// The subscription is torn down deterministically when the client goes
// away.
func (h *Handler) StreamStock(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", "")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	branchID := r.URL.Query().Get("branch_id")
	events, cancel := h.hub.Subscribe(realtime.TableStock, branchID, 32)
	defer cancel()

	flusher.Flush()

	for {
		select {
		case event, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
