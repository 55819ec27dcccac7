package proxy

import (
	"net/http"

	"github.com/tokengate/tokengate/internal/cost"
)

// Moderations proxies POST /v1/moderations.
func (h *Handlers) Moderations(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, cost.EndpointModerations, false)
}
