package proxy

import (
	"net/http"

	"github.com/tokengate/tokengate/internal/cost"
)

// ChatCompletions proxies POST /v1/chat/completions.
func (h *Handlers) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, cost.EndpointChatCompletions, false)
}

// Completions proxies POST /v1/completions.
func (h *Handlers) Completions(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, cost.EndpointCompletions, false)
}
