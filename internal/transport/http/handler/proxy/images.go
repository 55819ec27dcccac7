package proxy

import "net/http"

// ImageGenerations proxies POST /v1/images/generations.
func (h *Handlers) ImageGenerations(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, "/images/generations", false)
}

// ImageVariations proxies POST /v1/images/variations.
func (h *Handlers) ImageVariations(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, "/images/variations", false)
}

// ImageEdits proxies POST /v1/images/edits.
func (h *Handlers) ImageEdits(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, "/images/edits", false)
}
