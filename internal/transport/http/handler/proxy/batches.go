package proxy

import "net/http"

// CreateBatch proxies POST /v1/batches.
func (h *Handlers) CreateBatch(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, "/batches", false)
}

// ListBatches proxies GET /v1/batches.
func (h *Handlers) ListBatches(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, "/batches", false)
}

// GetBatch proxies GET /v1/batches/{batchId}.
func (h *Handlers) GetBatch(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, "/batches/"+r.PathValue("batchId"), false)
}

// CancelBatch proxies POST /v1/batches/{batchId}/cancel.
func (h *Handlers) CancelBatch(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, "/batches/"+r.PathValue("batchId")+"/cancel", false)
}
