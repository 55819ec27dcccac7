package proxy

import "net/http"

// UploadFile proxies POST /v1/files.
func (h *Handlers) UploadFile(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, "/files", false)
}

// ListFiles proxies GET /v1/files.
func (h *Handlers) ListFiles(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, "/files", false)
}

// GetFile proxies GET /v1/files/{fileId}.
func (h *Handlers) GetFile(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, "/files/"+r.PathValue("fileId"), false)
}

// GetFileContent proxies GET /v1/files/{fileId}/content. The body is file
// content (often JSONL), so it bypasses the JSON response check.
func (h *Handlers) GetFileContent(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, "/files/"+r.PathValue("fileId")+"/content", true)
}

// DeleteFile proxies DELETE /v1/files/{fileId}.
func (h *Handlers) DeleteFile(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, "/files/"+r.PathValue("fileId"), false)
}
