// Package proxy implements the quota-gated pass-through endpoints. Every
// handler runs the same pipeline: authenticate, admit, forward verbatim,
// record usage.
package proxy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/tokengate/tokengate/internal/recorder"
	"github.com/tokengate/tokengate/internal/storage/models"
	"github.com/tokengate/tokengate/internal/transport/http/middleware/auth"
	"github.com/tokengate/tokengate/internal/types"
	"github.com/tokengate/tokengate/internal/upstream"
)

// maxRequestBody bounds buffered request bodies. Image edits carry base64
// payloads, so the limit is generous.
const maxRequestBody = 25 << 20

// Admitter runs the pre-flight admission checks.
type Admitter interface {
	Admit(ctx context.Context, userID int64, alloc *models.Allocation, endpoint string, body []byte) error
}

// Forwarder sends admitted requests upstream.
type Forwarder interface {
	Forward(ctx context.Context, method, endpoint string, body []byte) (*upstream.Result, error)
	ForwardRaw(ctx context.Context, method, endpoint string, body []byte) (*upstream.Result, error)
}

// UsageRecorder persists what a completed call consumed.
type UsageRecorder interface {
	Record(p recorder.Params)
}

// Handlers holds the dependencies for proxy HTTP handlers.
type Handlers struct {
	Gate     Admitter
	Upstream Forwarder
	Recorder UsageRecorder
	Logger   *slog.Logger

	maxBody int64
}

// New creates a new instance of proxy handlers.
func New(gate Admitter, up Forwarder, rec UsageRecorder, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{Gate: gate, Upstream: up, Recorder: rec, Logger: logger, maxBody: maxRequestBody}
}

// proxyRequest is the shared pipeline behind every proxied endpoint.
// rawBody controls whether the upstream response must be a JSON document.
func (h *Handlers) proxyRequest(w http.ResponseWriter, r *http.Request, endpoint string, rawBody bool) {
	identity := auth.GetIdentity(r.Context())
	if identity == nil {
		types.WriteError(w, types.ErrAuthentication("authentication required"))
		return
	}

	// Oversized bodies are rejected outright, never truncated and forwarded
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			types.WriteError(w, types.ErrValidation("Request body too large", nil))
			return
		}
		types.WriteInternalError(w, "failed to read request body")
		return
	}
	r.Body.Close()

	if err := h.Gate.Admit(r.Context(), identity.WPUserID, identity.Allocation, endpoint, body); err != nil {
		h.writeFailure(w, err, identity)
		return
	}

	forward := h.Upstream.Forward
	if rawBody {
		forward = h.Upstream.ForwardRaw
	}
	result, err := forward(r.Context(), r.Method, endpoint, body)
	if err != nil {
		status := h.writeFailure(w, err, identity)
		// Failed calls still leave a usage record, with no token charge.
		go h.Recorder.Record(recorder.Params{
			WPUserID:    identity.WPUserID,
			Allocation:  identity.Allocation,
			Endpoint:    endpoint,
			Method:      r.Method,
			RequestBody: body,
			StatusCode:  status,
			IP:          clientIP(r),
		})
		return
	}

	contentType := result.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(result.StatusCode)
	_, _ = w.Write(result.Body)

	go h.Recorder.Record(recorder.Params{
		WPUserID:     identity.WPUserID,
		Allocation:   identity.Allocation,
		Endpoint:     endpoint,
		Method:       r.Method,
		RequestBody:  body,
		StatusCode:   result.StatusCode,
		ResponseBody: result.Body,
		IP:           clientIP(r),
	})
}

// writeFailure renders a pipeline error and returns the status written.
func (h *Handlers) writeFailure(w http.ResponseWriter, err error, identity *auth.Identity) int {
	var ge *types.GatewayError
	if errors.As(err, &ge) {
		ge.WPUserID = strconv.FormatInt(identity.WPUserID, 10)
		types.WriteError(w, ge)
		return ge.HTTPStatus()
	}

	h.Logger.Error("proxy pipeline failed",
		"wp_user_id", identity.WPUserID, "error", err)
	types.WriteInternalError(w, "Internal server error")
	return http.StatusInternalServerError
}

// clientIP resolves the caller address, preferring X-Forwarded-For.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
