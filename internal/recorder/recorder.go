// Package recorder writes the post-response usage trail: what a completed
// proxied call actually consumed, appended to the ledger and added to the
// key's running total.
package recorder

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tokengate/tokengate/internal/cost"
	"github.com/tokengate/tokengate/internal/ledger"
	"github.com/tokengate/tokengate/internal/storage"
	"github.com/tokengate/tokengate/internal/storage/models"
	"github.com/tokengate/tokengate/internal/types"
)

// Appender appends one record to the usage ledger.
type Appender interface {
	Append(rec ledger.Record) error
}

// ImageEstimator recomputes image costs; upstream reports no token usage
// for image endpoints.
type ImageEstimator interface {
	EstimateImage(body []byte) cost.Estimate
}

// Params describes one completed proxied call.
type Params struct {
	WPUserID     int64
	Allocation   *models.Allocation
	Endpoint     string
	Method       string
	RequestBody  []byte
	StatusCode   int
	ResponseBody []byte
	IP           string
}

// Recorder appends usage records and maintains the allocation counter.
type Recorder struct {
	ledger    Appender
	store     storage.Storage
	estimator ImageEstimator
	logger    *slog.Logger
}

// New creates a Recorder.
func New(led Appender, store storage.Storage, est ImageEstimator, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{ledger: led, store: store, estimator: est, logger: logger}
}

// Record determines actual tokens consumed, appends a usage record, and
// increments the allocation's tokens_used. It never returns an error: the
// proxied response has already been sent, so recording failures go to the
// operational log only.
func (r *Recorder) Record(p Params) {
	tokens := r.actualTokens(p)

	rec := ledger.Record{
		TimestampUTC:   time.Now().UTC().Format(types.TimestampLayout),
		APIKeyID:       p.Allocation.ID,
		WPUserID:       p.WPUserID,
		Endpoint:       p.Endpoint,
		Method:         p.Method,
		TokensUsed:     tokens,
		IPAddress:      p.IP,
		RequestData:    ledger.RequestData{Endpoint: p.Endpoint, Params: requestParams(p.RequestBody)},
		ResponseData:   responseData(p.ResponseBody),
		ResponseStatus: p.StatusCode,
	}

	if err := r.ledger.Append(rec); err != nil {
		r.logger.Error("failed to append usage record",
			"wp_user_id", p.WPUserID,
			"api_key_id", p.Allocation.ID,
			"endpoint", p.Endpoint,
			"error", err,
		)
	}

	newTotal, err := r.store.IncrementTokensUsed(p.Allocation.ID, tokens)
	if err != nil {
		r.logger.Error("failed to increment tokens used",
			"api_key_id", p.Allocation.ID, "error", err)
		return
	}

	// The call was already forwarded, so an overage here is recorded, not
	// rejected. The comparison uses the total returned by the write, not
	// the allocation snapshot from auth time, which may be minutes stale.
	if newTotal > p.Allocation.TotalTokensAllocated {
		r.logger.Warn("allocation exceeded",
			"wp_user_id", p.WPUserID,
			"api_key_id", p.Allocation.ID,
			"tokens_used", newTotal,
			"total_tokens_allocated", p.Allocation.TotalTokensAllocated,
		)
	}
}

// actualTokens reads consumption from the upstream response, or recomputes
// it for image endpoints.
func (r *Recorder) actualTokens(p Params) int64 {
	if strings.HasPrefix(p.Endpoint, cost.ImageEndpointPrefix) {
		return r.estimator.EstimateImage(p.RequestBody).TotalTokens
	}
	return gjson.GetBytes(p.ResponseBody, "usage.total_tokens").Int()
}

// requestParams snapshots the request body, normalizing non-JSON input.
func requestParams(body []byte) json.RawMessage {
	if json.Valid(body) && len(body) > 0 {
		return json.RawMessage(body)
	}
	return json.RawMessage("null")
}

// responseData extracts the usage and model fields from the upstream body.
func responseData(body []byte) ledger.ResponseData {
	data := ledger.ResponseData{Usage: json.RawMessage("null")}
	if usage := gjson.GetBytes(body, "usage"); usage.Exists() {
		data.Usage = json.RawMessage(usage.Raw)
	}
	data.Model = gjson.GetBytes(body, "model").String()
	return data
}
