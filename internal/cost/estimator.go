// Package cost estimates the token cost of a request before it is
// forwarded upstream. Estimates are conservative and deterministic; they
// are used for pre-flight admission only and are never persisted as
// authoritative usage.
package cost

import (
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tokengate/tokengate/internal/tokenizer"
)

// Endpoint paths, relative to the /v1 prefix.
const (
	EndpointChatCompletions = "/chat/completions"
	EndpointCompletions     = "/completions"
	EndpointModerations     = "/moderations"

	// ImageEndpointPrefix matches all image endpoints
	// (generations, edits, variations).
	ImageEndpointPrefix = "/images"
)

// textSafetyMargin is the 10% buffer applied to text estimates.
// The image table embeds its own conservatism and is not margin-adjusted;
// callers depend on this asymmetry for budget math.
const textSafetyMargin = 1.1

// Estimate is the result of a pre-flight cost calculation.
type Estimate struct {
	TotalTokens int64

	// Breakdown is populated for image estimates only.
	Breakdown *ImageBreakdown
}

// Estimator computes estimated token costs per endpoint family.
type Estimator struct {
	counter tokenizer.Counter
}

// New creates an Estimator using the given token counter.
func New(counter tokenizer.Counter) *Estimator {
	return &Estimator{counter: counter}
}

// Estimate computes the estimated token cost for a request body posted to
// the given endpoint (path relative to /v1, e.g. "/chat/completions").
// Endpoints that are not token-metered (batches, files, ...) estimate to 0.
func (e *Estimator) Estimate(endpoint string, body []byte) Estimate {
	if strings.HasPrefix(endpoint, ImageEndpointPrefix) {
		return e.EstimateImage(body)
	}

	var promptTokens int64
	switch endpoint {
	case EndpointChatCompletions:
		for _, msg := range gjson.GetBytes(body, "messages").Array() {
			promptTokens += int64(e.counter.Count(msg.Get("content").String()))
		}
	case EndpointCompletions:
		promptTokens = e.countStringOrArray(gjson.GetBytes(body, "prompt"))
	case EndpointModerations:
		promptTokens = e.countStringOrArray(gjson.GetBytes(body, "input"))
	}

	total := int64(math.Ceil(float64(promptTokens) * textSafetyMargin))
	return Estimate{TotalTokens: total}
}

// countStringOrArray counts tokens over a field that may be a single string
// or an ordered array of strings. A missing field counts as zero.
func (e *Estimator) countStringOrArray(v gjson.Result) int64 {
	if !v.Exists() {
		return 0
	}
	if v.IsArray() {
		var n int64
		for _, item := range v.Array() {
			n += int64(e.counter.Count(item.String()))
		}
		return n
	}
	return int64(e.counter.Count(v.String()))
}
