// Package gate implements the pre-flight admission decision: a request is
// only forwarded upstream once the caller's budget, request shape and call
// rate have all been checked.
package gate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tokengate/tokengate/internal/cost"
	"github.com/tokengate/tokengate/internal/ledger"
	"github.com/tokengate/tokengate/internal/storage/models"
	"github.com/tokengate/tokengate/internal/types"
)

// Summarizer derives a user's consumption totals from the usage ledger.
type Summarizer interface {
	Summarize(userID int64) (ledger.Summary, error)
}

// Estimator computes the pre-flight token cost of a request.
type Estimator interface {
	Estimate(endpoint string, body []byte) cost.Estimate
}

// Limiter bounds calls per user per window.
type Limiter interface {
	CheckAndIncrement(ctx context.Context, userID int64) (bool, error)
}

// Gate orchestrates the admission checks.
type Gate struct {
	ledger    Summarizer
	estimator Estimator
	limiter   Limiter
	logger    *slog.Logger
}

// New creates an admission gate.
func New(led Summarizer, est Estimator, lim Limiter, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{ledger: led, estimator: est, limiter: lim, logger: logger}
}

// Admit decides whether a request may be forwarded, short-circuiting on
// the first failing check. Failures are *types.GatewayError values.
//
// The budget read here and the usage write after the upstream call are not
// atomic: concurrent admitted requests for the same key can jointly exceed
// the allocation. This is accepted given the coarse accounting granularity;
// the recorder logs the overage when it happens.
func (g *Gate) Admit(ctx context.Context, userID int64, alloc *models.Allocation, endpoint string, body []byte) error {
	if alloc == nil || !alloc.IsActive {
		return types.ErrAuthentication("Invalid or inactive API key")
	}

	summary, err := g.ledger.Summarize(userID)
	if err != nil {
		return fmt.Errorf("failed to summarize usage: %w", err)
	}
	remaining := alloc.TotalTokensAllocated - summary.TotalTokens

	if details := Validate(endpoint, body); details != nil {
		return types.ErrValidation("Invalid request parameters", details)
	}

	estimate := g.estimator.Estimate(endpoint, body)
	if estimate.TotalTokens > remaining {
		g.logger.Info("request rejected over budget",
			"wp_user_id", userID,
			"endpoint", endpoint,
			"remaining", remaining,
			"estimated", estimate.TotalTokens,
		)
		return types.ErrQuotaExceeded(remaining, estimate.TotalTokens)
	}

	allowed, err := g.limiter.CheckAndIncrement(ctx, userID)
	if err != nil {
		return fmt.Errorf("rate limit check failed: %w", err)
	}
	if !allowed {
		return types.ErrRateLimited()
	}

	return nil
}
