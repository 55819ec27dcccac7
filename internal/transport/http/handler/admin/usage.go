package admin

import (
	"net/http"
	"strconv"

	"github.com/tokengate/tokengate/internal/transport/http/handler/shared"
)

// GetUserUsage reports a user's ledger totals
// (GET /api/admin/usage/{userId}).
func (h *Handlers) GetUserUsage(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if err != nil || userID <= 0 {
		shared.WriteJSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	summary, err := h.Ledger.Summarize(userID)
	if err != nil {
		shared.WriteJSONError(w, "failed to read usage", http.StatusInternalServerError)
		return
	}

	shared.WriteJSON(w, UserUsageResponse{
		WPUserID:     userID,
		TotalTokens:  summary.TotalTokens,
		RequestCount: summary.RequestCount,
		LastRequest:  summary.LastRequest,
	}, http.StatusOK)
}
