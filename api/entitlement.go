package api

import (
	"net/http"

	"github.com/malwarebo/payper/models"
	"github.com/malwarebo/payper/services"
)

type EntitlementHandler struct {
	entitlements *services.EntitlementService
}

func CreateEntitlementHandler(entitlements *services.EntitlementService) *EntitlementHandler {
	return &EntitlementHandler{
		entitlements: entitlements,
	}
}

// HandleCheck answers ?user_id=&content_id= with {owned}. Without a
// content_id it lists the user's entitlements instead.
func (h *EntitlementHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("user_id")
	contentID := r.URL.Query().Get("content_id")

	if contentID == "" {
		list, err := h.entitlements.List(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"entitlements": list})
		return
	}

	owned, err := h.entitlements.Has(r.Context(), userID, contentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.EntitlementCheckResponse{Owned: owned})
}
