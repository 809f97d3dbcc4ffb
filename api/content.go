package api

import (
	"encoding/json"
	"net/http"

	"github.com/malwarebo/payper/models"
	"github.com/malwarebo/payper/services"
)

type ContentHandler struct {
	registry *services.RegistryService
}

func CreateContentHandler(registry *services.RegistryService) *ContentHandler {
	return &ContentHandler{
		registry: registry,
	}
}

// HandleRegister resolves or mints the content ID for a (query, sources,
// price) triple. Safe to call repeatedly; identical requests converge on the
// same content ID.
func (h *ContentHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.RegisterContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	contentID, _, err := h.registry.RegisterOrReuse(r.Context(), req.Query, req.SourceIDs, req.PriceCents)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.RegisterContentResponse{ContentID: contentID})
}
