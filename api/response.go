package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/malwarebo/payper/utils"
)

type ErrorResponse struct {
	Error string `json:"error"`
	// Stage and Reason are set for purchase failures so clients can render
	// a specific message ("payment declined" vs "pricing unavailable").
	Stage  string `json:"stage,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var perr *utils.PurchaseError
	if errors.As(err, &perr) {
		resp.Stage = perr.Stage
		resp.Reason = perr.Reason
	}
	writeJSON(w, utils.HTTPStatus(err), resp)
}
