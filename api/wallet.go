package api

import (
	"encoding/json"
	"net/http"

	"github.com/malwarebo/payper/models"
	"github.com/malwarebo/payper/utils"
	"github.com/malwarebo/payper/wallet"
)

type WalletHandler struct {
	funder wallet.Funder
}

func CreateWalletHandler(funder wallet.Funder) *WalletHandler {
	return &WalletHandler{
		funder: funder,
	}
}

// HandleTopUp issues a hosted funding flow. Clients call this after a
// purchase fails with insufficient funds.
func (h *WalletHandler) HandleTopUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.UserID == "" || req.AmountCents <= 0 {
		writeError(w, utils.WrapError(utils.ErrInvalidRequest, "user_id and a positive amount are required"))
		return
	}

	resp, err := h.funder.CreateTopUp(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
