package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/smipay/smipay-backend/internal/api/httpx"
	"github.com/smipay/smipay-backend/internal/services"
)

type AccountHandler struct {
	Users *services.UserService
}

func NewAccountHandler(us *services.UserService) *AccountHandler {
	return &AccountHandler{Users: us}
}

// POST /auth/register
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := h.Users.Register(r.Context(), req)
	if err != nil {
		httpx.WriteAppError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, "account created", u)
}
