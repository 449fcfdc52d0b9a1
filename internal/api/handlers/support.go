package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/smipay/smipay-backend/internal/api/httpx"
	"github.com/smipay/smipay-backend/internal/middleware"
	"github.com/smipay/smipay-backend/internal/services"
)

type SupportHandler struct {
	Tickets *services.TicketService
}

func NewSupportHandler(ts *services.TicketService) *SupportHandler {
	return &SupportHandler{Tickets: ts}
}

// POST /support/tickets
func (h *SupportHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	var req services.CreateTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ticket, err := h.Tickets.Create(r.Context(), id, req)
	if err != nil {
		httpx.WriteAppError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, "ticket created", ticket)
}
