package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/smipay/smipay-backend/internal/api/httpx"
	"github.com/smipay/smipay-backend/internal/api/validate"
	"github.com/smipay/smipay-backend/internal/apperr"
	"github.com/smipay/smipay-backend/internal/metrics"
	"github.com/smipay/smipay-backend/internal/middleware"
	"github.com/smipay/smipay-backend/internal/ratelimit"
	"github.com/smipay/smipay-backend/internal/services"
)

type BankingHandler struct {
	Transfers *services.TransferService
	Wallets   *services.WalletService
	Guard     *ratelimit.Guard
}

func NewBankingHandler(ts *services.TransferService, ws *services.WalletService, g *ratelimit.Guard) *BankingHandler {
	return &BankingHandler{Transfers: ts, Wallets: ws, Guard: g}
}

// GET /banking/smipay/find-user?smipay_tag=<tag>
func (h *BankingHandler) FindUser(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	tag := r.URL.Query().Get("smipay_tag")
	if ef := validate.Required("smipay_tag", tag); ef != nil {
		httpx.WriteAppError(w, apperr.Validation(validate.Errs{*ef}.Error()))
		return
	}

	summary, err := h.Transfers.ResolveTag(r.Context(), id, tag)
	if err != nil {
		httpx.WriteAppError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, "user found", summary)
}

// POST /banking/smipay/send-money
func (h *BankingHandler) SendMoney(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req services.SendMoneyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Guard.Allow(r.Context(), id.UserID, sourceIP(r)); err != nil {
		if apperr.KindOf(err) == apperr.KindRateLimited {
			metrics.RateLimitedTotal.Inc()
		}
		httpx.WriteAppError(w, err)
		return
	}

	receipt, err := h.Transfers.SendMoney(r.Context(), id, req)
	if err != nil {
		httpx.WriteAppError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, "transfer successful", receipt)
}

// GET /banking/wallet
func (h *BankingHandler) Wallet(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	wallet, err := h.Wallets.Current(r.Context(), id)
	if err != nil {
		httpx.WriteAppError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, "wallet retrieved", wallet)
}

// GET /banking/transactions/{reference}
func (h *BankingHandler) TransactionByReference(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	ref := chi.URLParam(r, "reference")
	txn, err := h.Transfers.GetByReference(r.Context(), id, ref)
	if err != nil {
		httpx.WriteAppError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, "transaction retrieved", txn)
}

// sourceIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func sourceIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
