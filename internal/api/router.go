package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/smipay/smipay-backend/internal/api/handlers"
	"github.com/smipay/smipay-backend/internal/metrics"
	"github.com/smipay/smipay-backend/internal/middleware"
)

type RouterDeps struct {
	Auth    *middleware.AuthMiddleware
	Banking *handlers.BankingHandler
	Support *handlers.SupportHandler
	Account *handlers.AccountHandler
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Post("/auth/register", deps.Account.Register)

	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Auth)

		r.Route("/banking", func(r chi.Router) {
			r.Get("/smipay/find-user", deps.Banking.FindUser)
			r.Post("/smipay/send-money", deps.Banking.SendMoney)
			r.Get("/wallet", deps.Banking.Wallet)
			r.Get("/transactions/{reference}", deps.Banking.TransactionByReference)
		})

		r.Post("/support/tickets", deps.Support.CreateTicket)
	})

	return r
}
