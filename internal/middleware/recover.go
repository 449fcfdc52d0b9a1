package middleware

import (
	"log/slog"
	"net/http"

	"github.com/smipay/smipay-backend/internal/api/httpx"
)

func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic", "err", rec, "path", r.URL.Path)
				httpx.WriteError(w, http.StatusInternalServerError, "something went wrong, please try again")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
