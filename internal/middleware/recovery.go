package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/secbot/secbot/internal/models"
)

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", GetRequestID(r.Context())).
				Str("path", r.URL.Path).
				Msg("panic recovered")
			models.WriteKindError(w, http.StatusInternalServerError, models.ErrKindInternal, "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}
