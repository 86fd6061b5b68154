package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Responder writes an error response produced by a middleware. Domain
// services and the gateway use different error envelopes, so each router
// passes its own.
type Responder func(w http.ResponseWriter, r *http.Request)

// Recoverer is a middleware that recovers from panics.
// It logs the panic with its stack and hands the response to respond, or
// writes a plain 500 when respond is nil.
func Recoverer(logger *slog.Logger, respond Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Error("panic recovered",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.Any("panic", rvr),
					slog.String("stack", string(debug.Stack())),
				)

				if respond != nil {
					respond(w, r)
					return
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
