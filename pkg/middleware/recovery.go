package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
)

type recoveryErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type recoveryResponse struct {
	Error recoveryErrorBody `json:"error"`
}

// Recovery turns a handler panic into a 500 response using the same error
// envelope the rest of the API writes, and logs the stack trace.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rv := recover(); rv != nil {
					l.ErrorContext(r.Context(), "panic recovered",
						slog.Any("panic", rv),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("stack", string(debug.Stack())),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					if err := json.NewEncoder(w).Encode(recoveryResponse{
						Error: recoveryErrorBody{
							Code:    "INTERNAL_ERROR",
							Message: "an internal error occurred",
						},
					}); err != nil {
						l.Error("failed to encode panic response", slog.String("error", err.Error()))
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
