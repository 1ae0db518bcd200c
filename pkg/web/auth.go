package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/abgdnv/gocatalog/pkg/auth"
)

// RequireBearer rejects requests without a valid bearer token with 401.
// The token subject is stored in the request context, see GetSubject.
func RequireBearer(verifier auth.Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				RespondError(w, logger, http.StatusUnauthorized, "Authorization header is required")
				return
			}
			tokenString, found := strings.CutPrefix(header, "Bearer ")
			if !found || tokenString == "" {
				RespondError(w, logger, http.StatusUnauthorized, "Bearer token is required")
				return
			}

			token, err := verifier.Verify(r.Context(), tokenString)
			if err != nil {
				logger.WarnContext(r.Context(), "Token rejected", "error", err)
				RespondError(w, logger, http.StatusUnauthorized, "Invalid token")
				return
			}
			subject, ok := token.Subject()
			if !ok {
				RespondError(w, logger, http.StatusUnauthorized, "Token has no subject")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
		})
	}
}
