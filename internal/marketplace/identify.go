package marketplace

import (
	"net/http"

	"github.com/thewillhuang/middleman/internal/marketplace/auth"
)

// IdentifyCaller resolves the bearer credential into the request context.
// Requests without a valid credential proceed as anonymous.
func IdentifyCaller(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := tokens.Resolve(auth.BearerToken(r.Header.Get("Authorization")))
			next.ServeHTTP(w, r.WithContext(auth.WithCaller(r.Context(), caller)))
		})
	}
}
