package ws

import (
	"net/http"
	"strings"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware returns a middleware that validates Bearer tokens.
// Websocket clients cannot always set headers, so a "token" query
// parameter (with or without the Bearer prefix) is accepted too.
// If apiKeys is empty, authentication is disabled (pass-through).
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	validKeys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			validKeys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		// Auth disabled — pass everything through
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Exempt paths
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, errMsg := extractToken(r)
			if errMsg != "" {
				writeError(w, http.StatusUnauthorized, errMsg)
				return
			}

			if _, ok := validKeys[token]; !ok {
				writeError(w, http.StatusUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) (token, errMsg string) {
	const bearerPrefix = "Bearer "

	auth := r.Header.Get("Authorization")
	if auth != "" {
		if !strings.HasPrefix(auth, bearerPrefix) {
			return "", "authorization header must use Bearer scheme"
		}
		return auth[len(bearerPrefix):], ""
	}

	if qt := r.URL.Query().Get("token"); qt != "" {
		return strings.TrimPrefix(qt, bearerPrefix), ""
	}

	return "", "missing authorization"
}
