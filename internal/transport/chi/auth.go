package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// BearerAuthMiddleware admits API requests carrying one of apiKeys as a bearer token.
// Empty keys are ignored; with no keys left the middleware is a pass-through.
// /health and /metrics are always open for health checkers and scrapers.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			token, problem := bearerToken(r.Header.Get("Authorization"))
			if problem == "" && !knownKey(keys, token) {
				problem = "invalid api key"
			}
			if problem != "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="medagent"`)
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, problem)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the credentials of an Authorization header.
// The scheme name is case-insensitive. problem is empty on success.
func bearerToken(header string) (token, problem string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "authorization header must use Bearer scheme"
	}
	return strings.TrimSpace(token), ""
}

// knownKey compares token against every key in constant time.
func knownKey(keys [][]byte, token string) bool {
	t := []byte(token)
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare(k, t)
	}
	return match == 1
}
