package middleware

import (
	"net/http"
	"strings"
)

// CORS allows the listed origins. With an empty list only localhost
// origins are accepted.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := OriginSet(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && OriginAllowed(allowed, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// OriginAllowed reports whether origin may talk to the server. It is also
// used by the websocket upgrader. Clients that send no Origin, such as
// native desktop clients, are not browsers and are let through.
func OriginAllowed(allowed map[string]bool, origin string) bool {
	if origin == "" {
		return true
	}
	if len(allowed) == 0 {
		return strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "https://localhost:")
	}
	return allowed[origin]
}

// OriginSet builds the lookup used by OriginAllowed.
func OriginSet(origins []string) map[string]bool {
	set := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			set[o] = true
		}
	}
	return set
}
