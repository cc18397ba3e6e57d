package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins is the list of origins permitted to make credentialed
	// cross-origin requests (the admin panel). Use ["*"] to allow all, which
	// disables credentials.
	AllowedOrigins []string

	// AllowCredentials indicates whether the browser should include cookies
	// in cross-origin requests from AllowedOrigins.
	AllowCredentials bool

	// PublicPaths are path prefixes any origin may read without credentials.
	// Storefront pages fetch rendered fragments from these.
	PublicPaths []string
}

// CORS returns middleware that handles Cross-Origin Resource Sharing headers.
//
// Admin routes only answer to configured origins. Public render routes answer
// to every origin but never with credentials, so a storefront on another
// domain can fetch badge fragments without gaining access to the admin API.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	allowAll := false
	originSet := make(map[string]bool)
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		originSet[o] = true
	}

	// SECURITY: Wildcard origin with credentials would let any site make
	// authenticated admin calls.
	if allowAll && cfg.AllowCredentials {
		slog.Warn("CORS misconfiguration: AllowedOrigins=['*'] with AllowCredentials=true is insecure; credentials will NOT be sent for wildcard origins")
		cfg.AllowCredentials = false
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			origin := req.Header.Get("Origin")

			// No Origin header means same-origin request -- skip CORS.
			if origin == "" {
				return next(c)
			}

			public := hasAnyPrefix(req.URL.Path, cfg.PublicPaths)
			credentialed := (allowAll || originSet[origin]) && !public
			if !public && !credentialed {
				// The browser will block the response on the client side.
				return next(c)
			}

			res.Header().Set("Access-Control-Allow-Origin", origin)
			res.Header().Add("Vary", "Origin")
			if credentialed && cfg.AllowCredentials {
				res.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if req.Method == http.MethodOptions {
				methods := []string{http.MethodGet, http.MethodOptions}
				if !public {
					methods = append(methods, http.MethodPost, http.MethodPut, http.MethodDelete)
				}
				res.Header().Set("Access-Control-Allow-Methods", strings.Join(methods, ", "))
				res.Header().Set("Access-Control-Allow-Headers",
					strings.Join([]string{"Content-Type", CSRFHeaderName, "X-Requested-With"}, ", "))

				// Cache preflight response for 1 hour to reduce preflight requests.
				res.Header().Set("Access-Control-Max-Age", "3600")
				return c.NoContent(http.StatusNoContent)
			}

			res.Header().Set("Access-Control-Expose-Headers", "X-RateLimit-Limit, X-RateLimit-Remaining")
			return next(c)
		}
	}
}

// hasAnyPrefix reports whether path starts with any of the prefixes.
func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
