package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/converswp/trustbadges/internal/apperror"
	"github.com/converswp/trustbadges/internal/middleware"
	"github.com/converswp/trustbadges/internal/validation"
)

// sessionCookieName is the HTTP cookie used to store the session token.
const sessionCookieName = "trustbadges_session"

// Handler serves the admin session endpoints. Handlers are thin: bind the
// request, call the service, write JSON.
type Handler struct {
	service    AuthService
	sessionTTL time.Duration
	secure     bool
}

// NewHandler creates a new auth handler. secure marks the session cookie
// Secure and should be true whenever the site is served over HTTPS.
func NewHandler(service AuthService, sessionTTL time.Duration, secure bool) *Handler {
	return &Handler{service: service, sessionTTL: sessionTTL, secure: secure}
}

// Login authenticates an administrator (POST /auth/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return err
	}

	token, user, err := h.service.Login(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	h.setSessionCookie(c, token)
	return c.JSON(http.StatusOK, user)
}

// Logout ends the current session (POST /auth/logout). It succeeds whether
// or not a session was present.
func (h *Handler) Logout(c echo.Context) error {
	if token := getSessionToken(c); token != "" {
		if err := h.service.DestroySession(c.Request().Context(), token); err != nil {
			return err
		}
	}
	clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the current session (GET /auth/me).
func (h *Handler) Me(c echo.Context) error {
	session := GetSession(c)
	if session == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	return c.JSON(http.StatusOK, session)
}

// CSRF returns the anti-forgery token the client must echo in the
// X-CSRF-Token header on mutating requests (GET /auth/csrf).
func (h *Handler) CSRF(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"token":  middleware.GetCSRFToken(c),
		"header": middleware.CSRFHeaderName,
	})
}

// --- Cookie Helpers ---

func (h *Handler) setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// getSessionToken reads the session token cookie.
func getSessionToken(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// clearSessionCookie expires the session cookie.
func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
