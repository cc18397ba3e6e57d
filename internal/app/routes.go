package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/converswp/trustbadges/internal/middleware"
	"github.com/converswp/trustbadges/internal/plugins/audit"
	"github.com/converswp/trustbadges/internal/plugins/auth"
	"github.com/converswp/trustbadges/internal/plugins/badgegroups"
	"github.com/converswp/trustbadges/internal/plugins/badges"
	"github.com/converswp/trustbadges/internal/plugins/integrations"
	"github.com/converswp/trustbadges/internal/widgets/trustbadges"
)

// healthTimeout bounds each dependency ping in /healthz.
const healthTimeout = 2 * time.Second

// RegisterRoutes wires every plugin and widget and mounts their routes.
//
// The settings, badge and capability routes are served under /api/v1 and
// at their bare paths. Session, audit and render routes live under /api/v1
// only; /embed and /healthz are top-level.
func (a *App) RegisterRoutes() error {
	e := a.Echo
	cfg := a.Config

	// --- Wiring ---

	catalog, err := badges.EmbeddedCatalog()
	if err != nil {
		return fmt.Errorf("loading badge catalog: %w", err)
	}

	authService := auth.NewAuthService(auth.NewUserRepository(a.DB), a.Redis, cfg.Auth.SessionTTL)
	auditService := audit.NewAuditService(audit.NewAuditRepository(a.DB))
	capabilities := integrations.NewCapabilityService(cfg.Host.InstalledPlugins)

	groupService := badgegroups.NewBadgeGroupService(
		badgegroups.NewBadgeGroupRepository(a.DB),
		badgegroups.NewRedisCache(a.Redis, cfg.Badges.CacheTTL),
		badgegroups.NewNormalizer(),
	)
	badgeService := badges.NewBadgeService(badges.NewBadgeRepository(a.DB), a.Redis, cfg.Badges.CacheTTL)

	renderer := trustbadges.NewRenderer(catalog, cfg.Badges.AssetBaseURL)
	resolver := trustbadges.NewResolver(groupService, capabilities, renderer)

	a.badgeGroups = groupService
	a.authService = authService

	authHandler := auth.NewHandler(authService, cfg.Auth.SessionTTL, cfg.IsProduction())
	auditHandler := audit.NewHandler(auditService)
	groupHandler := badgegroups.NewHandler(groupService, auditService)
	badgeHandler := badges.NewHandler(badgeService, catalog, auditService)
	capabilityHandler := integrations.NewHandler(capabilities)
	renderHandler := trustbadges.NewHandler(resolver)

	// One limiter for both mounts: the Redis counters are keyed by scope and
	// client IP, not by path.
	publicLimit := middleware.RedisRateLimit(a.Redis, "badges", cfg.Badges.PublicRateLimit, cfg.Badges.PublicRateWindow)

	// --- Public Routes ---

	e.GET("/healthz", a.healthz)

	// --- API Routes ---

	api := e.Group("/api/v1")
	auth.RegisterRoutes(api, authHandler, authService)
	audit.RegisterRoutes(api, auditHandler, authService)
	trustbadges.RegisterRoutes(e, api, renderHandler)

	for _, g := range []*echo.Group{api, e.Group("")} {
		badgegroups.RegisterRoutes(g, groupHandler, authService)
		badges.RegisterRoutes(g, badgeHandler, authService, publicLimit)
		integrations.RegisterRoutes(g, capabilityHandler, authService)
	}

	return nil
}

// healthz reports whether MariaDB and Redis answer.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	status := map[string]string{"status": "ok", "database": "ok", "redis": "ok"}
	code := http.StatusOK

	if err := a.DB.PingContext(ctx); err != nil {
		status["database"] = "unavailable"
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		status["redis"] = "unavailable"
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}
