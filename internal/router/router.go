package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hearhere/internal/handler"
    "github.com/iliyamo/hearhere/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication
// on the provided Echo instance. Currently it exposes only a health
// check, used by load balancers to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations (register, login, key login, refresh,
// logout) live under /v1/auth; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // Access-key login: the listener entry point. Returns the same
    // token pair as password login.
    g.POST("/key", a.KeyLogin)
    g.POST("/refresh", a.Refresh)
    // Logout does not require JWT middleware; the handler accepts
    // either a bearer (revoke all sessions) or a refresh_token body
    // (revoke one session).
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
    auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated catalog endpoints.
// The cache middleware (Redis response cache) wraps all of them; it
// degrades to a pass-through when Redis is unavailable.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
    g := e.Group("/v1", cache)
    g.GET("/novels", p.ListNovels)
    g.GET("/novels/:id", p.GetNovel)
    g.GET("/novels/:id/episodes", p.ListEpisodes)
    g.GET("/recharge/packs", p.Packs)
}
