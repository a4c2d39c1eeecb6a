package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hearhere/internal/handler"
    "github.com/iliyamo/hearhere/internal/middleware"
)

// RegisterListener registers the wallet-scoped endpoints under /v1.
// All routes require a valid JWT; any signed-in role may hold a
// wallet and unlock episodes (creators and admins test content too).
func RegisterListener(e *echo.Echo, h *handler.WalletHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("LISTENER", "CREATOR", "ADMIN"),
    )
    g.GET("/wallet", h.Wallet)
    g.POST("/episodes/:id/unlock", h.Unlock)
    g.POST("/wallet/topups", h.CreateTopUp)
    g.GET("/wallet/topups", h.ListTopUps)
    g.GET("/library", h.Library)
}
