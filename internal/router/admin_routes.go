package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hearhere/internal/handler"
    "github.com/iliyamo/hearhere/internal/middleware"
)

// RegisterAdmin registers the operator console endpoints under
// /v1/admin: access key issuance and management plus top-up review.
// All routes require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
    g := e.Group(
        "/v1/admin",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("ADMIN"),
    )
    g.POST("/keys", h.IssueKeys)
    g.GET("/keys", h.ListKeys)
    g.PATCH("/keys/:id", h.ToggleKey)
    g.DELETE("/keys/:id", h.DeleteKey)
    g.GET("/topups", h.ListTopUps)
    g.POST("/topups/:id/resolve", h.ResolveTopUp)
}
