package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hearhere/internal/handler"
    "github.com/iliyamo/hearhere/internal/middleware"
)

// RegisterCreator registers catalog management endpoints under
// /v1/creator. All routes require a valid JWT and the CREATOR role;
// ownership of individual novels is enforced in the repository.
func RegisterCreator(e *echo.Echo, h *handler.CreatorHandler, jwtSecret string) {
    g := e.Group(
        "/v1/creator",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("CREATOR"),
    )
    g.GET("/novels", h.ListNovels)
    g.POST("/novels", h.CreateNovel)
    g.PATCH("/novels/:id", h.UpdateNovel)
    g.DELETE("/novels/:id", h.DeleteNovel)
    g.POST("/novels/:id/episodes", h.CreateEpisode)
    g.PATCH("/episodes/:id", h.UpdateEpisode)
}
