package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hearhere/internal/model"
    "github.com/iliyamo/hearhere/internal/repository"
)

// PublicHandler serves the unauthenticated catalog: novels, episode
// lists and the recharge packs. Episode lists are decorated with the
// caller's unlock state when a valid bearer token happens to be
// present, but never require one.
type PublicHandler struct {
    Catalog   *repository.CatalogRepo
    Unlocks   *repository.UnlockRepo
    JWTSecret string
}

func NewPublicHandler(cat *repository.CatalogRepo, u *repository.UnlockRepo, jwtSecret string) *PublicHandler {
    if cat == nil || u == nil {
        panic("nil repository passed to NewPublicHandler")
    }
    return &PublicHandler{Catalog: cat, Unlocks: u, JWTSecret: jwtSecret}
}

func novelPart(n model.Novel) echo.Map {
    return echo.Map{
        "id":          n.ID,
        "title":       n.Title,
        "author":      n.Author,
        "description": n.Description,
        "language":    n.Language,
        "created_at":  n.CreatedAt.UTC().Format(time.RFC3339),
    }
}

// ListNovels handles GET /v1/novels.
func (h *PublicHandler) ListNovels(c echo.Context) error {
    novels, err := h.Catalog.ListNovels(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load novels failed"})
    }
    items := make([]echo.Map, 0, len(novels))
    for _, n := range novels {
        items = append(items, novelPart(n))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetNovel handles GET /v1/novels/:id.
func (h *PublicHandler) GetNovel(c echo.Context) error {
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid novel id"})
    }
    n, err := h.Catalog.GetNovel(c.Request().Context(), id)
    if err != nil {
        if err == repository.ErrNovelNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "novel not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load novel failed"})
    }
    return c.JSON(http.StatusOK, novelPart(n))
}

// ListEpisodes handles GET /v1/novels/:id/episodes. Each entry
// carries the price and, for signed-in callers, whether the caller
// already unlocked it.
func (h *PublicHandler) ListEpisodes(c echo.Context) error {
    novelID, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid novel id"})
    }
    ctx := c.Request().Context()
    if _, err := h.Catalog.GetNovel(ctx, novelID); err != nil {
        if err == repository.ErrNovelNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "novel not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load novel failed"})
    }
    episodes, err := h.Catalog.ListEpisodes(ctx, novelID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load episodes failed"})
    }

    unlocked := map[uint64]bool{}
    if accountID := optionalAccountID(c, h.JWTSecret); accountID != 0 {
        if ids, err := h.Unlocks.UnlockedEpisodeIDs(ctx, accountID, novelID); err == nil {
            unlocked = ids
        }
    }

    items := make([]echo.Map, 0, len(episodes))
    for _, e := range episodes {
        items = append(items, echo.Map{
            "id":               e.ID,
            "episode_number":   e.EpisodeNumber,
            "title":            e.Title,
            "duration_seconds": e.DurationSeconds,
            "price_coins":      e.PriceCoins,
            "is_free":          e.IsFree(),
            "unlocked":         unlocked[e.ID],
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Packs handles GET /v1/recharge/packs: the static coin pack catalog
// shown on the recharge page.
func (h *PublicHandler) Packs(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"items": model.CoinPacks})
}
