package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hearhere/internal/model"
    "github.com/iliyamo/hearhere/internal/repository"
)

// CreatorHandler lets creators manage their own novels and episodes.
// Ownership checks live in the repository; this layer maps
// ErrForbidden/ErrNovelNotFound/ErrConflict to HTTP codes. Pricing is
// the only money-adjacent field here and it never touches wallets:
// unlock records snapshot the price they were paid at.
type CreatorHandler struct {
    Catalog *repository.CatalogRepo
}

func NewCreatorHandler(cat *repository.CatalogRepo) *CreatorHandler {
    if cat == nil {
        panic("nil repository passed to NewCreatorHandler")
    }
    return &CreatorHandler{Catalog: cat}
}

// ListNovels handles GET /v1/creator/novels: the caller's own novels.
func (h *CreatorHandler) ListNovels(c echo.Context) error {
    creatorID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    novels, err := h.Catalog.ListNovelsByCreator(c.Request().Context(), creatorID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load novels failed"})
    }
    items := make([]echo.Map, 0, len(novels))
    for _, n := range novels {
        items = append(items, novelPart(n))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type novelReq struct {
    Title       *string `json:"title"`
    Author      *string `json:"author"`
    Description *string `json:"description"`
    Language    *string `json:"language"`
}

// CreateNovel handles POST /v1/creator/novels.
func (h *CreatorHandler) CreateNovel(c echo.Context) error {
    creatorID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req novelReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
    }
    n := model.Novel{CreatorID: creatorID, Title: strings.TrimSpace(*req.Title)}
    if req.Author != nil {
        n.Author = strings.TrimSpace(*req.Author)
    }
    if req.Description != nil {
        n.Description = strings.TrimSpace(*req.Description)
    }
    if req.Language != nil {
        n.Language = strings.TrimSpace(*req.Language)
    }
    if err := h.Catalog.CreateNovel(c.Request().Context(), &n); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create novel failed"})
    }
    return c.JSON(http.StatusCreated, novelPart(n))
}

// UpdateNovel handles PATCH /v1/creator/novels/:id. Omitted fields
// keep their current values.
func (h *CreatorHandler) UpdateNovel(c echo.Context) error {
    creatorID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    novelID, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid novel id"})
    }
    var req novelReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ctx := c.Request().Context()
    n, err := h.Catalog.GetNovel(ctx, novelID)
    if err != nil {
        if err == repository.ErrNovelNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "novel not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load novel failed"})
    }
    if req.Title != nil {
        if strings.TrimSpace(*req.Title) == "" {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "title cannot be empty"})
        }
        n.Title = strings.TrimSpace(*req.Title)
    }
    if req.Author != nil {
        n.Author = strings.TrimSpace(*req.Author)
    }
    if req.Description != nil {
        n.Description = strings.TrimSpace(*req.Description)
    }
    if req.Language != nil {
        n.Language = strings.TrimSpace(*req.Language)
    }
    n.CreatorID = creatorID
    if err := h.Catalog.UpdateNovel(ctx, n); err != nil {
        switch err {
        case repository.ErrNovelNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "novel not found"})
        case repository.ErrForbidden:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update novel failed"})
    }
    return c.JSON(http.StatusOK, novelPart(n))
}

// DeleteNovel handles DELETE /v1/creator/novels/:id. Refused with 409
// once any of the novel's episodes has been unlocked, because unlock
// history is append-only.
func (h *CreatorHandler) DeleteNovel(c echo.Context) error {
    creatorID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    novelID, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid novel id"})
    }
    if err := h.Catalog.DeleteNovel(c.Request().Context(), novelID, creatorID); err != nil {
        switch err {
        case repository.ErrNovelNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "novel not found"})
        case repository.ErrForbidden:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        case repository.ErrConflict:
            return c.JSON(http.StatusConflict, echo.Map{"error": "novel has unlocked episodes"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete novel failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

type episodeReq struct {
    EpisodeNumber   *uint32 `json:"episode_number"`
    Title           *string `json:"title"`
    DurationSeconds *uint32 `json:"duration_seconds"`
    PriceCoins      *uint64 `json:"price_coins"`
}

func episodePart(e model.Episode) echo.Map {
    return echo.Map{
        "id":               e.ID,
        "novel_id":         e.NovelID,
        "episode_number":   e.EpisodeNumber,
        "title":            e.Title,
        "duration_seconds": e.DurationSeconds,
        "price_coins":      e.PriceCoins,
        "is_free":          e.IsFree(),
    }
}

// CreateEpisode handles POST /v1/creator/novels/:id/episodes. A
// price of 0 publishes the episode as free.
func (h *CreatorHandler) CreateEpisode(c echo.Context) error {
    creatorID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    novelID, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid novel id"})
    }
    var req episodeReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
    }
    if req.EpisodeNumber == nil || *req.EpisodeNumber == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "episode_number is required"})
    }
    e := model.Episode{
        NovelID:       novelID,
        EpisodeNumber: *req.EpisodeNumber,
        Title:         strings.TrimSpace(*req.Title),
    }
    if req.DurationSeconds != nil {
        e.DurationSeconds = *req.DurationSeconds
    }
    if req.PriceCoins != nil {
        e.PriceCoins = *req.PriceCoins
    }
    if err := h.Catalog.CreateEpisode(c.Request().Context(), creatorID, &e); err != nil {
        switch err {
        case repository.ErrNovelNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "novel not found"})
        case repository.ErrForbidden:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create episode failed"})
    }
    return c.JSON(http.StatusCreated, episodePart(e))
}

// UpdateEpisode handles PATCH /v1/creator/episodes/:id. Price changes
// apply to future unlocks only; existing unlock records keep the
// snapshot they paid.
func (h *CreatorHandler) UpdateEpisode(c echo.Context) error {
    creatorID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    episodeID, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid episode id"})
    }
    var req episodeReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ctx := c.Request().Context()
    e, err := h.Catalog.GetEpisode(ctx, episodeID)
    if err != nil {
        if err == repository.ErrEpisodeNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "episode not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load episode failed"})
    }
    if req.Title != nil {
        if strings.TrimSpace(*req.Title) == "" {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "title cannot be empty"})
        }
        e.Title = strings.TrimSpace(*req.Title)
    }
    if req.EpisodeNumber != nil {
        if *req.EpisodeNumber == 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid episode_number"})
        }
        e.EpisodeNumber = *req.EpisodeNumber
    }
    if req.DurationSeconds != nil {
        e.DurationSeconds = *req.DurationSeconds
    }
    if req.PriceCoins != nil {
        e.PriceCoins = *req.PriceCoins
    }
    if err := h.Catalog.UpdateEpisode(ctx, creatorID, e); err != nil {
        switch err {
        case repository.ErrEpisodeNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "episode not found"})
        case repository.ErrForbidden:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update episode failed"})
    }
    return c.JSON(http.StatusOK, episodePart(e))
}
