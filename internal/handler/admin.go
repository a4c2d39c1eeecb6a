package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hearhere/internal/ledger"
    "github.com/iliyamo/hearhere/internal/model"
    "github.com/iliyamo/hearhere/internal/queue"
    "github.com/iliyamo/hearhere/internal/repository"
    queue_publisher "github.com/iliyamo/hearhere/internal/service"
    "github.com/iliyamo/hearhere/internal/utils"
)

// AdminHandler covers the operator console: issuing and managing
// access keys, and reviewing top-up requests. Resolving a request
// goes through the ledger so the status flip and the credit commit
// together.
type AdminHandler struct {
    Keys   *repository.AccessKeyRepo
    TopUps *repository.TopUpRepo
    Ledger *ledger.Ledger
}

func NewAdminHandler(k *repository.AccessKeyRepo, t *repository.TopUpRepo, l *ledger.Ledger) *AdminHandler {
    if k == nil || t == nil || l == nil {
        panic("nil dependency passed to NewAdminHandler")
    }
    return &AdminHandler{Keys: k, TopUps: t, Ledger: l}
}

type issueKeysReq struct {
    Count     int    `json:"count"`
    Role      string `json:"role"`       // LISTENER | CREATOR
    UsesLimit *int64 `json:"uses_limit"` // -1 = unlimited (default)
    ExpiresAt string `json:"expires_at"` // RFC3339, optional
}

func keyPart(k model.AccessKey) echo.Map {
    m := echo.Map{
        "id":         k.ID,
        "key":        k.Key,
        "role":       k.Role,
        "uses_count": k.UsesCount,
        "uses_limit": k.UsesLimit,
        "enabled":    k.Enabled,
        "created_at": k.CreatedAt.UTC().Format(time.RFC3339),
    }
    if k.ExpiresAt != nil {
        m["expires_at"] = k.ExpiresAt.UTC().Format(time.RFC3339)
    }
    if k.AccountID != nil {
        m["account_id"] = *k.AccountID
    }
    return m
}

// IssueKeys handles POST /v1/admin/keys. Issues a batch of freshly
// generated keys; the raw key strings appear only in this response.
func (h *AdminHandler) IssueKeys(c echo.Context) error {
    var req issueKeysReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    count := req.Count
    if count <= 0 {
        count = 1
    }
    if count > 100 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "count must be at most 100"})
    }
    role := strings.ToUpper(strings.TrimSpace(req.Role))
    if role == "" {
        role = model.KeyRoleListener
    }
    if role != model.KeyRoleListener && role != model.KeyRoleCreator {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be LISTENER or CREATOR"})
    }
    usesLimit := int64(model.UsesUnlimited)
    if req.UsesLimit != nil {
        usesLimit = *req.UsesLimit
        if usesLimit != model.UsesUnlimited && usesLimit <= 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "uses_limit must be positive or -1"})
        }
    }
    var expiresAt *time.Time
    if s := strings.TrimSpace(req.ExpiresAt); s != "" {
        t, err := time.Parse(time.RFC3339, s)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "expires_at must be RFC3339"})
        }
        if !t.After(time.Now().UTC()) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "expires_at must be in the future"})
        }
        expiresAt = &t
    }

    ctx := c.Request().Context()
    issued := make([]echo.Map, 0, count)
    for i := 0; i < count; i++ {
        key, err := utils.NewKeyString()
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate key failed"})
        }
        id, err := h.Keys.Create(ctx, key, role, usesLimit, expiresAt)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue key failed"})
        }
        issued = append(issued, echo.Map{"id": id, "key": key})
    }
    return c.JSON(http.StatusCreated, echo.Map{"items": issued, "role": role, "uses_limit": usesLimit})
}

// ListKeys handles GET /v1/admin/keys.
func (h *AdminHandler) ListKeys(c echo.Context) error {
    keys, err := h.Keys.List(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load keys failed"})
    }
    items := make([]echo.Map, 0, len(keys))
    for _, k := range keys {
        items = append(items, keyPart(k))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type toggleKeyReq struct {
    Enabled *bool `json:"enabled"`
}

// ToggleKey handles PATCH /v1/admin/keys/:id. Disabling blocks new
// logins with the key; sessions already issued keep their tokens.
func (h *AdminHandler) ToggleKey(c echo.Context) error {
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid key id"})
    }
    var req toggleKeyReq
    if err := c.Bind(&req); err != nil || req.Enabled == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "enabled is required"})
    }
    if err := h.Keys.SetEnabled(c.Request().Context(), id, *req.Enabled); err != nil {
        if err == repository.ErrKeyNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "key not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update key failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"id": id, "enabled": *req.Enabled})
}

// DeleteKey handles DELETE /v1/admin/keys/:id. The bound account, if
// any, survives so in-flight sessions are not corrupted.
func (h *AdminHandler) DeleteKey(c echo.Context) error {
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid key id"})
    }
    if err := h.Keys.Delete(c.Request().Context(), id); err != nil {
        if err == repository.ErrKeyNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "key not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete key failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// ListTopUps handles GET /v1/admin/topups?status=pending. Defaults to
// the PENDING review queue, oldest first.
func (h *AdminHandler) ListTopUps(c echo.Context) error {
    status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
    if status == "" {
        status = model.TopUpPending
    }
    switch status {
    case model.TopUpPending, model.TopUpVerified, model.TopUpRejected:
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
    }
    topups, err := h.TopUps.ListByStatus(c.Request().Context(), status)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load top-ups failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": topupParts(topups)})
}

type resolveTopUpReq struct {
    Decision string `json:"decision"` // "verified" | "rejected"
}

// ResolveTopUp handles POST /v1/admin/topups/:id/resolve. Verifying
// credits the requested coins atomically with the status flip;
// rejecting credits nothing. Either outcome is final: re-resolution
// gets 409.
func (h *AdminHandler) ResolveTopUp(c echo.Context) error {
    id, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
    }
    var req resolveTopUpReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    var approve bool
    switch strings.ToLower(strings.TrimSpace(req.Decision)) {
    case "verified":
        approve = true
    case "rejected":
        approve = false
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "decision must be verified or rejected"})
    }

    ctx := c.Request().Context()
    rec, err := h.Ledger.ResolveTopUp(ctx, id, approve)
    if err != nil {
        switch err {
        case repository.ErrTopUpNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "top-up request not found"})
        case repository.ErrAlreadyResolved:
            return c.JSON(http.StatusConflict, echo.Map{"error": repository.ErrAlreadyResolved.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "resolve top-up failed"})
    }

    if approve {
        resolvedAt := ""
        if rec.ResolvedAt != nil {
            resolvedAt = rec.ResolvedAt.UTC().Format(time.RFC3339)
        }
        // Advisory event; the credit is already committed.
        _ = queue_publisher.PublishCoinsCredited(ctx, queue.CoinsCreditedEvent{
            RequestID:  rec.ID,
            AccountID:  rec.AccountID,
            Coins:      rec.CoinsRequested,
            AmountPaid: rec.AmountPaid,
            ProofRef:   rec.ProofRef,
            ResolvedAt: resolvedAt,
        })
    }
    return c.JSON(http.StatusOK, topupPart(rec))
}
