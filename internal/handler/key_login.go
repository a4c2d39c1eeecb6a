package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hearhere/internal/accesskey"
    "github.com/iliyamo/hearhere/internal/model"
    "github.com/iliyamo/hearhere/internal/repository"
    "github.com/iliyamo/hearhere/internal/utils"
)

type keyLoginReq struct {
    Key string `json:"key"`
}

// KeyLogin handles POST /v1/auth/key. A presented access key starts a
// session without email or password: the first successful login with
// a key creates an anonymous account and binds the key to it, so the
// wallet balance survives re-login. The usage counter, the account
// bind and the session row commit in one transaction.
//
// Rejections are distinguishable: invalid key (no such key), key
// disabled, key expired, key usage limit reached. All map to 401.
func (h *AuthHandler) KeyLogin(c echo.Context) error {
    var req keyLoginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    key := accesskey.Normalize(req.Key)
    if key == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": repository.ErrKeyNotFound.Error()})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    // The master key is checked before any table lookup. It is a
    // bootstrap credential: each login starts a fresh creator account.
    if accesskey.IsMaster(key, h.Cfg.MasterKey) {
        return h.startMasterSession(c, ctx)
    }

    tx, err := h.Accounts.DB.BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    // Row lock serializes concurrent logins with the same key.
    rec, err := h.Keys.GetByKeyForUpdateTx(ctx, tx, key)
    if err != nil {
        if err == repository.ErrKeyNotFound {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": repository.ErrKeyNotFound.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if err := accesskey.Validate(rec, time.Now().UTC()); err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
    }

    var accountID uint64
    if rec.AccountID != nil {
        accountID = *rec.AccountID
    } else {
        name := "Listener"
        if rec.Role == model.KeyRoleCreator {
            name = "Creator"
        }
        accountID, err = h.Accounts.CreateAnonymousTx(ctx, tx, name, rec.Role)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
        }
        if err := h.Keys.BindAccountTx(ctx, tx, rec.ID, accountID); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "bind account failed"})
        }
    }

    // Guarded increment: two racing logins cannot both take the last use.
    if err := h.Keys.ConsumeUseTx(ctx, tx, rec.ID); err != nil {
        if err == repository.ErrKeyExhausted {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": repository.ErrKeyExhausted.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "consume key failed"})
    }

    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, accountID, rec.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": errIssueAccess.Error()})
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": errIssueRefresh.Error()})
    }
    if err := h.Tokens.StoreRefreshTx(ctx, tx, accountID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": errSaveRefresh.Error()})
    }

    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    name := "Listener"
    if rec.Role == model.KeyRoleCreator {
        name = "Creator"
    }
    return c.JSON(http.StatusOK, authResp{
        Account: accountPart{ID: accountID, DisplayName: name, Role: rec.Role},
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
    })
}

// startMasterSession creates an anonymous creator account and issues
// a token pair in a single transaction. The master key has no
// issuance record to bind to, so every login bootstraps fresh.
func (h *AuthHandler) startMasterSession(c echo.Context, ctx context.Context) error {
    role := model.RoleCreator
    tx, err := h.Accounts.DB.BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    name := "Creator"
    accountID, err := h.Accounts.CreateAnonymousTx(ctx, tx, name, role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
    }

    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, accountID, role, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": errIssueAccess.Error()})
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": errIssueRefresh.Error()})
    }
    if err := h.Tokens.StoreRefreshTx(ctx, tx, accountID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": errSaveRefresh.Error()})
    }

    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    return c.JSON(http.StatusOK, authResp{
        Account: accountPart{ID: accountID, DisplayName: name, Role: role},
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
    })
}
