package handler

import (
    "context"
    "database/sql"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hearhere/internal/config"
    "github.com/iliyamo/hearhere/internal/model"
    "github.com/iliyamo/hearhere/internal/repository"
    "github.com/iliyamo/hearhere/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints, including key
// login (see key_login.go).
type AuthHandler struct {
    Cfg      config.Config
    Accounts *repository.AccountRepo
    Keys     *repository.AccessKeyRepo
    Tokens   *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, a *repository.AccountRepo, k *repository.AccessKeyRepo, t *repository.TokenRepo) *AuthHandler {
    if a == nil || k == nil || t == nil {
        panic("nil repository passed to NewAuthHandler")
    }
    return &AuthHandler{Cfg: cfg, Accounts: a, Keys: k, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
    Email       string `json:"email"`
    Password    string `json:"password"`
    DisplayName string `json:"display_name"`
    Role        string `json:"role"` // LISTENER | CREATOR
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type accountPart struct {
    ID          uint64 `json:"id"`
    Email       string `json:"email,omitempty"`
    DisplayName string `json:"display_name"`
    Role        string `json:"role"`
}
type authResp struct {
    Account accountPart `json:"account"`
    Access  tokenPart   `json:"access"`
    Refresh tokenPart   `json:"refresh"`
}

// Register: create an email+password account and return tokens
// immediately. ADMIN cannot be self-assigned; unknown roles fall back
// to LISTENER.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }
    role := strings.ToUpper(strings.TrimSpace(req.Role))
    if role != model.RoleCreator && role != model.RoleListener {
        role = model.RoleListener
    }
    name := strings.TrimSpace(req.DisplayName)
    if name == "" {
        // Default to the email local part.
        name = req.Email
        if i := strings.Index(req.Email, "@"); i > 0 {
            name = req.Email[:i]
        }
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    uid, err := h.Accounts.Create(ctx, req.Email, req.Password, name, role, h.Cfg.BcryptCost)
    if err != nil {
        if err == repository.ErrEmailExists {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
    }

    access, refresh, err := h.issueTokens(ctx, uid, role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
    }

    return c.JSON(http.StatusCreated, authResp{
        Account: accountPart{ID: uid, Email: req.Email, DisplayName: name, Role: role},
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    })
}

// Login: verify and return new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    a, err := h.Accounts.GetByEmail(ctx, req.Email)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    // Anonymous key-bootstrapped accounts have no password hash.
    if a.PasswordHash == nil || !utils.VerifyPassword(*a.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    if !a.IsActive {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
    }

    access, refresh, err := h.issueTokens(ctx, a.ID, a.Role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
    }

    email := ""
    if a.Email != nil {
        email = *a.Email
    }
    return c.JSON(http.StatusOK, authResp{
        Account: accountPart{ID: a.ID, Email: email, DisplayName: a.DisplayName, Role: a.Role},
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
    })
}

// Refresh: validate by hash, revoke old, issue new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    raw := strings.TrimSpace(req.RefreshToken)
    hash := utils.HashRefreshRaw(raw)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    accountID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    _ = h.Tokens.RevokeByHash(ctx, hash)

    a, err := h.Accounts.GetByID(ctx, accountID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load account failed"})
    }

    access, refresh, err := h.issueTokens(ctx, a.ID, a.Role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
    }

    email := ""
    if a.Email != nil {
        email = *a.Email
    }
    return c.JSON(http.StatusOK, authResp{
        Account: accountPart{ID: a.ID, Email: email, DisplayName: a.DisplayName, Role: a.Role},
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
    })
}

// Logout revokes either a specific refresh token (from the body) or
// all of the caller's sessions (from a valid bearer with no body
// token). At least one of the two must be supplied.
func (h *AuthHandler) Logout(c echo.Context) error {
    var uid uint64
    hasBearer := false
    authHeader := c.Request().Header.Get("Authorization")
    if strings.HasPrefix(authHeader, "Bearer ") {
        rawToken := strings.TrimPrefix(authHeader, "Bearer ")
        tok, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
            if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                return nil, echo.ErrUnauthorized
            }
            return []byte(h.Cfg.JWTSecret), nil
        })
        if err == nil && tok.Valid {
            if claims, ok := tok.Claims.(jwt.MapClaims); ok {
                switch subVal := claims["sub"].(type) {
                case float64:
                    uid = uint64(subVal)
                    hasBearer = true
                case string:
                    if parsed, err := strconv.ParseUint(subVal, 10, 64); err == nil {
                        uid = parsed
                        hasBearer = true
                    }
                }
            }
        }
    }

    var req refreshReq
    _ = c.Bind(&req)
    refreshToken := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if hasBearer && refreshToken == "" {
        if uid == 0 {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        }
        if err := h.Tokens.RevokeAllForAccount(ctx, uid); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }
    if refreshToken != "" {
        hash := utils.HashRefreshRaw(refreshToken)
        if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
        }
        if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

// Me returns the authenticated account with its current balance.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    a, err := h.Accounts.GetByID(ctx, uid)
    if err != nil {
        if err == repository.ErrAccountNotFound {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load account failed"})
    }
    email := ""
    if a.Email != nil {
        email = *a.Email
    }
    return c.JSON(http.StatusOK, echo.Map{
        "id":           a.ID,
        "email":        email,
        "display_name": a.DisplayName,
        "role":         a.Role,
        "coin_balance": a.CoinBalance,
    })
}

// issueTokens builds an access/refresh pair and stores the refresh
// hash.
func (h *AuthHandler) issueTokens(ctx context.Context, accountID uint64, role string) (utils.AccessToken, utils.RefreshToken, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, accountID, role, h.Cfg.AccessTTLMin)
    if err != nil {
        return utils.AccessToken{}, utils.RefreshToken{}, errIssueAccess
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return utils.AccessToken{}, utils.RefreshToken{}, errIssueRefresh
    }
    if err := h.Tokens.StoreRefresh(ctx, accountID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return utils.AccessToken{}, utils.RefreshToken{}, errSaveRefresh
    }
    return access, refresh, nil
}
