package handler // handler defines http handlers

import (
    "errors"
    "strconv"
    "strings"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hearhere/internal/model"
)

// Token issuance failures, reported verbatim in 500 responses.
var (
    errIssueAccess  = errors.New("issue access failed")
    errIssueRefresh = errors.New("issue refresh failed")
    errSaveRefresh  = errors.New("save refresh failed")
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// parseIDParam parses a numeric path parameter. Zero is rejected
// along with non-numeric values.
func parseIDParam(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

// optionalAccountID inspects the Authorization header for a valid
// bearer token without requiring one. Public catalog endpoints use it
// to decorate responses for signed-in listeners while still serving
// guests. Returns 0 when no valid token is present.
func optionalAccountID(c echo.Context, secret string) uint64 {
    auth := c.Request().Header.Get("Authorization")
    if !strings.HasPrefix(auth, "Bearer ") {
        return 0
    }
    raw := strings.TrimPrefix(auth, "Bearer ")
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, echo.ErrUnauthorized
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return 0
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return 0
    }
    switch sub := claims["sub"].(type) {
    case float64:
        return uint64(sub)
    case string:
        if n, err := strconv.ParseUint(sub, 10, 64); err == nil {
            return n
        }
    }
    return 0
}

// topupPart serializes a top-up request for wallet and admin views.
func topupPart(t model.TopUpRequest) echo.Map {
    m := echo.Map{
        "id":              t.ID,
        "account_id":      t.AccountID,
        "amount_paid":     t.AmountPaid,
        "coins_requested": t.CoinsRequested,
        "proof_ref":       t.ProofRef,
        "method":          t.Method,
        "status":          t.Status,
        "submitted_at":    t.SubmittedAt.UTC().Format(time.RFC3339),
    }
    if t.ResolvedAt != nil {
        m["resolved_at"] = t.ResolvedAt.UTC().Format(time.RFC3339)
    }
    return m
}

func topupParts(ts []model.TopUpRequest) []echo.Map {
    out := make([]echo.Map, 0, len(ts))
    for _, t := range ts {
        out = append(out, topupPart(t))
    }
    return out
}
