package middleware

// identity.go defines helpers shared across middleware files.
// currentUserID pulls the account identifier that JWTAuth stored in
// the Echo context so the rate limiter can key buckets per account.
// Anonymous traffic (public catalog browsing) shares the "anon"
// bucket and is distinguished by IP instead.

import (
    "fmt"

    "github.com/labstack/echo/v4"
)

// currentUserID extracts the authenticated account ID from context.
// It returns "anon" when no account is authenticated. JWT numeric
// claims arrive as float64, so non-string values are formatted.
func currentUserID(c echo.Context) string {
    v := c.Get("user_id")
    if v == nil {
        return "anon"
    }
    switch id := v.(type) {
    case string:
        if id != "" {
            return id
        }
    case float64:
        return fmt.Sprintf("%.0f", id)
    case uint64:
        return fmt.Sprintf("%d", id)
    }
    return "anon"
}
