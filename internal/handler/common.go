package handler

import (
    "errors"
    "strconv"

    "github.com/labstack/echo/v4"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// The JWT middleware stores the claim value as whatever type the token
// decoder produced, so every plausible representation is accepted.
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

// getRole returns the role claim set by the JWT middleware, or "" when absent.
func getRole(c echo.Context) string {
    if r, ok := c.Get("role").(string); ok {
        return r
    }
    return ""
}

// pathID parses the :id path parameter as a positive uint64.
func pathID(c echo.Context) (uint64, error) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid id")
    }
    return id, nil
}
