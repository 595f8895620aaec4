package middleware

// identity.go holds the helpers shared by the rate limiter and the
// access log to name the caller of a request.

import "github.com/labstack/echo/v4"

// subject returns the authenticated subject set by JWTAuth, or "anon"
// for public requests.
func subject(c echo.Context) string {
    if s, ok := c.Get("user_id").(string); ok && s != "" {
        return s
    }
    return "anon"
}

// clientIP returns the caller address as seen through proxies.
func clientIP(c echo.Context) string {
    if ip := c.RealIP(); ip != "" {
        return ip
    }
    return "unknown"
}
