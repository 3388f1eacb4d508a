package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/slot-booking-service/internal/handler"
    "github.com/iliyamo/slot-booking-service/internal/middleware"
    "github.com/iliyamo/slot-booking-service/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Used by load balancers and monitoring to verify the service is up.
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // /refresh rotates the refresh token; /refresh-access only issues a
    // new access token.
    g.POST("/refresh", a.Refresh)
    g.POST("/refresh-access", a.RefreshAccess)
    // Logout does not require JWT middleware: the handler accepts either
    // a bearer token (revoke all sessions) or a refresh_token in the body
    // (revoke one session).
    g.POST("/logout", a.Logout)

    // Protected endpoints accept both roles; role-specific groups are
    // registered separately.
    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole(model.RoleUser, model.RoleProvider))
    auth.GET("/me", a.Me)

    // Alternate logout path outside the auth group, same handler.
    e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers the unauthenticated browse endpoints.  The
// extra middleware (typically the response cache) applies to these
// routes only.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, mw ...echo.MiddlewareFunc) {
    e.GET("/v1/services", p.ListServices, mw...)
    e.GET("/v1/services/:id/slots", p.ListServiceSlots, mw...)
}
