package middleware

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"sweetshop/internal/auth"
	"sweetshop/internal/errors"
)

// IdentityKey is the context key holding the caller's *auth.Identity.
const IdentityKey = "identity"

// Authenticate verifies the bearer token through the gate and stores the
// identity in the request context. Every failure is a 401.
func Authenticate(gate *auth.Gate) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: IdentityKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			decision := gate.Evaluate(token, auth.RequireSession)
			if !decision.Allowed() {
				return nil, decision.Err
			}
			return decision.Identity, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			httpErr := errors.MapErrorToHTTP(errors.ErrUnauthenticated)
			return echo.NewHTTPError(http.StatusUnauthorized, httpErr.ToErrorResponse())
		},
	})
}

// RequireAdmin rejects authenticated callers without the administrator role.
// It must run after Authenticate.
func RequireAdmin(gate *auth.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			decision := gate.Resume(IdentityFrom(c), auth.RequireAdmin)
			if !decision.Allowed() {
				httpErr := errors.MapErrorToHTTP(decision.Err)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			}
			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by Authenticate, or nil.
func IdentityFrom(c echo.Context) *auth.Identity {
	identity, _ := c.Get(IdentityKey).(*auth.Identity)
	return identity
}
