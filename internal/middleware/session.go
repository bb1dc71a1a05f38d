// Package middleware holds the echo middleware that turns session cookies
// into request identity and enforces the access policy.
package middleware

import (
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"statues/internal/auth"
	"statues/internal/errors"
)

const (
	claimsContextKey  = "session_claims"
	sessionContextKey = "session"
)

// SessionCookie verifies the signature of the session cookie. Requests
// without a valid cookie carry on as anonymous.
func SessionCookie(cookieName string, signer *auth.TokenSigner) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "cookie:" + cookieName,
		ContextKey:  claimsContextKey,
		ParseTokenFunc: func(_ echo.Context, token string) (interface{}, error) {
			return signer.Parse(token)
		},
		ErrorHandler: func(echo.Context, error) error {
			return nil
		},
		ContinueOnIgnoredError: true,
	})
}

// Session loads the server-side record for verified claims. A destroyed or
// expired record leaves the request anonymous; a store outage fails it.
func Session(sessions *auth.SessionManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(claimsContextKey).(*auth.Claims)
			if !ok || claims == nil {
				return next(c)
			}
			session, err := sessions.ResolveClaims(c.Request().Context(), claims)
			if err != nil {
				httpErr := errors.MapErrorToHTTP(err)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
			}
			if session != nil {
				c.Set(sessionContextKey, session)
			}
			return next(c)
		}
	}
}

// SessionFrom returns the caller's session, or nil for anonymous requests.
func SessionFrom(c echo.Context) *auth.Session {
	session, _ := c.Get(sessionContextKey).(*auth.Session)
	return session
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if SessionFrom(c) == nil {
			return unauthorized()
		}
		return next(c)
	}
}

// RequireAdmin rejects anyone without the admin role with 401, including
// authenticated non-admins.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !SessionFrom(c).IsAdmin() {
			return unauthorized()
		}
		return next(c)
	}
}

func unauthorized() error {
	httpErr := errors.MapErrorToHTTP(errors.ErrUnauthorized)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}
