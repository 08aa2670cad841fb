package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/tsuki42/reddit-clone/internal/infrastructure/session"
)

// Session loads the request session from the cookie and threads it through
// the request context so the GraphQL resolvers can reach it.
func Session(manager *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			sess := manager.Load(c.Response(), req)
			c.SetRequest(req.WithContext(session.WithSession(req.Context(), sess)))
			return next(c)
		}
	}
}
