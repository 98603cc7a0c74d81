package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/localshop/internal/auth"
	"github.com/Skotchmaster/localshop/internal/models"
	"github.com/Skotchmaster/localshop/internal/transport"
	"github.com/Skotchmaster/localshop/pkg/logging"
	"github.com/Skotchmaster/localshop/pkg/tokens"
)

const userKey = "user"

type AuthHTTP struct {
	Svc *auth.Service
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_error", "invalid body", err)
	}

	sess, err := h.Svc.Register(ctx, auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Address:  req.Address,
	})
	if err != nil {
		return fail(l, "register_error", err)
	}

	c.SetCookie(tokens.CreateCookie(tokens.AccessCookieName, sess.Token, "/", sess.ExpiresAt))
	return c.JSON(http.StatusCreated, transport.AuthResponse{User: sess.User, ExpiresAt: sess.ExpiresAt})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := bindValid(c, &req); err != nil {
		return badRequest(l, "login_error", "email and password are required", err)
	}

	sess, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}

	c.SetCookie(tokens.CreateCookie(tokens.AccessCookieName, sess.Token, "/", sess.ExpiresAt))
	l.Info("login_successful", "user_id", sess.User.ID)
	return c.JSON(http.StatusOK, transport.AuthResponse{User: sess.User, ExpiresAt: sess.ExpiresAt})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookieName, "/"))
	if err := h.Svc.Logout(ctx); err != nil {
		return fail(l, "logout_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, currentUser(c))
}

// RequireLogin lets a request through only when its access token belongs to
// the signed-in user.
func RequireLogin(svc *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := logging.FromContext(c.Request().Context()).With("middleware", "require_login")

			var token string
			if ck, err := c.Cookie(tokens.AccessCookieName); err == nil {
				token = ck.Value
			}
			u, err := svc.Authenticate(token)
			if err != nil {
				if token != "" {
					c.SetCookie(tokens.DeleteCookie(tokens.AccessCookieName, "/"))
				}
				l.Warn("unauthorized", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "login required")
			}

			c.Set(userKey, u)
			return next(c)
		}
	}
}

func currentUser(c echo.Context) models.User {
	u, _ := c.Get(userKey).(models.User)
	return u
}
