package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesobkitchen/orderdesk/internal/logging"
	"github.com/mesobkitchen/orderdesk/internal/orderapi"
	"github.com/mesobkitchen/orderdesk/internal/session"
)

// AuthHandler fronts the backend's /login and /register and owns the local
// session. Redirection after auth changes happens here, never inside the
// transport.
type AuthHandler struct {
	API     *orderapi.Client
	Session *session.Session
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Name string `json:"name"`
		Pwd  string `json:"pwd"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.Pwd == "" {
		l.Warn("login_error", "status", 400, "reason", "missing credentials")
		return echo.NewHTTPError(http.StatusBadRequest, "name and password are required")
	}

	res, err := h.API.Login(ctx, req.Name, req.Pwd)
	if err != nil {
		if errors.Is(err, orderapi.ErrUnauthorized) {
			l.Warn("login_failed", "status", 401)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		var ne *orderapi.NetworkError
		if errors.As(err, &ne) {
			l.Error("login_error", "status", 502, "error", err)
			return echo.NewHTTPError(http.StatusBadGateway, "backend unreachable")
		}
		l.Error("login_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if err := h.Session.Login(res.User, res.Token); err != nil {
		l.Error("login_error", "status", 500, "reason", "persist session", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("login_success", "role", res.User.Role)
	return c.JSON(http.StatusOK, echo.Map{
		"user": res.User,
		"view": h.Session.CurrentView(),
	})
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req struct {
		Name       string `json:"name"`
		Phone      string `json:"phone"`
		Pwd        string `json:"pwd"`
		ConfirmPwd string `json:"confirmPwd"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	// field checks happen here, before anything touches the network
	if req.Name == "" || req.Phone == "" {
		l.Warn("register_failed", "status", 400, "reason", "missing fields")
		return echo.NewHTTPError(http.StatusBadRequest, "name and phone are required")
	}
	if len(req.Pwd) < 6 {
		l.Warn("register_failed", "status", 400, "reason", "short password")
		return echo.NewHTTPError(http.StatusBadRequest, "password must be at least 6 characters")
	}
	if req.ConfirmPwd != "" && req.Pwd != req.ConfirmPwd {
		l.Warn("register_failed", "status", 400, "reason", "password mismatch")
		return echo.NewHTTPError(http.StatusBadRequest, "passwords do not match")
	}

	if err := h.API.Register(ctx, req.Name, req.Phone, req.Pwd); err != nil {
		var he *orderapi.HTTPError
		if errors.As(err, &he) {
			l.Warn("register_failed", "status", he.Status, "reason", he.Message)
			return echo.NewHTTPError(he.Status, he.Message)
		}
		l.Error("register_error", "status", 502, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "backend unreachable")
	}

	l.Info("register_success")
	return c.JSON(http.StatusOK, echo.Map{"registered": true})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	h.Session.Logout()
	logging.FromContext(c.Request().Context()).Info("logout_success")
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := h.Session.User()
	if !ok || !h.Session.IsAuthenticated() {
		return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user": user,
		"view": h.Session.CurrentView(),
	})
}
