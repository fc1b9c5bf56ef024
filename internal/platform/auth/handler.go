package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// AuditRecorder is satisfied by the audit service; an interface here keeps
// the platform package from depending on domain packages.
type AuditRecorder interface {
	Record(ctx context.Context, actor, action, details string)
}

type Handler struct {
	auth  *Authenticator
	audit AuditRecorder
}

func NewHandler(a *Authenticator, audit AuditRecorder) *Handler {
	return &Handler{auth: a, audit: audit}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/login", h.Login)
	e.POST("/api/v1/logout", h.Logout)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
	Role   string `json:"role"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	// Staff type usernames with spaces; the credential store uses underscores.
	username := ""
	for _, r := range req.Username {
		if r == ' ' {
			r = '_'
		}
		username += string(r)
	}

	token, role, err := h.auth.Login(username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.audit.Record(c.Request().Context(), username, "La connexion a échoué", "Failed login attempt")
			return echo.NewHTTPError(http.StatusUnauthorized, "incorrect username or password")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.audit.Record(c.Request().Context(), username, "login",
		"L'utilisateur '"+username+"' s'est connecté avec succès")
	return c.JSON(http.StatusOK, loginResponse{Status: "success", Token: token, Role: role})
}

// Logout only records the event; token disposal is the client's job.
func (h *Handler) Logout(c echo.Context) error {
	actor := ActorFromContext(c.Request().Context())
	h.audit.Record(c.Request().Context(), actor.Username, "logout",
		"L'utilisateur '"+actor.Username+"' s'est déconnecté")
	return c.JSON(http.StatusOK, map[string]string{"status": "success"})
}
