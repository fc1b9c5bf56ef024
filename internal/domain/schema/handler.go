package schema

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rapha/clinic/internal/platform/auth"
)

// AuditRecorder is satisfied by the audit service.
type AuditRecorder interface {
	Record(ctx context.Context, actor, action, details string)
}

type Handler struct {
	svc   *Service
	audit AuditRecorder
}

func NewHandler(svc *Service, audit AuditRecorder) *Handler {
	return &Handler{svc: svc, audit: audit}
}

// RegisterRoutes mounts the column-management surface. Structural changes
// are physician-only; the column listing is open to all staff because every
// screen renders from it.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/columns", h.ListColumns)

	manage := api.Group("/columns", auth.RequireRole(auth.RolePhysician))
	manage.POST("", h.AddColumn)
	manage.PUT("/:name/visibility", h.ToggleVisibility)
	manage.DELETE("/:name", h.RemoveColumn)
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// errorResponse maps domain errors to an HTTP status plus the uniform
// {status, message} body. Nothing escapes unmapped.
func errorResponse(c echo.Context, err error) error {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInvalidIdentifier):
		code = http.StatusBadRequest
	case errors.Is(err, ErrDuplicateColumn):
		code = http.StatusConflict
	case errors.Is(err, ErrProtectedColumn):
		code = http.StatusForbidden
	case errors.Is(err, ErrColumnNotFound):
		code = http.StatusNotFound
	}
	return c.JSON(code, statusResponse{Status: "error", Message: err.Error()})
}

func (h *Handler) ListColumns(c echo.Context) error {
	ctx := c.Request().Context()
	all, err := h.svc.ListAll(ctx)
	if err != nil {
		return errorResponse(c, err)
	}
	visible, err := h.svc.ListVisible(ctx)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"all_columns":     all,
		"visible_columns": visible,
	})
}

type addColumnRequest struct {
	ColumnName  string `json:"column_name"`
	DisplayName string `json:"display_name"`
	DataType    string `json:"data_type"`
}

func (h *Handler) AddColumn(c echo.Context) error {
	var req addColumnRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{Status: "error", Message: "invalid request body"})
	}
	if req.ColumnName == "" || req.DisplayName == "" {
		return c.JSON(http.StatusBadRequest, statusResponse{Status: "error", Message: "column name and display name are required"})
	}

	ctx := c.Request().Context()
	desc, err := h.svc.AddColumn(ctx, req.ColumnName, req.DisplayName, req.DataType)
	if err != nil {
		return errorResponse(c, err)
	}

	actor := auth.ActorFromContext(ctx)
	h.audit.Record(ctx, actor.Username, "Column Added",
		fmt.Sprintf("Added column: %s (%s)", desc.DisplayName, desc.ColumnName))
	return c.JSON(http.StatusOK, statusResponse{Status: "success", Message: "column added successfully"})
}

type toggleVisibilityRequest struct {
	IsVisible *bool `json:"is_visible"`
}

func (h *Handler) ToggleVisibility(c echo.Context) error {
	var req toggleVisibilityRequest
	if err := c.Bind(&req); err != nil || req.IsVisible == nil {
		return c.JSON(http.StatusBadRequest, statusResponse{Status: "error", Message: "is_visible is required"})
	}

	ctx := c.Request().Context()
	name := c.Param("name")
	if err := h.svc.ToggleVisibility(ctx, name, *req.IsVisible); err != nil {
		return errorResponse(c, err)
	}

	action := "hidden"
	if *req.IsVisible {
		action = "shown"
	}
	actor := auth.ActorFromContext(ctx)
	h.audit.Record(ctx, actor.Username, "Column Visibility Changed",
		fmt.Sprintf("Column %s %s", name, action))
	return c.JSON(http.StatusOK, statusResponse{Status: "success", Message: "column visibility updated"})
}

func (h *Handler) RemoveColumn(c echo.Context) error {
	ctx := c.Request().Context()
	name := c.Param("name")
	if err := h.svc.RemoveColumn(ctx, name); err != nil {
		return errorResponse(c, err)
	}

	actor := auth.ActorFromContext(ctx)
	h.audit.Record(ctx, actor.Username, "Column Removed", "Removed column: "+name)
	return c.JSON(http.StatusOK, statusResponse{Status: "success", Message: "column removed successfully"})
}
