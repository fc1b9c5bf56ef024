package audit

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rapha/clinic/internal/platform/auth"
	"github.com/rapha/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the audit surface, physician-only.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/audit", auth.RequireRole(auth.RolePhysician))
	g.GET("", h.List)
	g.POST("/report", h.SendReport)
}

func (h *Handler) List(c echo.Context) error {
	params := pagination.FromContext(c)
	entries, total, err := h.svc.List(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if entries == nil {
		entries = []Entry{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, params.Limit, params.Offset))
}

type reportRequest struct {
	Date string `json:"date"` // YYYY-MM-DD, defaults to today
}

func (h *Handler) SendReport(c echo.Context) error {
	var req reportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	day := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		day = parsed
	}

	if err := h.svc.SendDailyReport(c.Request().Context(), day); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "success", "message": "report sent"})
}
