package visit

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rapha/clinic/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/visits", h.ListByPatient)
	api.POST("/patients/:id/visits", h.Create)
}

func patientID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid patient id")
	}
	return id, nil
}

func (h *Handler) ListByPatient(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	visits, err := h.svc.ListByPatient(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, visits)
}

type createRequest struct {
	VisitDate string `json:"visit_date"` // YYYY-MM-DD
	Notes     string `json:"notes"`
}

func (h *Handler) Create(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	visitDate, err := time.Parse("2006-01-02", req.VisitDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "visit_date must be YYYY-MM-DD")
	}

	ctx := c.Request().Context()
	actor := auth.ActorFromContext(ctx)
	v, err := h.svc.Create(ctx, actor.Username, id, visitDate, req.Notes)
	if err != nil {
		if errors.Is(err, ErrDateRequired) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}
