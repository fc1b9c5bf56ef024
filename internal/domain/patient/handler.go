package patient

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rapha/clinic/internal/platform/auth"
	"github.com/rapha/clinic/internal/platform/invoice"
)

type Handler struct {
	svc   *Service
	audit AuditRecorder
}

func NewHandler(svc *Service, audit AuditRecorder) *Handler {
	return &Handler{svc: svc, audit: audit}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.Search)
	api.POST("/patients", h.Create)
	api.GET("/patients/stats", h.Stats)
	api.GET("/patients/:id", h.Get)
	api.PUT("/patients/:id", h.Update)
	api.DELETE("/patients/:id", h.Delete)
	api.POST("/patients/:id/invoice", h.Invoice)
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func errorResponse(c echo.Context, err error) error {
	code := http.StatusInternalServerError
	var validation *ValidationError
	var signature *SignatureError
	switch {
	case errors.Is(err, ErrNameRequired), errors.As(err, &validation):
		code = http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		code = http.StatusNotFound
	case errors.As(err, &signature):
		code = http.StatusForbidden
	}
	return c.JSON(code, statusResponse{Status: "error", Message: err.Error()})
}

func patientID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid patient id")
	}
	return id, nil
}

func (h *Handler) Search(c echo.Context) error {
	records, err := h.svc.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{Status: "error", Message: err.Error()})
	}

	ctx := c.Request().Context()
	rec, err := h.svc.Get(ctx, auth.ActorFromContext(ctx), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) Create(c echo.Context) error {
	var input map[string]any
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{Status: "error", Message: "invalid request body"})
	}

	ctx := c.Request().Context()
	id, err := h.svc.Create(ctx, auth.ActorFromContext(ctx), input)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "id": id})
}

func (h *Handler) Update(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{Status: "error", Message: err.Error()})
	}

	var input map[string]any
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{Status: "error", Message: "invalid request body"})
	}

	ctx := c.Request().Context()
	if err := h.svc.Update(ctx, auth.ActorFromContext(ctx), id, input); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "success", Message: "patient updated"})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{Status: "error", Message: err.Error()})
	}

	ctx := c.Request().Context()
	if err := h.svc.Delete(ctx, auth.ActorFromContext(ctx), id); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "deleted", Message: "patient deleted"})
}

type invoiceRequest struct {
	invoice.Meta
	Sections []invoice.Section `json:"sections"`
}

// Invoice renders a PDF devis for the patient from the billed sections in
// the request body.
func (h *Handler) Invoice(c echo.Context) error {
	if _, err := patientID(c); err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{Status: "error", Message: err.Error()})
	}

	var req invoiceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{Status: "error", Message: "invalid request body"})
	}

	now := time.Now()
	pdf, err := invoice.Render(req.Meta, req.Sections, now)
	if err != nil {
		return errorResponse(c, err)
	}

	ctx := c.Request().Context()
	actor := auth.ActorFromContext(ctx)
	h.audit.Record(ctx, actor.Username, "Facture générée",
		fmt.Sprintf("Facture pour %s %s (%s)", req.Meta.Nom, req.Meta.Prenom, req.Meta.Assurance))

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, invoice.Filename(req.Meta, now)))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// Stats renders the patient aggregates plus the one-line summary the staff
// dashboard shows.
func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	summary := fmt.Sprintf("%d patients cette annee -- %d ans en moyenne -- %d cm en moyenne -- %d kg en moyenne",
		stats.Count, int(stats.AvgAge+0.5), int(stats.AvgHeight+0.5), int(stats.AvgWeight+0.5))
	return c.JSON(http.StatusOK, map[string]any{
		"count":      stats.Count,
		"avg_age":    stats.AvgAge,
		"avg_height": stats.AvgHeight,
		"avg_weight": stats.AvgWeight,
		"summary":    summary,
	})
}
