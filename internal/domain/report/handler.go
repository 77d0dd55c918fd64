package report

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/odonto/odonto/internal/platform/auth"
	"github.com/odonto/odonto/internal/platform/reporting"
	"github.com/odonto/odonto/internal/platform/tenant"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := auth.For(auth.FeatureRelatorios)
	api.GET("/relatorios/financeiro", h.Financial, g.View)
	api.GET("/relatorios/financeiro/export", h.ExportFinancial, g.View)
	api.GET("/relatorios/procedimentos", h.Procedures, g.View)
	api.GET("/relatorios/ocupacao", h.Occupancy, g.View)
	api.GET("/relatorios/orcamentos", h.Budgets, g.View)
	api.GET("/relatorios/resumo", h.Summary, g.View)
}

// period reads from/to, accepting de/ate as aliases.
func (h *Handler) period(c echo.Context) (tenant.ID, reporting.Period, error) {
	empresaID, err := tenant.Require(c)
	if err != nil {
		return 0, reporting.Period{}, err
	}
	from := c.QueryParam("from")
	if from == "" {
		from = c.QueryParam("de")
	}
	to := c.QueryParam("to")
	if to == "" {
		to = c.QueryParam("ate")
	}
	p, err := h.svc.Period(from, to)
	if err != nil {
		return 0, reporting.Period{}, err
	}
	return empresaID, p, nil
}

func (h *Handler) Financial(c echo.Context) error {
	empresaID, p, err := h.period(c)
	if err != nil {
		return err
	}
	out, err := h.svc.Financial(c.Request().Context(), empresaID, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Procedures(c echo.Context) error {
	empresaID, p, err := h.period(c)
	if err != nil {
		return err
	}
	out, err := h.svc.Procedures(c.Request().Context(), empresaID, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Occupancy(c echo.Context) error {
	empresaID, p, err := h.period(c)
	if err != nil {
		return err
	}
	out, err := h.svc.Occupancy(c.Request().Context(), empresaID, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Budgets(c echo.Context) error {
	empresaID, p, err := h.period(c)
	if err != nil {
		return err
	}
	out, err := h.svc.Budgets(c.Request().Context(), empresaID, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Summary(c echo.Context) error {
	empresaID, p, err := h.period(c)
	if err != nil {
		return err
	}
	out, err := h.svc.Summary(c.Request().Context(), empresaID, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// ExportFinancial buffers the workbook so that a failure still yields a JSON
// error instead of a truncated file.
func (h *Handler) ExportFinancial(c echo.Context) error {
	empresaID, p, err := h.period(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := h.svc.ExportFinancial(c.Request().Context(), &buf, empresaID, p); err != nil {
		return err
	}
	name := fmt.Sprintf("financeiro_%s_%s.xlsx", p.From.Format("2006-01-02"), p.To.Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
