package subscription

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/odonto/odonto/internal/platform/auth"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := auth.For(auth.FeatureAssinatura)
	api.GET("/assinatura", h.Get, g.View)
	api.PUT("/assinatura", h.Upsert, g.Edit)
	api.POST("/assinatura/cancelar", h.Cancel, g.Edit)
}

func (h *Handler) Get(c echo.Context) error {
	empresaID, err := tenant.Require(c)
	if err != nil {
		return err
	}
	sub, err := h.svc.Get(c.Request().Context(), empresaID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *Handler) Upsert(c echo.Context) error {
	empresaID, err := tenant.Require(c)
	if err != nil {
		return err
	}
	var in UpsertInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sub, err := h.svc.Upsert(c.Request().Context(), empresaID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *Handler) Cancel(c echo.Context) error {
	empresaID, err := tenant.Require(c)
	if err != nil {
		return err
	}
	sub, err := h.svc.Cancel(c.Request().Context(), empresaID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}
