package chatbot

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/odonto/odonto/internal/platform/auth"
	"github.com/odonto/odonto/internal/platform/tenant"
	"github.com/odonto/odonto/internal/platform/webhook"
	"github.com/odonto/odonto/pkg/pagination"
)

const maxWebhookBody = 1 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := auth.For(auth.FeatureChatbot)
	api.GET("/chatbot/config", h.GetConfig, g.View)
	api.PUT("/chatbot/config", h.UpdateConfig, g.Edit)
	api.GET("/chatbot/mensagens", h.ListMessages, g.View)
	api.POST("/chatbot/mensagens", h.Send, g.Edit)
	api.POST("/chatbot/testar", h.Test, g.Edit)
}

// RegisterWebhook mounts the inbound webhook. It is authenticated by
// signature; its path is listed in auth's public paths.
func (h *Handler) RegisterWebhook(public *echo.Group) {
	public.POST("/chatbot/webhook", h.Webhook)
}

func (h *Handler) GetConfig(c echo.Context) error {
	empresaID, err := tenant.Require(c)
	if err != nil {
		return err
	}
	cfg, err := h.svc.GetConfig(c.Request().Context(), empresaID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}

func (h *Handler) UpdateConfig(c echo.Context) error {
	empresaID, err := tenant.Require(c)
	if err != nil {
		return err
	}
	var in ConfigInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cfg, err := h.svc.UpdateConfig(c.Request().Context(), empresaID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}

func (h *Handler) Send(c echo.Context) error {
	empresaID, err := tenant.Require(c)
	if err != nil {
		return err
	}
	var in SendInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.svc.Send(c.Request().Context(), empresaID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) ListMessages(c echo.Context) error {
	empresaID, err := tenant.Require(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListMessages(c.Request().Context(), empresaID, pagination.Filters(c), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Test(c echo.Context) error {
	empresaID, err := tenant.Require(c)
	if err != nil {
		return err
	}
	res, err := h.svc.Test(c.Request().Context(), empresaID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Webhook reads the raw body because the signature covers the exact bytes.
func (h *Handler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	if len(body) > maxWebhookBody {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "payload too large")
	}
	m, err := h.svc.Receive(c.Request().Context(), body, c.Request().Header.Get(webhook.SignatureHeader))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, m)
}
