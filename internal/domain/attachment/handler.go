package attachment

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/odonto/odonto/internal/platform/auth"
	"github.com/odonto/odonto/internal/platform/blobstore"
	"github.com/odonto/odonto/internal/platform/tenant"
	"github.com/odonto/odonto/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := auth.For(auth.FeatureArquivos)
	api.GET("/arquivos", h.List, g.View)
	api.GET("/arquivos/:id", h.Get, g.View)
	api.GET("/arquivos/:id/conteudo", h.Download, g.View)
	api.POST("/arquivos", h.Upload, g.Edit)
	api.DELETE("/arquivos/:id", h.Delete, g.Delete)
}

// Upload accepts multipart/form-data with the file under "arquivo" (or
// "file") plus paciente_id and an optional descricao.
func (h *Handler) Upload(c echo.Context) error {
	empresaID, err := tenant.Require(c)
	if err != nil {
		return err
	}
	pacienteID, err := uuid.Parse(c.FormValue("paciente_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid paciente_id")
	}
	file, err := c.FormFile("arquivo")
	if err != nil {
		if file, err = c.FormFile("file"); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "file is required")
		}
	}
	if file.Size > blobstore.MaxFileSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, blobstore.ErrFileTooLarge.Error())
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	in := UploadInput{
		PacienteID: pacienteID,
		Nome:       file.Filename,
		Tipo:       contentType(file.Header.Get(echo.HeaderContentType), file.Filename),
		Body:       src,
	}
	if d := strings.TrimSpace(c.FormValue("descricao")); d != "" {
		in.Descricao = &d
	}

	a, err := h.svc.Upload(c.Request().Context(), empresaID, in)
	if errors.Is(err, blobstore.ErrFileTooLarge) {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	empresaID, err := tenant.Require(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id, empresaID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Download(c echo.Context) error {
	empresaID, err := tenant.Require(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, rc, err := h.svc.Open(c.Request().Context(), id, empresaID)
	if err != nil {
		return err
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, mime.FormatMediaType("inline", map[string]string{"filename": a.Nome}))
	c.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(a.Tamanho, 10))
	c.Response().Header().Set("X-Content-SHA256", a.SHA256)
	c.Response().Header().Set(echo.HeaderContentType, a.Tipo)
	c.Response().WriteHeader(http.StatusOK)
	_, err = io.Copy(c.Response(), rc)
	return err
}

func (h *Handler) List(c echo.Context) error {
	empresaID, err := tenant.Require(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), empresaID, pagination.Filters(c), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Delete(c echo.Context) error {
	empresaID, err := tenant.Require(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id, empresaID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// contentType prefers the part header and falls back to the file extension.
func contentType(header, name string) string {
	if header != "" && header != "application/octet-stream" {
		return header
	}
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
