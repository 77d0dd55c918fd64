package empresa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/auth"
	"github.com/odonto/odonto/internal/platform/tenant"
)

func newTestHandler() (*Handler, *echo.Echo) {
	return NewHandler(newTestService()), echo.New()
}

func withTenant(c echo.Context, id tenant.ID) {
	auth.Attach(c, &auth.Principal{EmpresaID: id, Cargo: auth.CargoAdmin, Ativo: true})
}

func TestHandler_GetMine(t *testing.T) {
	h, e := newTestHandler()
	emp := &Empresa{Nome: "Clínica"}
	h.svc.Create(context.Background(), emp)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/empresas/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	withTenant(c, emp.ID)

	if err := h.GetMine(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var got Empresa
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Nome != "Clínica" {
		t.Errorf("expected Clínica, got %s", got.Nome)
	}
}

func TestHandler_GetMine_NoTenant(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/empresas/me", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.GetMine(c)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestHandler_UpdateMine(t *testing.T) {
	h, e := newTestHandler()
	emp := &Empresa{Nome: "Clínica"}
	h.svc.Create(context.Background(), emp)

	body := `{"nome":"Clínica Nova","email":"contato@clinica.test"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/empresas/me", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	withTenant(c, emp.ID)

	if err := h.UpdateMine(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	stored, _ := h.svc.Get(context.Background(), emp.ID)
	if stored.Nome != "Clínica Nova" || stored.Email == nil {
		t.Errorf("update not persisted: %+v", stored)
	}
}
