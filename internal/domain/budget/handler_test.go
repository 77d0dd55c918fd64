package budget

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/auth"
	"github.com/odonto/odonto/internal/platform/tenant"
)

func newTestHandler() (*Handler, *fixture, *echo.Echo) {
	f := newFixture()
	return NewHandler(f.svc), f, echo.New()
}

func withTenant(c echo.Context, id tenant.ID) {
	auth.Attach(c, &auth.Principal{ID: uuid.New(), EmpresaID: id, Cargo: auth.CargoAdmin, Ativo: true})
}

func TestHandler_Create(t *testing.T) {
	h, f, e := newTestHandler()
	pid := f.patient(1)

	body := `{"paciente_id":"` + pid.String() + `","validade":"2026-04-30","itens":[{"descricao":"Clareamento","valor_unitario":600}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orcamentos", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	withTenant(c, 1)

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["valor_total"].(float64) != 600 || resp["validade"] != "2026-04-30" {
		t.Errorf("unexpected response: %v", resp)
	}
}

func TestHandler_Get_CrossTenant(t *testing.T) {
	h, f, e := newTestHandler()
	pid := f.patient(1)
	b := &Budget{PacienteID: pid, Itens: []*Item{{Descricao: "a"}}}
	f.svc.Create(context.Background(), 1, b)

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(b.ID.String())
	withTenant(c, 2)

	if err := h.Get(c); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestHandler_Delete(t *testing.T) {
	h, f, e := newTestHandler()
	pid := f.patient(1)
	b := &Budget{PacienteID: pid, Itens: []*Item{{Descricao: "a"}}}
	f.svc.Create(context.Background(), 1, b)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(b.ID.String())
	withTenant(c, 1)

	if err := h.Delete(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if len(f.repo.items[b.ID]) != 0 {
		t.Error("expected items to be removed")
	}
}
