package report

import (
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

func withTenant(c echo.Context, id tenant.ID) {
	auth.Attach(c, &auth.Principal{ID: uuid.New(), EmpresaID: id, Cargo: auth.CargoAdmin, Ativo: true})
}

func TestHandler_Financial(t *testing.T) {
	repo := newMockRepo()
	repo.payments[1] = []PaymentRow{{Valor: 80, Metodo: "pix"}}
	h := NewHandler(newTestService(repo, nil))
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/relatorios/financeiro?de=2026-03-01&ate=2026-03-31", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	withTenant(c, 1)

	if err := h.Financial(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["total"] != 80.0 {
		t.Errorf("total = %v", body["total"])
	}
	periodo := body["periodo"].(map[string]interface{})
	if !strings.HasPrefix(periodo["ate"].(string), "2026-03-31") {
		t.Errorf("periodo = %v", periodo)
	}
}

func TestHandler_InvalidPeriod(t *testing.T) {
	h := NewHandler(newTestService(newMockRepo(), nil))
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/relatorios/orcamentos?from=ontem", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	withTenant(c, 1)

	err := h.Budgets(c)
	if apperr.Status(err) != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 (err %v)", apperr.Status(err), err)
	}
}

func TestHandler_Export(t *testing.T) {
	repo := newMockRepo()
	repo.payments[1] = []PaymentRow{{Valor: 80, Metodo: "pix"}}
	h := NewHandler(newTestService(repo, nil))
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/relatorios/financeiro/export?from=2026-03-01&to=2026-03-31", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	withTenant(c, 1)

	if err := h.ExportFinancial(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != xlsxContentType {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "financeiro_2026-03-01_2026-03-31.xlsx") {
		t.Errorf("disposition = %q", cd)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty body")
	}
}

func TestHandler_MissingTenant(t *testing.T) {
	h := NewHandler(newTestService(newMockRepo(), nil))
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/relatorios/resumo", nil), httptest.NewRecorder())

	err := h.Summary(c)
	if err == nil || !strings.Contains(apperr.Message(err, ""), "empresa id not found") {
		t.Errorf("error = %v", err)
	}
}
