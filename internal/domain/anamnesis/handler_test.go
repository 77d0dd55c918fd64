package anamnesis

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

func newTestHandler() (*Handler, ownerStub, *echo.Echo) {
	svc, _, owners := newTestService()
	return NewHandler(svc), owners, echo.New()
}

func withTenant(c echo.Context, id tenant.ID) {
	auth.Attach(c, &auth.Principal{ID: uuid.New(), EmpresaID: id, Cargo: auth.CargoAdmin, Ativo: true})
}

func TestHandler_Create(t *testing.T) {
	h, owners, e := newTestHandler()
	pid := owners.add(1)

	body := `{"paciente_id":"` + pid.String() + `","respostas":{"diabetes":"não","pressao_alta":true}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/anamneses", strings.NewReader(body))
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
	var a Anamnesis
	json.Unmarshal(rec.Body.Bytes(), &a)
	if a.Respostas["pressao_alta"] != true {
		t.Errorf("expected answers round trip, got %v", a.Respostas)
	}
}

func TestHandler_Create_ForeignPatient(t *testing.T) {
	h, owners, e := newTestHandler()
	pid := owners.add(1)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"paciente_id":"`+pid.String()+`"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	withTenant(c, 2)

	if err := h.Create(c); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestHandler_Get_InvalidID(t *testing.T) {
	h, _, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("nope")
	withTenant(c, 1)

	he, ok := h.Get(c).(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", he)
	}
}

func TestHandler_MissingTenant(t *testing.T) {
	h, _, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/anamneses", nil), httptest.NewRecorder())

	if err := h.List(c); err == nil || apperr.Message(err, "") != "empresa id not found" {
		t.Errorf("expected empresa id not found, got %v", err)
	}
}
