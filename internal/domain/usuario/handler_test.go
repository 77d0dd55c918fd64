package usuario

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/auth"
	"github.com/odonto/odonto/internal/platform/tenant"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _, _ := newTestService()
	return NewHandler(svc), echo.New()
}

func withTenant(c echo.Context, id tenant.ID) {
	auth.Attach(c, &auth.Principal{ID: uuid.New(), EmpresaID: id, Cargo: auth.CargoAdmin, Ativo: true})
}

func TestHandler_Create(t *testing.T) {
	h, e := newTestHandler()

	body := `{"nome":"Carlos","email":"carlos@clinica.test","password":"segredo123","cargo":"recepcionista"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/usuarios", strings.NewReader(body))
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
	if strings.Contains(rec.Body.String(), "password_hash") || strings.Contains(rec.Body.String(), "$2a$") {
		t.Error("password hash must not be serialized")
	}
}

func TestHandler_Get_OtherTenant(t *testing.T) {
	h, e := newTestHandler()
	u, _ := h.svc.Create(context.Background(), 1, validInput())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(u.ID.String())
	withTenant(c, 2)

	if err := h.Get(c); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestHandler_List(t *testing.T) {
	h, e := newTestHandler()
	h.svc.Create(context.Background(), 1, validInput())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/usuarios", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	withTenant(c, 1)

	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["total"].(float64) != 1 {
		t.Errorf("expected total 1, got %v", resp["total"])
	}
}

func TestHandler_SetStatus_RequiresAtivo(t *testing.T) {
	h, e := newTestHandler()
	u, _ := h.svc.Create(context.Background(), 1, validInput())

	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(u.ID.String())
	withTenant(c, 1)

	if err := h.SetStatus(c); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestHandler_Delete_Self(t *testing.T) {
	h, e := newTestHandler()
	u, _ := h.svc.Create(context.Background(), 1, validInput())

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(u.ID.String())
	auth.Attach(c, u.Principal())

	if err := h.Delete(c); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestHandler_Delete(t *testing.T) {
	h, e := newTestHandler()
	u, _ := h.svc.Create(context.Background(), 1, validInput())

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(u.ID.String())
	withTenant(c, 1)

	if err := h.Delete(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestRoutes_MutationsRequireAdmin(t *testing.T) {
	h, e := newTestHandler()
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(zerolog.Nop())

	granted := &auth.Permissions{
		View: []string{auth.FeatureUsuarios},
		Edit: []string{auth.FeatureUsuarios},
	}
	tests := []struct {
		name  string
		cargo string
		want  int
	}{
		{"dentista with usuarios.edit", auth.CargoDentista, http.StatusForbidden},
		{"recepcionista with usuarios.edit", auth.CargoRecepcionista, http.StatusForbidden},
		{"admin", auth.CargoAdmin, http.StatusCreated},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cargo := tt.cargo
			api := e.Group("/api/v1/"+cargo, func(next echo.HandlerFunc) echo.HandlerFunc {
				return func(c echo.Context) error {
					auth.Attach(c, &auth.Principal{ID: uuid.New(), EmpresaID: 1, Cargo: cargo, Ativo: true, Permissoes: granted})
					return next(c)
				}
			})
			h.RegisterRoutes(api)

			body := `{"nome":"Carlos","email":"carlos` + string(rune('a'+i)) + `@clinica.test","password":"segredo123","cargo":"recepcionista"}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/"+cargo+"/usuarios", strings.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRoutes_ListOpenToUsuariosViewers(t *testing.T) {
	h, e := newTestHandler()
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(zerolog.Nop())
	api := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth.Attach(c, &auth.Principal{
				ID: uuid.New(), EmpresaID: 1, Cargo: auth.CargoDentista, Ativo: true,
				Permissoes: &auth.Permissions{View: []string{auth.FeatureUsuarios}},
			})
			return next(c)
		}
	})
	h.RegisterRoutes(api)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/usuarios", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
