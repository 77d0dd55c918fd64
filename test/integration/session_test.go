//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/odonto/odonto/internal/domain/appointment"
	"github.com/odonto/odonto/internal/domain/report"
	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/auth"
	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

// sessionServer mounts the handlers behind the per-request pinned connection
// the way the server does.
func sessionServer(s *services, empresaID tenant.ID) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(zerolog.Nop())
	api := e.Group("/api/v1",
		func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				auth.Attach(c, &auth.Principal{ID: uuid.New(), EmpresaID: empresaID, Cargo: auth.CargoAdmin, Ativo: true})
				return next(c)
			}
		},
		db.TenantSession(pool, zerolog.Nop()),
	)
	report.NewHandler(s.reports).RegisterRoutes(api)
	appointment.NewHandler(s.appointments).RegisterRoutes(api)
	return e
}

func TestTenantSession_FanOutSharesPinnedConnection(t *testing.T) {
	s := newServices()
	ctx := context.Background()
	a := s.newEmpresa(t)

	const patients = 30
	start := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
	for i := 0; i < patients; i++ {
		p := s.newPatient(t, a, fmt.Sprintf("Paciente %02d", i))
		appt := &appointment.Appointment{
			PacienteID: p.ID,
			DataHora:   start.Add(time.Duration(i) * time.Hour),
		}
		if err := s.appointments.Create(ctx, a, appt); err != nil {
			t.Fatalf("create appointment %d: %v", i, err)
		}
	}

	e := sessionServer(s, a)
	get := func(t *testing.T, path string, out interface{}) {
		t.Helper()
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d: %s", path, rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("GET %s: decode: %v", path, err)
		}
	}

	t.Run("resumo", func(t *testing.T) {
		var out report.Summary
		get(t, "/api/v1/relatorios/resumo?from=2024-06-01&to=2024-06-30", &out)
		if out.Financeiro == nil || out.Procedimentos == nil || out.Ocupacao == nil || out.Orcamentos == nil {
			t.Fatalf("expected every section, got %+v", out)
		}
	})

	t.Run("ocupacao", func(t *testing.T) {
		var out report.Occupancy
		get(t, "/api/v1/relatorios/ocupacao?from=2024-06-01&to=2024-06-30", &out)
		consultas := 0
		for _, l := range out.Profissionais {
			consultas += l.Consultas
		}
		if consultas != patients {
			t.Errorf("expected %d consultas, got %d", patients, consultas)
		}
	})

	t.Run("agendamentos", func(t *testing.T) {
		var out struct {
			Data  []appointment.Appointment `json:"data"`
			Total int                       `json:"total"`
		}
		get(t, "/api/v1/agendamentos?limit=50", &out)
		if out.Total != patients || len(out.Data) != patients {
			t.Fatalf("expected %d appointments, got total=%d len=%d", patients, out.Total, len(out.Data))
		}
		for _, appt := range out.Data {
			if appt.PacienteNome == "" {
				t.Errorf("appointment %s has no paciente_nome", appt.ID)
			}
		}
	})

	// The pinned connection goes back to the pool with the tenant setting reset.
	var setting string
	if err := pool.QueryRow(ctx, `SELECT COALESCE(current_setting('app.empresa_id', true), '')`).Scan(&setting); err != nil {
		t.Fatalf("read setting: %v", err)
	}
	if setting != "" {
		t.Errorf("expected app.empresa_id reset, got %q", setting)
	}
}
