package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
	"github.com/odonto/odonto/pkg/civil"
)

type mockRepo struct {
	store map[tenant.ID]*Subscription
	locks int
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[tenant.ID]*Subscription)}
}

func (m *mockRepo) Get(_ context.Context, empresaID tenant.ID) (*Subscription, error) {
	s, ok := m.store[empresaID]
	if !ok {
		return nil, apperr.NotFound("subscription")
	}
	c := *s
	return &c, nil
}

func (m *mockRepo) Lock(ctx context.Context, empresaID tenant.ID) (*Subscription, error) {
	m.locks++
	return m.Get(ctx, empresaID)
}

func (m *mockRepo) Upsert(_ context.Context, s *Subscription) error {
	if existing, ok := m.store[s.EmpresaID]; ok {
		s.ID = existing.ID
		s.CreatedAt = existing.CreatedAt
	} else {
		s.ID = uuid.New()
		s.CreatedAt = time.Now()
	}
	s.UpdatedAt = time.Now()
	c := *s
	m.store[s.EmpresaID] = &c
	return nil
}

var testNow = time.Date(2026, 4, 15, 13, 30, 0, 0, time.UTC)

func newTestService(repo *mockRepo) *Service {
	s := NewService(repo, db.NoTx{}, zerolog.Nop())
	s.now = func() time.Time { return testNow }
	return s
}

func floatPtr(v float64) *float64 { return &v }

func TestUpsert_CreatesWithListPrice(t *testing.T) {
	repo := newMockRepo()
	s := newTestService(repo)

	sub, err := s.Upsert(context.Background(), 1, UpsertInput{Plano: " Profissional "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Plano != PlanoProfissional || sub.Status != StatusAtiva || sub.ValorMensal != 199.90 {
		t.Errorf("subscription = %+v", sub)
	}
	if sub.Inicio.String() != "2026-04-15" || !sub.Ativa {
		t.Errorf("inicio = %s, ativa = %v", sub.Inicio, sub.Ativa)
	}
	if repo.locks != 1 {
		t.Errorf("expected the row to be locked once, got %d", repo.locks)
	}
}

func TestUpsert_OnePerEmpresa(t *testing.T) {
	repo := newMockRepo()
	s := newTestService(repo)

	first, err := s.Upsert(context.Background(), 1, UpsertInput{Plano: PlanoBasico})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := s.Upsert(context.Background(), 1, UpsertInput{Plano: PlanoClinica, ValorMensal: floatPtr(350.556)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != second.ID {
		t.Error("plan change created a second subscription")
	}
	if second.ValorMensal != 350.56 {
		t.Errorf("ValorMensal = %v, want 350.56", second.ValorMensal)
	}
	if len(repo.store) != 1 {
		t.Errorf("expected 1 subscription, got %d", len(repo.store))
	}
}

func TestUpsert_Invalid(t *testing.T) {
	s := newTestService(newMockRepo())
	fim := civil.DateOf(testNow.AddDate(0, 0, -1))
	for name, in := range map[string]UpsertInput{
		"plano":      {Plano: "ouro"},
		"status":     {Plano: PlanoBasico, Status: "pausada"},
		"cancel":     {Plano: PlanoBasico, Status: StatusCancelada},
		"valor":      {Plano: PlanoBasico, ValorMensal: floatPtr(-1)},
		"fim before": {Plano: PlanoBasico, Fim: &fim},
	} {
		if _, err := s.Upsert(context.Background(), 1, in); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("%s: error = %v, want validation", name, err)
		}
	}
}

func TestCancel(t *testing.T) {
	repo := newMockRepo()
	s := newTestService(repo)
	if _, err := s.Upsert(context.Background(), 1, UpsertInput{Plano: PlanoBasico}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub, err := s.Cancel(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != StatusCancelada || sub.CanceladaEm == nil || sub.Fim == nil || sub.Fim.String() != "2026-04-15" {
		t.Errorf("cancelled = %+v", sub)
	}
	if _, err := s.Cancel(context.Background(), 1); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("second cancel error = %v, want conflict", err)
	}

	got, err := s.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Ativa {
		t.Error("cancelled subscription reported as active")
	}
}

func TestUpsert_ReactivatesCancelled(t *testing.T) {
	s := newTestService(newMockRepo())
	if _, err := s.Upsert(context.Background(), 1, UpsertInput{Plano: PlanoBasico}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Cancel(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub, err := s.Upsert(context.Background(), 1, UpsertInput{Plano: PlanoBasico})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != StatusAtiva || sub.CanceladaEm != nil || sub.Fim != nil || !sub.Ativa {
		t.Errorf("reactivated = %+v", sub)
	}
}

func TestGetAndCancel_TenantIsolation(t *testing.T) {
	s := newTestService(newMockRepo())
	if _, err := s.Upsert(context.Background(), 1, UpsertInput{Plano: PlanoBasico}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Get(context.Background(), 2); !apperr.IsNotFound(err) {
		t.Errorf("Get error = %v, want not found", err)
	}
	if _, err := s.Cancel(context.Background(), 2); !apperr.IsNotFound(err) {
		t.Errorf("Cancel error = %v, want not found", err)
	}
}

func TestActive(t *testing.T) {
	day := civil.DateOf(testNow)
	yesterday := day.AddDays(-1)
	tests := []struct {
		name string
		sub  *Subscription
		want bool
	}{
		{"nil", nil, false},
		{"ativa", &Subscription{Status: StatusAtiva}, true},
		{"trial ends today", &Subscription{Status: StatusTrial, Fim: &day}, true},
		{"expired", &Subscription{Status: StatusAtiva, Fim: &yesterday}, false},
		{"inadimplente", &Subscription{Status: StatusInadimplente}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sub.Active(day); got != tt.want {
				t.Errorf("Active() = %v, want %v", got, tt.want)
			}
		})
	}
}
