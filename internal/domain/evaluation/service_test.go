package evaluation

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
	"github.com/odonto/odonto/pkg/civil"
)

type mockRepo struct {
	store map[uuid.UUID]*Evaluation
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[uuid.UUID]*Evaluation)}
}

func (m *mockRepo) Create(_ context.Context, x *Evaluation) error {
	x.ID = uuid.New()
	x.CreatedAt = time.Now()
	x.UpdatedAt = x.CreatedAt
	c := *x
	m.store[x.ID] = &c
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID, empresaID tenant.ID) (*Evaluation, error) {
	x, ok := m.store[id]
	if !ok || x.EmpresaID != empresaID {
		return nil, apperr.NotFound("evaluation")
	}
	c := *x
	return &c, nil
}

func (m *mockRepo) Update(_ context.Context, x *Evaluation) error {
	existing, ok := m.store[x.ID]
	if !ok || existing.EmpresaID != x.EmpresaID {
		return apperr.NotFound("evaluation")
	}
	c := *x
	m.store[x.ID] = &c
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID, empresaID tenant.ID) error {
	x, ok := m.store[id]
	if !ok || x.EmpresaID != empresaID {
		return apperr.NotFound("evaluation")
	}
	delete(m.store, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, empresaID tenant.ID, _ map[string]string, limit, offset int) ([]*Evaluation, int, error) {
	all := []*Evaluation{}
	for _, x := range m.store {
		if x.EmpresaID == empresaID {
			all = append(all, x)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

type ownerStub map[uuid.UUID]tenant.ID

func (o ownerStub) PatientEmpresa(_ context.Context, id uuid.UUID) (tenant.ID, error) {
	e, ok := o[id]
	if !ok {
		return 0, apperr.NotFound("patient")
	}
	return e, nil
}

func newTestService() (*Service, *mockRepo, ownerStub) {
	repo := newMockRepo()
	owners := ownerStub{}
	svc := NewService(repo, owners, db.NoTx{})
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC) }
	return svc, repo, owners
}

func (o ownerStub) add(empresaID tenant.ID) uuid.UUID {
	id := uuid.New()
	o[id] = empresaID
	return id
}

func TestValidTooth(t *testing.T) {
	cases := map[string]bool{
		"11": true, "18": true, "48": true, "51": true, "85": true,
		"10": false, "19": false, "49": false, "56": false, "91": false, "1": false, "111": false,
	}
	for n, want := range cases {
		if got := ValidTooth(n); got != want {
			t.Errorf("ValidTooth(%q) = %v, want %v", n, got, want)
		}
	}
}

func TestService_Create_Defaults(t *testing.T) {
	svc, _, owners := newTestService()
	pid := owners.add(1)

	e := &Evaluation{PacienteID: pid}
	if err := svc.Create(context.Background(), 1, e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Data.String() != "2026-03-10" {
		t.Errorf("expected today's date, got %s", e.Data)
	}
	if e.Odontograma == nil || len(e.Odontograma) != 0 {
		t.Errorf("expected empty odontogram, got %v", e.Odontograma)
	}
}

func TestService_Create_NormalizesFaces(t *testing.T) {
	svc, _, owners := newTestService()
	pid := owners.add(1)
	data, _ := civil.Parse("2026-02-01")

	e := &Evaluation{PacienteID: pid, Data: data, Odontograma: Odontogram{
		"36": {Condicoes: []string{"carie"}, Faces: []string{" o", "m"}},
	}}
	if err := svc.Create(context.Background(), 1, e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f := e.Odontograma["36"].Faces; f[0] != "O" || f[1] != "M" {
		t.Errorf("expected normalized faces, got %v", f)
	}
	if e.Data != data {
		t.Errorf("explicit date should be kept, got %s", e.Data)
	}
}

func TestService_Create_Invalid(t *testing.T) {
	svc, _, owners := newTestService()
	pid := owners.add(1)

	tests := []struct {
		name string
		odo  Odontogram
	}{
		{"bad tooth", Odontogram{"19": {}}},
		{"bad face", Odontogram{"21": {Faces: []string{"X"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Create(context.Background(), 1, &Evaluation{PacienteID: pid, Odontograma: tt.odo})
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_CrossTenant(t *testing.T) {
	svc, _, owners := newTestService()
	pid := owners.add(1)
	e := &Evaluation{PacienteID: pid}
	svc.Create(context.Background(), 1, e)

	if _, err := svc.Get(context.Background(), e.ID, 2); !apperr.IsNotFound(err) {
		t.Errorf("expected not found on get, got %v", err)
	}
	if _, err := svc.Update(context.Background(), e.ID, 2, &Evaluation{}); !apperr.IsNotFound(err) {
		t.Errorf("expected not found on update, got %v", err)
	}
	if err := svc.Delete(context.Background(), e.ID, 2); !apperr.IsNotFound(err) {
		t.Errorf("expected not found on delete, got %v", err)
	}
}

func TestService_Update_PatientMustBelongToTenant(t *testing.T) {
	svc, _, owners := newTestService()
	pid := owners.add(1)
	e := &Evaluation{PacienteID: pid}
	svc.Create(context.Background(), 1, e)

	foreign := owners.add(2)
	if _, err := svc.Update(context.Background(), e.ID, 1, &Evaluation{PacienteID: foreign}); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for foreign patient, got %v", err)
	}
	got, _ := svc.Get(context.Background(), e.ID, 1)
	if got.PacienteID != pid {
		t.Error("patient should not have changed")
	}
}
