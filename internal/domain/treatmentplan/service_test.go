package treatmentplan

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/odonto/internal/domain/budget"
	"github.com/odonto/odonto/internal/domain/notification"
	"github.com/odonto/odonto/internal/domain/procedure"
	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/db"
	templates "github.com/odonto/odonto/internal/platform/notification"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type mockRepo struct {
	plans    map[uuid.UUID]*Plan
	items    map[uuid.UUID]*Item
	sessions map[uuid.UUID]*Session
	seq      int
	locks    int
}

func newMockRepo() *mockRepo {
	return &mockRepo{plans: map[uuid.UUID]*Plan{}, items: map[uuid.UUID]*Item{}, sessions: map[uuid.UUID]*Session{}}
}

func (m *mockRepo) tick() time.Time {
	m.seq++
	return time.Date(2026, 1, 1, 0, 0, m.seq, 0, time.UTC)
}

func (m *mockRepo) Create(_ context.Context, p *Plan) error {
	p.ID = uuid.New()
	p.CreatedAt = m.tick()
	c := *p
	c.Itens = nil
	m.plans[p.ID] = &c
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID, empresaID tenant.ID) (*Plan, error) {
	p, ok := m.plans[id]
	if !ok || p.EmpresaID != empresaID {
		return nil, apperr.NotFound("treatment plan")
	}
	c := *p
	return &c, nil
}

func (m *mockRepo) Update(_ context.Context, p *Plan) error {
	existing, ok := m.plans[p.ID]
	if !ok || existing.EmpresaID != p.EmpresaID {
		return apperr.NotFound("treatment plan")
	}
	existing.Titulo, existing.Descricao, existing.Status = p.Titulo, p.Descricao, p.Status
	existing.DentistaID, existing.OrcamentoID = p.DentistaID, p.OrcamentoID
	return nil
}

func (m *mockRepo) UpdateProgress(_ context.Context, p *Plan) error {
	existing, ok := m.plans[p.ID]
	if !ok || existing.EmpresaID != p.EmpresaID {
		return apperr.NotFound("treatment plan")
	}
	existing.Progresso, existing.Status = p.Progresso, p.Status
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID, empresaID tenant.ID) error {
	p, ok := m.plans[id]
	if !ok || p.EmpresaID != empresaID {
		return apperr.NotFound("treatment plan")
	}
	delete(m.plans, id)
	for iid, it := range m.items {
		if it.PlanoID != id {
			continue
		}
		delete(m.items, iid)
		for sid, s := range m.sessions {
			if s.ItemID == iid {
				delete(m.sessions, sid)
			}
		}
	}
	return nil
}

func (m *mockRepo) List(_ context.Context, empresaID tenant.ID, _ map[string]string, limit, offset int) ([]*Plan, int, error) {
	all := []*Plan{}
	for _, p := range m.plans {
		if p.EmpresaID == empresaID {
			all = append(all, p)
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

func (m *mockRepo) LockPlan(_ context.Context, id uuid.UUID) error {
	if _, ok := m.plans[id]; !ok {
		return apperr.NotFound("treatment plan")
	}
	m.locks++
	return nil
}

func (m *mockRepo) AddItem(_ context.Context, it *Item) error {
	it.ID = uuid.New()
	it.CreatedAt = m.tick()
	c := *it
	c.Sessoes = nil
	m.items[it.ID] = &c
	return nil
}

func (m *mockRepo) GetItem(_ context.Context, id uuid.UUID, empresaID tenant.ID) (*Item, error) {
	it, ok := m.items[id]
	if !ok || m.plans[it.PlanoID] == nil || m.plans[it.PlanoID].EmpresaID != empresaID {
		return nil, apperr.NotFound("treatment item")
	}
	c := *it
	return &c, nil
}

func (m *mockRepo) Items(_ context.Context, planoID uuid.UUID) ([]*Item, error) {
	out := []*Item{}
	for _, it := range m.items {
		if it.PlanoID == planoID {
			c := *it
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockRepo) UpdateItemStatus(_ context.Context, it *Item) error {
	existing, ok := m.items[it.ID]
	if !ok {
		return apperr.NotFound("treatment item")
	}
	existing.Status = it.Status
	return nil
}

func (m *mockRepo) AddSessions(_ context.Context, sessions []*Session) error {
	for _, s := range sessions {
		s.ID = uuid.New()
		c := *s
		m.sessions[s.ID] = &c
	}
	return nil
}

func (m *mockRepo) Sessions(_ context.Context, planoID uuid.UUID) ([]*Session, error) {
	out := []*Session{}
	for _, s := range m.sessions {
		if it, ok := m.items[s.ItemID]; ok && it.PlanoID == planoID {
			c := *s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemID != out[j].ItemID {
			return out[i].ItemID.String() < out[j].ItemID.String()
		}
		return out[i].Numero < out[j].Numero
	})
	return out, nil
}

func (m *mockRepo) CompleteSession(_ context.Context, s *Session) error {
	existing, ok := m.sessions[s.ID]
	if !ok || existing.ItemID != s.ItemID {
		return apperr.NotFound("treatment session")
	}
	existing.ConcluidaEm = s.ConcluidaEm
	if s.Observacoes != nil {
		existing.Observacoes = s.Observacoes
	}
	return nil
}

type ownerStub map[uuid.UUID]tenant.ID

func (o ownerStub) PatientEmpresa(_ context.Context, id uuid.UUID) (tenant.ID, error) {
	e, ok := o[id]
	if !ok {
		return 0, apperr.NotFound("patient")
	}
	return e, nil
}

type procedureStub map[uuid.UUID]*procedure.Procedure

func (p procedureStub) Get(_ context.Context, id uuid.UUID, empresaID tenant.ID) (*procedure.Procedure, error) {
	x, ok := p[id]
	if !ok || x.EmpresaID != empresaID {
		return nil, apperr.NotFound("procedure")
	}
	return x, nil
}

type budgetStub map[uuid.UUID]*budget.Budget

func (b budgetStub) Get(_ context.Context, id uuid.UUID, empresaID tenant.ID) (*budget.Budget, error) {
	x, ok := b[id]
	if !ok || x.EmpresaID != empresaID {
		return nil, apperr.NotFound("budget")
	}
	return x, nil
}

type notifierStub struct {
	requests []notification.Request
}

func (n *notifierStub) Notify(_ context.Context, r notification.Request) (*notification.Notification, error) {
	n.requests = append(n.requests, r)
	return &notification.Notification{ID: uuid.New(), EmpresaID: r.EmpresaID, Tipo: r.Template}, nil
}

type fixture struct {
	svc        *Service
	repo       *mockRepo
	owners     ownerStub
	procedures procedureStub
	budgets    budgetStub
	notifier   *notifierStub
}

func newFixture() *fixture {
	f := &fixture{repo: newMockRepo(), owners: ownerStub{}, procedures: procedureStub{}, budgets: budgetStub{}, notifier: &notifierStub{}}
	f.svc = NewService(f.repo, f.owners, f.procedures, f.budgets, f.notifier, db.NoTx{}, zerolog.Nop())
	f.svc.now = func() time.Time { return time.Date(2026, 2, 20, 15, 30, 0, 0, time.UTC) }
	return f
}

func (f *fixture) patient(empresaID tenant.ID) uuid.UUID {
	id := uuid.New()
	f.owners[id] = empresaID
	return id
}

// plan creates a plan with one item per entry in sessions, each with that
// many sessions.
func (f *fixture) plan(t *testing.T, empresaID tenant.ID, sessions ...int) *Plan {
	t.Helper()
	p := &Plan{PacienteID: f.patient(empresaID), Titulo: "Reabilitação"}
	for i, n := range sessions {
		p.Itens = append(p.Itens, &Item{Descricao: "item " + string(rune('A'+i)), TotalSessoes: n})
	}
	if err := f.svc.Create(context.Background(), empresaID, p); err != nil {
		t.Fatalf("create plan: %v", err)
	}
	return p
}

func TestProgress(t *testing.T) {
	item := func(status string) *Item { return &Item{Status: status} }
	tests := []struct {
		name  string
		items []*Item
		want  int
	}{
		{"no items", nil, 0},
		{"none done", []*Item{item(ItemPendente), item(ItemEmAndamento)}, 0},
		{"one of three", []*Item{item(ItemConcluido), item(ItemPendente), item(ItemPendente)}, 33},
		{"two of three", []*Item{item(ItemConcluido), item(ItemConcluido), item(ItemPendente)}, 67},
		{"all done", []*Item{item(ItemConcluido), item(ItemConcluido)}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Progress(tt.items); got != tt.want {
				t.Errorf("Progress = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestService_Create(t *testing.T) {
	f := newFixture()
	proc := uuid.New()
	f.procedures[proc] = &procedure.Procedure{ID: proc, EmpresaID: 1, Nome: "Canal molar"}

	p := &Plan{PacienteID: f.patient(1), Titulo: " Endodontia ", Status: StatusConcluido, Itens: []*Item{
		{ProcedimentoID: &proc, TotalSessoes: 3},
		{Descricao: "Coroa provisória"},
	}}
	if err := f.svc.Create(context.Background(), 1, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Titulo != "Endodontia" || p.Status != StatusEmAndamento || p.Progresso != 0 {
		t.Errorf("unexpected plan: %+v", p)
	}
	if p.Itens[0].Descricao != "Canal molar" || len(p.Itens[0].Sessoes) != 3 || p.Itens[0].Sessoes[2].Numero != 3 {
		t.Errorf("unexpected first item: %+v", p.Itens[0])
	}
	if len(p.Itens[1].Sessoes) != 1 {
		t.Errorf("expected one default session, got %d", len(p.Itens[1].Sessoes))
	}
	if len(f.repo.sessions) != 4 {
		t.Errorf("expected 4 stored sessions, got %d", len(f.repo.sessions))
	}
}

func TestService_Create_Invalid(t *testing.T) {
	f := newFixture()
	pid := f.patient(1)
	foreignProc := uuid.New()
	f.procedures[foreignProc] = &procedure.Procedure{ID: foreignProc, EmpresaID: 2, Nome: "x"}

	if err := f.svc.Create(context.Background(), 1, &Plan{PacienteID: pid}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for missing titulo, got %v", err)
	}
	if err := f.svc.Create(context.Background(), 1, &Plan{PacienteID: pid, Titulo: "x", Itens: []*Item{{}}}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for item without description, got %v", err)
	}
	if err := f.svc.Create(context.Background(), 1, &Plan{PacienteID: pid, Titulo: "x", Itens: []*Item{{Descricao: "y", TotalSessoes: 51}}}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for too many sessions, got %v", err)
	}
	if err := f.svc.Create(context.Background(), 1, &Plan{PacienteID: pid, Titulo: "x", Itens: []*Item{{ProcedimentoID: &foreignProc}}}); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for another tenant's procedure, got %v", err)
	}
	if err := f.svc.Create(context.Background(), 1, &Plan{PacienteID: f.patient(2), Titulo: "x"}); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for foreign patient, got %v", err)
	}
	if len(f.repo.plans) != 0 {
		t.Error("nothing should be stored")
	}
}

func TestService_CompleteSession_CompletesItemAndPlan(t *testing.T) {
	f := newFixture()
	p := f.plan(t, 1, 2, 1)
	first, second := p.Itens[0], p.Itens[1]

	got, err := f.svc.CompleteSession(context.Background(), 1, first.ID, first.Sessoes[0].ID, CompleteInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Itens[0].Status != ItemEmAndamento || got.Progresso != 0 {
		t.Errorf("after one of two sessions: item %q progress %d", got.Itens[0].Status, got.Progresso)
	}
	if got.Itens[0].Sessoes[0].ConcluidaEm == nil {
		t.Error("session should be stamped")
	}

	got, _ = f.svc.CompleteSession(context.Background(), 1, first.ID, first.Sessoes[1].ID, CompleteInput{})
	if got.Itens[0].Status != ItemConcluido || got.Progresso != 50 || got.Status != StatusEmAndamento {
		t.Errorf("after first item: item %q progress %d status %q", got.Itens[0].Status, got.Progresso, got.Status)
	}
	if len(f.notifier.requests) != 0 {
		t.Error("plan not concluded yet")
	}

	note := "sem dor"
	got, _ = f.svc.CompleteSession(context.Background(), 1, second.ID, second.Sessoes[0].ID, CompleteInput{Observacoes: &note})
	if got.Progresso != 100 || got.Status != StatusConcluido {
		t.Errorf("expected concluded plan, got progress %d status %q", got.Progresso, got.Status)
	}
	if len(f.notifier.requests) != 1 || f.notifier.requests[0].Template != templates.TemplatePlanoConcluido {
		t.Fatalf("expected plan concluded notification, got %+v", f.notifier.requests)
	}
	if f.notifier.requests[0].Data["plano"] != "Reabilitação" {
		t.Errorf("unexpected notification data %v", f.notifier.requests[0].Data)
	}
	if f.repo.locks != 3 {
		t.Errorf("expected plan locked on every completion, got %d", f.repo.locks)
	}
}

func TestService_CompleteSession_Idempotent(t *testing.T) {
	f := newFixture()
	p := f.plan(t, 1, 1)
	it := p.Itens[0]

	f.svc.CompleteSession(context.Background(), 1, it.ID, it.Sessoes[0].ID, CompleteInput{})
	got, err := f.svc.CompleteSession(context.Background(), 1, it.ID, it.Sessoes[0].ID, CompleteInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Progresso != 100 || len(f.notifier.requests) != 1 {
		t.Errorf("repeat completion changed state: progress %d, %d notifications", got.Progresso, len(f.notifier.requests))
	}
}

func TestService_CompleteSession_NotFound(t *testing.T) {
	f := newFixture()
	p := f.plan(t, 1, 1, 1)
	a, b := p.Itens[0], p.Itens[1]

	if _, err := f.svc.CompleteSession(context.Background(), 2, a.ID, a.Sessoes[0].ID, CompleteInput{}); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for other tenant, got %v", err)
	}
	if _, err := f.svc.CompleteSession(context.Background(), 1, a.ID, b.Sessoes[0].ID, CompleteInput{}); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for session of another item, got %v", err)
	}
	if _, err := f.svc.CompleteSession(context.Background(), 1, uuid.New(), a.Sessoes[0].ID, CompleteInput{}); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for unknown item, got %v", err)
	}
}

func TestService_AddItem_ReopensPlan(t *testing.T) {
	f := newFixture()
	p := f.plan(t, 1, 1)
	it := p.Itens[0]
	f.svc.CompleteSession(context.Background(), 1, it.ID, it.Sessoes[0].ID, CompleteInput{})

	got, err := f.svc.AddItem(context.Background(), p.ID, 1, &Item{Descricao: "Clareamento", TotalSessoes: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Progresso != 50 || got.Status != StatusEmAndamento || len(got.Itens) != 2 {
		t.Errorf("expected reopened plan at 50%%, got %d %q with %d items", got.Progresso, got.Status, len(got.Itens))
	}
	if _, err := f.svc.AddItem(context.Background(), p.ID, 2, &Item{Descricao: "x"}); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for other tenant, got %v", err)
	}
}

func TestService_Update(t *testing.T) {
	f := newFixture()
	p := f.plan(t, 1, 1)

	if _, err := f.svc.Update(context.Background(), p.ID, 1, &Plan{Titulo: "x", Status: StatusConcluido}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error concluding an incomplete plan, got %v", err)
	}
	got, err := f.svc.Update(context.Background(), p.ID, 1, &Plan{Titulo: "Novo título", Status: StatusCancelado})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Titulo != "Novo título" || got.Status != StatusCancelado {
		t.Errorf("unexpected update: %+v", got)
	}
	it := p.Itens[0]
	if _, err := f.svc.CompleteSession(context.Background(), 1, it.ID, it.Sessoes[0].ID, CompleteInput{}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error on cancelled plan, got %v", err)
	}
}

func TestService_Update_CompletedPlanStaysConcluded(t *testing.T) {
	f := newFixture()
	p := f.plan(t, 1, 1)
	it := p.Itens[0]
	if _, err := f.svc.CompleteSession(context.Background(), 1, it.ID, it.Sessoes[0].ID, CompleteInput{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.svc.Update(context.Background(), p.ID, 1, &Plan{Titulo: "x", Status: StatusEmAndamento})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error reopening a complete plan, got %v", err)
	}
	got, err := f.svc.Get(context.Background(), p.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusConcluido || got.Progresso != 100 {
		t.Errorf("plan changed: %q at %d%%", got.Status, got.Progresso)
	}
	if _, err := f.svc.Update(context.Background(), p.ID, 1, &Plan{Titulo: "Renomeado", Status: StatusConcluido}); err != nil {
		t.Errorf("keeping a complete plan concluded should succeed, got %v", err)
	}
}

func TestService_BudgetLink(t *testing.T) {
	f := newFixture()
	pid := f.patient(1)
	own, other := uuid.New(), uuid.New()
	f.budgets[own] = &budget.Budget{ID: own, EmpresaID: 1, PacienteID: pid}
	f.budgets[other] = &budget.Budget{ID: other, EmpresaID: 1, PacienteID: uuid.New()}

	if err := f.svc.Create(context.Background(), 1, &Plan{PacienteID: pid, Titulo: "x", OrcamentoID: &own}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.svc.Create(context.Background(), 1, &Plan{PacienteID: pid, Titulo: "x", OrcamentoID: &other}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestService_Delete(t *testing.T) {
	f := newFixture()
	p := f.plan(t, 1, 2)

	if err := f.svc.Delete(context.Background(), p.ID, 2); !apperr.IsNotFound(err) {
		t.Errorf("expected not found for other tenant, got %v", err)
	}
	if err := f.svc.Delete(context.Background(), p.ID, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.repo.items) != 0 || len(f.repo.sessions) != 0 {
		t.Error("items and sessions should be removed with the plan")
	}
}
