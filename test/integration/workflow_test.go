//go:build integration

package integration

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/odonto/odonto/internal/domain/budget"
	"github.com/odonto/odonto/internal/domain/payment"
	"github.com/odonto/odonto/internal/domain/treatmentplan"
	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/migrations"
	"github.com/odonto/odonto/pkg/civil"
)

func TestBudget_DeleteRemovesItems(t *testing.T) {
	s := newServices()
	ctx := context.Background()
	a := s.newEmpresa(t)
	p := s.newPatient(t, a, "Diego Alves")

	b := &budget.Budget{
		PacienteID: p.ID,
		Itens: []*budget.Item{
			{Descricao: "Restauração", Quantidade: 2, ValorUnitario: 150},
			{Descricao: "Limpeza", Quantidade: 1, ValorUnitario: 120},
		},
	}
	if err := s.budgets.Create(ctx, a, b); err != nil {
		t.Fatalf("create budget: %v", err)
	}
	got, err := s.budgets.Get(ctx, b.ID, a)
	if err != nil {
		t.Fatalf("get budget: %v", err)
	}
	if got.ValorTotal != 420 || len(got.Itens) != 2 {
		t.Fatalf("expected total 420 with 2 items, got %v with %d", got.ValorTotal, len(got.Itens))
	}

	if err := s.budgets.Delete(ctx, b.ID, a); err != nil {
		t.Fatalf("delete budget: %v", err)
	}
	if n := count(t, `SELECT COUNT(*) FROM budget_items WHERE orcamento_id = $1`, b.ID); n != 0 {
		t.Fatalf("expected items removed, got %d", n)
	}
	if _, err := s.budgets.Get(ctx, b.ID, a); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestTreatmentPlan_CompletesWithLastSession(t *testing.T) {
	s := newServices()
	ctx := context.Background()
	a := s.newEmpresa(t)
	p := s.newPatient(t, a, "Elisa Rocha")

	plan := &treatmentplan.Plan{
		PacienteID: p.ID,
		Titulo:     "Reabilitação",
		Itens: []*treatmentplan.Item{
			{Descricao: "Canal", TotalSessoes: 2},
			{Descricao: "Coroa", TotalSessoes: 1},
		},
	}
	if err := s.plans.Create(ctx, a, plan); err != nil {
		t.Fatalf("create plan: %v", err)
	}
	plan, err := s.plans.Get(ctx, plan.ID, a)
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}

	var last *treatmentplan.Plan
	for _, it := range plan.Itens {
		for _, sess := range it.Sessoes {
			if last, err = s.plans.CompleteSession(ctx, a, it.ID, sess.ID, treatmentplan.CompleteInput{}); err != nil {
				t.Fatalf("complete session: %v", err)
			}
		}
	}
	if last == nil {
		t.Fatal("plan has no sessions")
	}
	if last.Progresso != 100 || last.Status != treatmentplan.StatusConcluido {
		t.Fatalf("expected concluded at 100%%, got %s at %d%%", last.Status, last.Progresso)
	}
	for _, it := range last.Itens {
		if it.Status != treatmentplan.ItemConcluido {
			t.Errorf("item %s not concluded: %s", it.Descricao, it.Status)
		}
	}

	// A foreign empresa cannot see the item.
	b := s.newEmpresa(t)
	_, err = s.plans.CompleteSession(ctx, b, last.Itens[0].ID, last.Itens[0].Sessoes[0].ID, treatmentplan.CompleteInput{})
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found for foreign empresa, got %v", err)
	}
}

func TestReport_FinancialMatchesPayments(t *testing.T) {
	s := newServices()
	ctx := context.Background()
	a := s.newEmpresa(t)
	p := s.newPatient(t, a, "Fábio Nunes")

	b := &budget.Budget{
		PacienteID: p.ID,
		Itens:      []*budget.Item{{Descricao: "Implante", Quantidade: 1, ValorUnitario: 2500}},
	}
	if err := s.budgets.Create(ctx, a, b); err != nil {
		t.Fatalf("create budget: %v", err)
	}
	if _, err := s.budgets.UpdateStatus(ctx, b.ID, a, budget.StatusAprovado); err != nil {
		t.Fatalf("approve budget: %v", err)
	}

	day := civil.DateOf(time.Now())
	payments := []*payment.Payment{
		{PacienteID: p.ID, OrcamentoID: &b.ID, Valor: 1000.10, Metodo: payment.MetodoPix, Status: payment.StatusPago, DataPagamento: &day},
		{PacienteID: p.ID, Valor: 250.25, Metodo: payment.MetodoDinheiro, Status: payment.StatusPago, DataPagamento: &day},
		{PacienteID: p.ID, Valor: 999, Metodo: payment.MetodoBoleto},
	}
	for _, pay := range payments {
		if err := s.payments.Create(ctx, a, pay); err != nil {
			t.Fatalf("create payment: %v", err)
		}
	}

	period, err := s.reports.Period(day.String(), day.String())
	if err != nil {
		t.Fatalf("period: %v", err)
	}
	f, err := s.reports.Financial(ctx, a, period)
	if err != nil {
		t.Fatalf("financial: %v", err)
	}
	if f.Total != 1250.35 || f.Pagamentos != 2 {
		t.Fatalf("expected 1250.35 over 2 payments, got %v over %d", f.Total, f.Pagamentos)
	}
	var sum float64
	for _, bucket := range f.PorMetodo {
		sum += bucket.Amount
	}
	if int64(sum*100+0.5) != 125035 {
		t.Fatalf("method subtotals %v do not add up to the total", sum)
	}

	var buf bytes.Buffer
	if err := s.reports.ExportFinancial(ctx, &buf, a, period); err != nil {
		t.Fatalf("export: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected a workbook")
	}
}

func TestMigrations_Idempotent(t *testing.T) {
	n, err := db.NewMigrator(pool, migrations.FS).Up(context.Background())
	if err != nil {
		t.Fatalf("second up: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected nothing to apply, got %d", n)
	}
}
