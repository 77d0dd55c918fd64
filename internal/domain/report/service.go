package report

import (
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/odonto/internal/domain/procedure"
	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/reporting"
	"github.com/odonto/odonto/internal/platform/tenant"
)

// Catalog returns the empresa's procedures keyed by id.
type Catalog interface {
	Catalog(ctx context.Context, empresaID tenant.ID) (map[uuid.UUID]*procedure.Procedure, error)
}

type Service struct {
	repo           Repository
	catalog        Catalog
	workdayMinutes int
	logger         zerolog.Logger
	now            func() time.Time
}

func NewService(repo Repository, catalog Catalog, workdayMinutes int, logger zerolog.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, workdayMinutes: workdayMinutes, logger: logger, now: time.Now}
}

// Period parses the inclusive from/to bounds of a report.
func (s *Service) Period(from, to string) (reporting.Period, error) {
	p, err := reporting.ParsePeriod(from, to, s.now())
	if err != nil {
		return reporting.Period{}, apperr.Validation("%s", err.Error())
	}
	return p, nil
}

// Financial sums paid payments. Both breakdowns partition the same rows, so
// each sums to Total.
func (s *Service) Financial(ctx context.Context, empresaID tenant.ID, p reporting.Period) (*Financial, error) {
	rows, err := s.repo.PaidPayments(ctx, empresaID, p)
	if err != nil {
		return nil, err
	}
	byMethod := reporting.NewTotals()
	byProfessional := reporting.NewTotals()
	for _, r := range rows {
		byMethod.Add(r.Metodo, r.Valor)
		prof := strings.TrimSpace(r.Profissional)
		if prof == "" {
			prof = SemProfissional
		}
		byProfessional.Add(prof, r.Valor)
	}
	return &Financial{
		Periodo:         p,
		Total:           byMethod.Total(),
		Pagamentos:      byMethod.Count(),
		TicketMedio:     reporting.Round2(reporting.Rate(byMethod.Total(), float64(byMethod.Count()))),
		PorMetodo:       byMethod.Buckets(),
		PorProfissional: byProfessional.Buckets(),
	}, nil
}

// Procedures counts and sums approved budget items per procedure.
func (s *Service) Procedures(ctx context.Context, empresaID tenant.ID, p reporting.Period) (*Procedures, error) {
	rows, err := s.repo.ApprovedItems(ctx, empresaID, p)
	if err != nil {
		return nil, err
	}
	revenue := reporting.NewTotals()
	qty := map[string]int{}
	total := 0
	for _, r := range rows {
		name := strings.TrimSpace(r.Procedimento)
		revenue.Add(name, float64(r.Quantidade)*r.ValorUnitario)
		qty[name] += r.Quantidade
		total += r.Quantidade
	}
	out := &Procedures{Periodo: p, Quantidade: total, Receita: revenue.Total(), Procedimento: []ProcedureLine{}}
	for _, b := range revenue.Buckets() {
		out.Procedimento = append(out.Procedimento, ProcedureLine{
			Procedimento: b.Key,
			Quantidade:   qty[b.Key],
			Receita:      b.Amount,
			Percentual:   b.Share,
		})
	}
	return out, nil
}

// Occupancy compares booked minutes per dentist with the minutes available
// in the period's working days. Each appointment lasts as long as its
// procedure in the catalog, or procedure.DefaultDuration when the procedure
// is missing.
func (s *Service) Occupancy(ctx context.Context, empresaID tenant.ID, p reporting.Period) (*Occupancy, error) {
	var rows []AppointmentRow
	var catalog map[uuid.UUID]*procedure.Procedure
	g, gctx := db.Group(ctx, 0)
	g.Go(func() error {
		var err error
		rows, err = s.repo.Appointments(gctx, empresaID, p)
		return err
	})
	g.Go(func() error {
		var err error
		catalog, err = s.catalog.Catalog(gctx, empresaID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	days := p.WorkingDays()
	available := days * s.workdayMinutes
	lines := map[string]*OccupancyLine{}
	for _, r := range rows {
		key := SemProfissional
		if r.DentistaID != nil {
			key = r.DentistaID.String()
		}
		line, ok := lines[key]
		if !ok {
			name := strings.TrimSpace(r.DentistaNome)
			if name == "" {
				name = SemProfissional
			}
			line = &OccupancyLine{DentistaID: r.DentistaID, Profissional: name, MinutosDisponiveis: available}
			lines[key] = line
		}
		var proc *procedure.Procedure
		if r.ProcedimentoID != nil {
			proc = catalog[*r.ProcedimentoID]
		}
		line.Consultas++
		line.MinutosAgendados += procedure.DurationOf(proc)
	}

	out := &Occupancy{
		Periodo:            p,
		DiasUteis:          days,
		MinutosPorDia:      s.workdayMinutes,
		MinutosDisponiveis: available,
		Profissionais:      make([]OccupancyLine, 0, len(lines)),
	}
	for _, line := range lines {
		line.TaxaOcupacao = reporting.Round2(reporting.Rate(float64(line.MinutosAgendados), float64(available)))
		line.PercentualOcupacao = reporting.Percent(float64(line.MinutosAgendados), float64(available))
		out.Profissionais = append(out.Profissionais, *line)
	}
	sort.Slice(out.Profissionais, func(i, j int) bool {
		a, b := out.Profissionais[i], out.Profissionais[j]
		if a.MinutosAgendados != b.MinutosAgendados {
			return a.MinutosAgendados > b.MinutosAgendados
		}
		return a.Profissional < b.Profissional
	})
	return out, nil
}

// Budgets counts budgets per status. The conversion rate is approved over
// all budgets of the period.
func (s *Service) Budgets(ctx context.Context, empresaID tenant.ID, p reporting.Period) (*Budgets, error) {
	rows, err := s.repo.Budgets(ctx, empresaID, p)
	if err != nil {
		return nil, err
	}
	byStatus := reporting.NewTotals()
	for _, r := range rows {
		byStatus.Add(r.Status, r.ValorTotal)
	}
	out := &Budgets{Periodo: p, Total: byStatus.Count(), PorStatus: []StatusLine{}}
	for _, b := range byStatus.Buckets() {
		out.PorStatus = append(out.PorStatus, StatusLine{Status: b.Key, Quantidade: b.Count, Valor: b.Amount})
		if b.Key == "aprovado" {
			out.Aprovados = b.Count
			out.ValorAprovado = b.Amount
		}
	}
	out.TaxaConversao = reporting.Round2(reporting.Rate(float64(out.Aprovados), float64(out.Total)))
	return out, nil
}

// Summary builds every report of the period, concurrently unless ctx is
// pinned to a single connection.
func (s *Service) Summary(ctx context.Context, empresaID tenant.ID, p reporting.Period) (*Summary, error) {
	var out Summary
	g, gctx := db.Group(ctx, 0)
	g.Go(func() (err error) {
		out.Financeiro, err = s.Financial(gctx, empresaID, p)
		return err
	})
	g.Go(func() (err error) {
		out.Procedimentos, err = s.Procedures(gctx, empresaID, p)
		return err
	})
	g.Go(func() (err error) {
		out.Ocupacao, err = s.Occupancy(gctx, empresaID, p)
		return err
	})
	g.Go(func() (err error) {
		out.Orcamentos, err = s.Budgets(gctx, empresaID, p)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportFinancial writes the financial report as an xlsx workbook.
func (s *Service) ExportFinancial(ctx context.Context, w io.Writer, empresaID tenant.ID, p reporting.Period) error {
	f, err := s.Financial(ctx, empresaID, p)
	if err != nil {
		return err
	}
	bucketRows := func(buckets []reporting.Bucket) [][]interface{} {
		rows := make([][]interface{}, 0, len(buckets)+1)
		for _, b := range buckets {
			rows = append(rows, []interface{}{b.Key, b.Count, b.Amount, b.Share})
		}
		return append(rows, []interface{}{"Total", f.Pagamentos, f.Total, 100.0})
	}
	headers := []string{"Grupo", "Pagamentos", "Valor (R$)", "Percentual"}
	widths := []float64{28, 14, 16, 12}
	s.logger.Debug().Str("empresa_id", empresaID.String()).Int("payments", f.Pagamentos).Msg("exporting financial report")
	return reporting.WriteXLSX(w,
		reporting.Sheet{
			Name:    "Resumo",
			Headers: []string{"De", "Até", "Pagamentos", "Total (R$)", "Ticket médio (R$)"},
			Rows: [][]interface{}{{
				p.From.Format("02/01/2006"), p.To.Format("02/01/2006"), f.Pagamentos, f.Total, f.TicketMedio,
			}},
			Widths: []float64{14, 14, 14, 16, 18},
		},
		reporting.Sheet{Name: "Por método", Headers: headers, Rows: bucketRows(f.PorMetodo), Widths: widths},
		reporting.Sheet{Name: "Por profissional", Headers: headers, Rows: bucketRows(f.PorProfissional), Widths: widths},
	)
}
