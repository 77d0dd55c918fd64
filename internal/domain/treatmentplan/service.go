package treatmentplan

import (
	"context"
	"strings"
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

type Procedures interface {
	Get(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*procedure.Procedure, error)
}

type Budgets interface {
	Get(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*budget.Budget, error)
}

type Notifier interface {
	Notify(ctx context.Context, r notification.Request) (*notification.Notification, error)
}

type Service struct {
	repo       Repository
	patients   tenant.PatientOwner
	procedures Procedures
	budgets    Budgets
	notifier   Notifier
	tx         db.TxRunner
	logger     zerolog.Logger
	now        func() time.Time
}

func NewService(repo Repository, patients tenant.PatientOwner, procedures Procedures, budgets Budgets,
	notifier Notifier, tx db.TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		patients:   patients,
		procedures: procedures,
		budgets:    budgets,
		notifier:   notifier,
		tx:         tx,
		logger:     logger,
		now:        time.Now,
	}
}

// Create stores the plan with its initial items and sessions in one
// transaction.
func (s *Service) Create(ctx context.Context, empresaID tenant.ID, p *Plan) error {
	if err := tenant.EnsurePatient(ctx, s.patients, p.PacienteID, empresaID); err != nil {
		return err
	}
	if err := validatePlan(p); err != nil {
		return err
	}
	p.EmpresaID = empresaID
	p.Status = StatusEmAndamento
	for _, it := range p.Itens {
		if err := s.prepareItem(ctx, empresaID, it); err != nil {
			return err
		}
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.checkBudget(ctx, empresaID, p); err != nil {
			return err
		}
		p.Progresso = 0
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		for _, it := range p.Itens {
			if err := s.insertItem(ctx, p.ID, it); err != nil {
				return err
			}
		}
		if p.Itens == nil {
			p.Itens = []*Item{}
		}
		return nil
	})
}

// Get returns the plan with its items and their sessions.
func (s *Service) Get(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Plan, error) {
	p, err := s.repo.GetByID(ctx, id, empresaID)
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Plan, int, error) {
	return s.repo.List(ctx, empresaID, filters, limit, offset)
}

// Update changes the plan header. Progress is derived from the items and is
// not taken from the input.
func (s *Service) Update(ctx context.Context, id uuid.UUID, empresaID tenant.ID, in *Plan) (*Plan, error) {
	if err := validatePlan(in); err != nil {
		return nil, err
	}
	var p *Plan
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		p.Titulo = in.Titulo
		p.Descricao = in.Descricao
		p.DentistaID = in.DentistaID
		p.OrcamentoID = in.OrcamentoID
		if err := s.checkBudget(ctx, empresaID, p); err != nil {
			return err
		}
		if in.Status != "" {
			switch {
			case in.Status == StatusConcluido && p.Progresso < 100:
				return apperr.Validation("plan can only be concluded when every item is complete")
			case in.Status == StatusEmAndamento && p.Progresso == 100:
				return apperr.Validation("plan with every item complete cannot be in progress")
			}
			p.Status = in.Status
		}
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id, empresaID)
	})
}

// AddItem appends an item with its sessions and recomputes the plan
// progress. A concluded plan goes back to em_andamento.
func (s *Service) AddItem(ctx context.Context, planID uuid.UUID, empresaID tenant.ID, it *Item) (*Plan, error) {
	if err := s.prepareItem(ctx, empresaID, it); err != nil {
		return nil, err
	}
	var p *Plan
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = s.repo.GetByID(ctx, planID, empresaID); err != nil {
			return err
		}
		if p.Status == StatusCancelado {
			return apperr.Validation("plan is cancelled")
		}
		if err := s.repo.LockPlan(ctx, p.ID); err != nil {
			return err
		}
		if err := s.insertItem(ctx, p.ID, it); err != nil {
			return err
		}
		_, err = s.recalculate(ctx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, planID, empresaID)
}

// CompleteSession marks a session done. When every session of the item is
// done the item is concluded, and the plan progress is recomputed; a plan
// reaching 100 is concluded. Completing a done session again changes
// nothing.
func (s *Service) CompleteSession(ctx context.Context, empresaID tenant.ID, itemID, sessionID uuid.UUID, in CompleteInput) (*Plan, error) {
	var p *Plan
	var concluded bool
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		it, err := s.repo.GetItem(ctx, itemID, empresaID)
		if err != nil {
			return err
		}
		if err := s.repo.LockPlan(ctx, it.PlanoID); err != nil {
			return err
		}
		if p, err = s.repo.GetByID(ctx, it.PlanoID, empresaID); err != nil {
			return err
		}
		if p.Status == StatusCancelado {
			return apperr.Validation("plan is cancelled")
		}
		sessions, err := s.repo.Sessions(ctx, p.ID)
		if err != nil {
			return err
		}
		var target *Session
		remaining := 0
		for _, sess := range sessions {
			if sess.ItemID != it.ID {
				continue
			}
			if sess.ID == sessionID {
				target = sess
			}
			if !sess.Done() {
				remaining++
			}
		}
		if target == nil {
			return apperr.NotFound("treatment session")
		}
		if target.Done() {
			return nil
		}

		done := s.now().UTC()
		target.ConcluidaEm = &done
		target.Observacoes = in.Observacoes
		if err := s.repo.CompleteSession(ctx, target); err != nil {
			return err
		}
		remaining--

		status := ItemEmAndamento
		if remaining == 0 {
			status = ItemConcluido
		}
		if it.Status != status {
			it.Status = status
			if err := s.repo.UpdateItemStatus(ctx, it); err != nil {
				return err
			}
		}
		concluded, err = s.recalculate(ctx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	if concluded {
		s.notifyConcluded(ctx, p)
	}
	return s.Get(ctx, p.ID, empresaID)
}

// recalculate recomputes progress from the stored items and reports whether
// the plan was concluded by this change.
func (s *Service) recalculate(ctx context.Context, p *Plan) (bool, error) {
	items, err := s.repo.Items(ctx, p.ID)
	if err != nil {
		return false, err
	}
	was := p.Status
	p.Progresso = Progress(items)
	switch {
	case p.Progresso == 100:
		p.Status = StatusConcluido
	case p.Status == StatusConcluido:
		p.Status = StatusEmAndamento
	}
	if err := s.repo.UpdateProgress(ctx, p); err != nil {
		return false, err
	}
	return was != StatusConcluido && p.Status == StatusConcluido, nil
}

func (s *Service) notifyConcluded(ctx context.Context, p *Plan) {
	if s.notifier == nil {
		return
	}
	_, err := s.notifier.Notify(ctx, notification.Request{
		EmpresaID:    p.EmpresaID,
		Template:     templates.TemplatePlanoConcluido,
		Data:         map[string]string{"plano": p.Titulo, "paciente": p.PacienteNome},
		PacienteID:   &p.PacienteID,
		UsuarioID:    p.DentistaID,
		ReferenciaID: &p.ID,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("plan_id", p.ID.String()).Msg("enqueue plan concluded notification")
	}
}

func (s *Service) loadItems(ctx context.Context, p *Plan) error {
	items, err := s.repo.Items(ctx, p.ID)
	if err != nil {
		return err
	}
	sessions, err := s.repo.Sessions(ctx, p.ID)
	if err != nil {
		return err
	}
	byItem := make(map[uuid.UUID]*Item, len(items))
	for _, it := range items {
		it.Sessoes = []*Session{}
		byItem[it.ID] = it
	}
	for _, sess := range sessions {
		if it, ok := byItem[sess.ItemID]; ok {
			it.Sessoes = append(it.Sessoes, sess)
		}
	}
	p.Itens = items
	return nil
}

// prepareItem fills the description from the procedure catalog and builds
// the session list.
func (s *Service) prepareItem(ctx context.Context, empresaID tenant.ID, it *Item) error {
	it.Descricao = strings.TrimSpace(it.Descricao)
	if it.ProcedimentoID != nil {
		proc, err := s.procedures.Get(ctx, *it.ProcedimentoID, empresaID)
		if err != nil {
			return err
		}
		if it.Descricao == "" {
			it.Descricao = proc.Nome
		}
	}
	if it.Descricao == "" {
		return apperr.Validation("item descricao is required")
	}
	if len(it.Sessoes) == 0 {
		n := it.TotalSessoes
		if n == 0 {
			n = 1
		}
		if n < 0 || n > maxSessions {
			return apperr.Validation("total_sessoes must be between 1 and %d", maxSessions)
		}
		it.Sessoes = make([]*Session, n)
		for i := range it.Sessoes {
			it.Sessoes[i] = &Session{}
		}
	}
	if len(it.Sessoes) > maxSessions {
		return apperr.Validation("an item accepts at most %d sessions", maxSessions)
	}
	for i, sess := range it.Sessoes {
		sess.Numero = i + 1
		sess.ConcluidaEm = nil
	}
	it.TotalSessoes = len(it.Sessoes)
	it.Status = ItemPendente
	return nil
}

func (s *Service) insertItem(ctx context.Context, planID uuid.UUID, it *Item) error {
	it.PlanoID = planID
	if err := s.repo.AddItem(ctx, it); err != nil {
		return err
	}
	for _, sess := range it.Sessoes {
		sess.ItemID = it.ID
	}
	return s.repo.AddSessions(ctx, it.Sessoes)
}

// checkBudget requires a linked budget to be of the same patient.
func (s *Service) checkBudget(ctx context.Context, empresaID tenant.ID, p *Plan) error {
	if p.OrcamentoID == nil {
		return nil
	}
	b, err := s.budgets.Get(ctx, *p.OrcamentoID, empresaID)
	if err != nil {
		return err
	}
	if b.PacienteID != p.PacienteID {
		return apperr.Validation("orcamento belongs to another patient")
	}
	return nil
}

func validatePlan(p *Plan) error {
	p.Titulo = strings.TrimSpace(p.Titulo)
	if p.Titulo == "" {
		return apperr.Validation("titulo is required")
	}
	if p.Status != "" && !validStatuses[p.Status] {
		return apperr.Validation("invalid status %q", p.Status)
	}
	return nil
}
