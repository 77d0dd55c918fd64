package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/db"
	templates "github.com/odonto/odonto/internal/platform/notification"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type Service struct {
	repo     Repository
	patients tenant.PatientOwner
	engine   *templates.Engine
	tx       db.TxRunner
}

func NewService(repo Repository, patients tenant.PatientOwner, engine *templates.Engine, tx db.TxRunner) *Service {
	return &Service{repo: repo, patients: patients, engine: engine, tx: tx}
}

func (s *Service) Create(ctx context.Context, empresaID tenant.ID, in CreateInput) (*Notification, error) {
	if in.PacienteID != nil {
		if err := tenant.EnsurePatient(ctx, s.patients, *in.PacienteID, empresaID); err != nil {
			return nil, err
		}
	}
	n := &Notification{
		EmpresaID:    empresaID,
		UsuarioID:    in.UsuarioID,
		PacienteID:   in.PacienteID,
		Tipo:         TipoManual,
		Titulo:       strings.TrimSpace(in.Titulo),
		Mensagem:     strings.TrimSpace(in.Mensagem),
		ReferenciaID: in.ReferenciaID,
		AgendadaPara: in.AgendadaPara,
	}
	if in.Template != "" {
		titulo, corpo, err := s.engine.Render(in.Template, in.Dados)
		if err != nil {
			return nil, apperr.Validation("unknown template %q", in.Template)
		}
		n.Tipo = in.Template
		if n.Titulo == "" {
			n.Titulo = titulo
		}
		if n.Mensagem == "" {
			n.Mensagem = corpo
		}
	}
	if n.Titulo == "" || n.Mensagem == "" {
		return nil, apperr.Validation("titulo and mensagem are required")
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Notify renders r's template and stores the result. Callers that treat
// notifications as best-effort log the returned error and carry on.
func (s *Service) Notify(ctx context.Context, r Request) (*Notification, error) {
	titulo, corpo, err := s.engine.Render(r.Template, r.Data)
	if err != nil {
		return nil, err
	}
	n := &Notification{
		EmpresaID:    r.EmpresaID,
		UsuarioID:    r.UsuarioID,
		PacienteID:   r.PacienteID,
		Tipo:         r.Template,
		Titulo:       titulo,
		Mensagem:     corpo,
		ReferenciaID: r.ReferenciaID,
		AgendadaPara: r.AgendadaPara,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("store %s notification: %w", r.Template, err)
	}
	return n, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Notification, error) {
	return s.repo.GetByID(ctx, id, empresaID)
}

func (s *Service) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Notification, int, error) {
	return s.repo.List(ctx, empresaID, filters, limit, offset)
}

func (s *Service) MarkRead(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Notification, error) {
	var n *Notification
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if n, err = s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		if n.Lida {
			return nil
		}
		return s.repo.MarkRead(ctx, n)
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) MarkAllRead(ctx context.Context, empresaID tenant.ID, usuarioID *uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, empresaID, usuarioID)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id, empresaID)
	})
}

func (s *Service) Templates() []templates.Template {
	return s.engine.List()
}
