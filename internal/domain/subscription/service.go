package subscription

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/reporting"
	"github.com/odonto/odonto/internal/platform/tenant"
	"github.com/odonto/odonto/pkg/civil"
)

type Service struct {
	repo   Repository
	tx     db.TxRunner
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, tx db.TxRunner, logger zerolog.Logger) *Service {
	return &Service{repo: repo, tx: tx, logger: logger, now: time.Now}
}

func (s *Service) today() civil.Date {
	return civil.DateOf(s.now())
}

func (s *Service) Get(ctx context.Context, empresaID tenant.ID) (*Subscription, error) {
	sub, err := s.repo.Get(ctx, empresaID)
	if err != nil {
		return nil, err
	}
	sub.Ativa = sub.Active(s.today())
	return sub, nil
}

// Upsert creates the empresa's subscription or changes its plan. Choosing a
// plan on a cancelled subscription reactivates it.
func (s *Service) Upsert(ctx context.Context, empresaID tenant.ID, in UpsertInput) (*Subscription, error) {
	in.Plano = strings.ToLower(strings.TrimSpace(in.Plano))
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	price, ok := Prices[in.Plano]
	if !ok {
		return nil, apperr.Validation("invalid plano %q", in.Plano)
	}
	if in.Status != "" && !statuses[in.Status] {
		return nil, apperr.Validation("invalid status %q", in.Status)
	}
	if in.Status == StatusCancelada {
		return nil, apperr.Validation("use POST /assinatura/cancelar to cancel")
	}
	if in.ValorMensal != nil && *in.ValorMensal < 0 {
		return nil, apperr.Validation("valor_mensal must not be negative")
	}

	var out *Subscription
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		sub, err := s.repo.Lock(ctx, empresaID)
		switch {
		case apperr.IsNotFound(err):
			sub = &Subscription{EmpresaID: empresaID, Status: StatusAtiva, Inicio: s.today()}
		case err != nil:
			return err
		}
		if sub.Plano != in.Plano {
			sub.ValorMensal = price
		}
		sub.Plano = in.Plano
		if in.ValorMensal != nil {
			sub.ValorMensal = *in.ValorMensal
		}
		sub.ValorMensal = reporting.Round2(sub.ValorMensal)
		if in.Status != "" {
			sub.Status = in.Status
		}
		if sub.Status == StatusCancelada {
			sub.Status = StatusAtiva
			sub.CanceladaEm = nil
			sub.Fim = nil
		}
		if in.Inicio != nil {
			sub.Inicio = *in.Inicio
		}
		if in.Fim != nil {
			sub.Fim = in.Fim
		}
		if sub.Fim != nil && sub.Fim.Before(sub.Inicio.Time) {
			return apperr.Validation("fim must not be before inicio")
		}
		if err := s.repo.Upsert(ctx, sub); err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Ativa = out.Active(s.today())
	s.logger.Info().Str("empresa_id", empresaID.String()).Str("plano", out.Plano).Str("status", out.Status).Msg("subscription updated")
	return out, nil
}

// Cancel ends the subscription today. Cancelling twice is a conflict.
func (s *Service) Cancel(ctx context.Context, empresaID tenant.ID) (*Subscription, error) {
	var out *Subscription
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		sub, err := s.repo.Lock(ctx, empresaID)
		if err != nil {
			return err
		}
		if sub.Status == StatusCancelada {
			return apperr.Conflict("subscription already cancelled")
		}
		now := s.now()
		today := civil.DateOf(now)
		sub.Status = StatusCancelada
		sub.CanceladaEm = &now
		if sub.Fim == nil || sub.Fim.After(today.Time) {
			sub.Fim = &today
		}
		if err := s.repo.Upsert(ctx, sub); err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("empresa_id", empresaID.String()).Msg("subscription cancelled")
	return out, nil
}
