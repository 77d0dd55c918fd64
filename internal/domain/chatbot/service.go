package chatbot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/odonto/internal/domain/patient"
	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/tenant"
	"github.com/odonto/odonto/internal/platform/webhook"
)

// Sender delivers signed webhook calls. *webhook.Client implements it.
type Sender interface {
	Deliver(ctx context.Context, rawURL, secret, event string, payload interface{}) (*webhook.Delivery, error)
}

// Patients resolves patients for outbound payloads and inbound messages.
type Patients interface {
	tenant.PatientOwner
	Get(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*patient.Patient, error)
}

// Defaults are used when the empresa has no URL or secret of its own.
type Defaults struct {
	WebhookURL    string
	WebhookSecret string
}

type Service struct {
	repo     Repository
	patients Patients
	sender   Sender
	defaults Defaults
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, patients Patients, sender Sender, defaults Defaults, logger zerolog.Logger) *Service {
	return &Service{repo: repo, patients: patients, sender: sender, defaults: defaults, logger: logger, now: time.Now}
}

// GetConfig returns the stored config, or an inactive default when the
// empresa never configured the chatbot.
func (s *Service) GetConfig(ctx context.Context, empresaID tenant.ID) (*Config, error) {
	c, err := s.repo.GetConfig(ctx, empresaID)
	if apperr.IsNotFound(err) {
		return &Config{EmpresaID: empresaID, HorarioInicio: defaultInicio, HorarioFim: defaultFim}, nil
	}
	if err != nil {
		return nil, err
	}
	c.SecretDefinido = c.WebhookSecret != nil && *c.WebhookSecret != ""
	return c, nil
}

func (s *Service) UpdateConfig(ctx context.Context, empresaID tenant.ID, in ConfigInput) (*Config, error) {
	c, err := s.GetConfig(ctx, empresaID)
	if err != nil {
		return nil, err
	}
	if in.Ativo != nil {
		c.Ativo = *in.Ativo
	}
	if in.WebhookURL != nil {
		c.WebhookURL = blankToNil(*in.WebhookURL)
		if c.WebhookURL != nil {
			if err := webhook.ValidateURL(*c.WebhookURL); err != nil {
				return nil, apperr.Validation("webhook_url: %s", err.Error())
			}
		}
	}
	if in.WebhookSecret != nil {
		c.WebhookSecret = blankToNil(*in.WebhookSecret)
	}
	if in.MensagemBoasVindas != nil {
		c.MensagemBoasVindas = blankToNil(*in.MensagemBoasVindas)
	}
	if in.HorarioInicio != nil {
		c.HorarioInicio = strings.TrimSpace(*in.HorarioInicio)
	}
	if in.HorarioFim != nil {
		c.HorarioFim = strings.TrimSpace(*in.HorarioFim)
	}
	if err := validateHours(c.HorarioInicio, c.HorarioFim); err != nil {
		return nil, err
	}
	if c.Ativo && s.endpoint(c) == "" {
		return nil, apperr.Validation("webhook_url is required to activate the chatbot")
	}
	if err := s.repo.UpsertConfig(ctx, c); err != nil {
		return nil, err
	}
	c.SecretDefinido = c.WebhookSecret != nil
	return c, nil
}

// Send posts a message to the chatbot webhook and records it. A delivery
// that fails after retries is recorded with status falhou and still
// returned without error.
func (s *Service) Send(ctx context.Context, empresaID tenant.ID, in SendInput) (*Message, error) {
	in.Mensagem = strings.TrimSpace(in.Mensagem)
	if in.Mensagem == "" {
		return nil, apperr.Validation("mensagem is required")
	}
	if len(in.Mensagem) > maxConteudo {
		return nil, apperr.Validation("mensagem must be at most %d bytes", maxConteudo)
	}
	c, err := s.GetConfig(ctx, empresaID)
	if err != nil {
		return nil, err
	}
	if !c.Ativo {
		return nil, apperr.Validation("chatbot is not active")
	}

	payload := Payload{
		Evento:    EventMensagem,
		EmpresaID: empresaID,
		Mensagem:  in.Mensagem,
		Metadata:  in.Metadata,
		EnviadoEm: s.now().UTC(),
	}
	if in.PacienteID != nil {
		p, err := s.patients.Get(ctx, *in.PacienteID, empresaID)
		if err != nil {
			return nil, err
		}
		payload.PacienteID = &p.ID
		payload.PacienteNome = p.Nome
		if p.Telefone != nil {
			payload.Telefone = *p.Telefone
		}
	}

	m := &Message{
		EmpresaID:  empresaID,
		PacienteID: in.PacienteID,
		Direcao:    DirecaoEnviada,
		Conteudo:   in.Mensagem,
		Status:     StatusEnviada,
	}
	d, err := s.sender.Deliver(ctx, s.endpoint(c), s.secret(c), EventMensagem, payload)
	if d != nil && d.StatusCode != 0 {
		code := d.StatusCode
		m.StatusCode = &code
	}
	if err != nil || !d.Succeeded() {
		m.Status = StatusFalhou
		ev := s.logger.Warn().Str("empresa_id", empresaID.String())
		if err != nil {
			ev = ev.Err(err)
		}
		ev.Interface("status_code", m.StatusCode).Msg("chatbot delivery failed")
	}
	if err := s.repo.CreateMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Test posts a test event to the configured endpoint without recording it.
func (s *Service) Test(ctx context.Context, empresaID tenant.ID) (*TestResult, error) {
	c, err := s.GetConfig(ctx, empresaID)
	if err != nil {
		return nil, err
	}
	url := s.endpoint(c)
	if url == "" {
		return nil, apperr.Validation("webhook_url is not configured")
	}
	payload := Payload{
		Evento:    EventTeste,
		EmpresaID: empresaID,
		Mensagem:  "teste de integração",
		EnviadoEm: s.now().UTC(),
	}
	res := &TestResult{URL: url}
	d, err := s.sender.Deliver(ctx, url, s.secret(c), EventTeste, payload)
	if d != nil {
		res.Sucesso = d.Succeeded()
		res.StatusCode = d.StatusCode
		res.Tentativas = d.Attempts
		res.DuracaoMs = d.Duration.Milliseconds()
		res.Resposta = d.ResponseBody
	}
	if err != nil {
		res.Sucesso = false
		res.Erro = err.Error()
	}
	return res, nil
}

func (s *Service) ListMessages(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Message, int, error) {
	return s.repo.ListMessages(ctx, empresaID, filters, limit, offset)
}

var errBadSignature = apperr.Unauthenticated("invalid webhook signature")

// Receive records an inbound message. The tenant is the patient's empresa;
// the signature is checked against that empresa's secret, or the default
// secret when it has none. Unknown patients are reported as a bad signature
// so that callers cannot probe patient ids.
func (s *Service) Receive(ctx context.Context, body []byte, signature string) (*Message, error) {
	var in Inbound
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, apperr.Validation("invalid payload: %s", err.Error())
	}
	if in.PacienteID == uuid.Nil {
		return nil, apperr.Validation("paciente_id is required")
	}

	empresaID, err := s.patients.PatientEmpresa(ctx, in.PacienteID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, errBadSignature
	}
	if err != nil {
		return nil, fmt.Errorf("resolve patient empresa: %w", err)
	}
	c, err := s.GetConfig(ctx, empresaID)
	if err != nil {
		return nil, err
	}
	if !webhook.VerifyHeader(body, s.secret(c), signature) {
		s.logger.Warn().Str("empresa_id", empresaID.String()).Msg("chatbot webhook signature mismatch")
		return nil, errBadSignature
	}
	if in.EmpresaID != nil && !tenant.Same(in.EmpresaID, int64(empresaID)) {
		return nil, apperr.Forbidden("empresa_id does not match the patient")
	}

	in.Mensagem = strings.TrimSpace(in.Mensagem)
	if in.Mensagem == "" {
		return nil, apperr.Validation("mensagem is required")
	}
	in.Mensagem = truncate(in.Mensagem, maxConteudo)
	pid := in.PacienteID
	m := &Message{
		EmpresaID:  empresaID,
		PacienteID: &pid,
		Direcao:    DirecaoRecebida,
		Conteudo:   in.Mensagem,
		Status:     StatusRecebida,
	}
	if err := s.repo.CreateMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (s *Service) endpoint(c *Config) string {
	if c.WebhookURL != nil && *c.WebhookURL != "" {
		return *c.WebhookURL
	}
	return s.defaults.WebhookURL
}

func (s *Service) secret(c *Config) string {
	if c.WebhookSecret != nil && *c.WebhookSecret != "" {
		return *c.WebhookSecret
	}
	return s.defaults.WebhookSecret
}

func validateHours(inicio, fim string) error {
	a, err := time.Parse("15:04", inicio)
	if err != nil {
		return apperr.Validation("horario_inicio must be HH:MM")
	}
	b, err := time.Parse("15:04", fim)
	if err != nil {
		return apperr.Validation("horario_fim must be HH:MM")
	}
	if !a.Before(b) {
		return apperr.Validation("horario_inicio must be before horario_fim")
	}
	return nil
}

func blankToNil(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
