package chatbot

import (
	"time"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
)

const (
	DirecaoEnviada  = "enviada"
	DirecaoRecebida = "recebida"
)

const (
	StatusEnviada  = "enviada"
	StatusFalhou   = "falhou"
	StatusRecebida = "recebida"
)

// Webhook events sent to the chatbot endpoint.
const (
	EventMensagem = "chatbot.mensagem"
	EventTeste    = "chatbot.teste"
)

const (
	defaultInicio = "08:00"
	defaultFim    = "18:00"
	maxConteudo   = 4096
)

// Config is the empresa's chatbot integration. The secret is write-only.
type Config struct {
	EmpresaID          tenant.ID `db:"empresa_id" json:"empresa_id"`
	Ativo              bool      `db:"ativo" json:"ativo"`
	WebhookURL         *string   `db:"webhook_url" json:"webhook_url,omitempty"`
	WebhookSecret      *string   `db:"webhook_secret" json:"-"`
	SecretDefinido     bool      `db:"-" json:"webhook_secret_definido"`
	MensagemBoasVindas *string   `db:"mensagem_boas_vindas" json:"mensagem_boas_vindas,omitempty"`
	HorarioInicio      string    `db:"horario_inicio" json:"horario_inicio"`
	HorarioFim         string    `db:"horario_fim" json:"horario_fim"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// ConfigInput is the body of PUT /chatbot/config. Nil fields are left
// unchanged; an empty string clears webhook_url, webhook_secret or
// mensagem_boas_vindas.
type ConfigInput struct {
	Ativo              *bool   `json:"ativo"`
	WebhookURL         *string `json:"webhook_url"`
	WebhookSecret      *string `json:"webhook_secret"`
	MensagemBoasVindas *string `json:"mensagem_boas_vindas"`
	HorarioInicio      *string `json:"horario_inicio"`
	HorarioFim         *string `json:"horario_fim"`
}

// Message is one chatbot message in either direction.
type Message struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	EmpresaID  tenant.ID  `db:"empresa_id" json:"empresa_id"`
	PacienteID *uuid.UUID `db:"paciente_id" json:"paciente_id,omitempty"`
	Direcao    string     `db:"direcao" json:"direcao"`
	Conteudo   string     `db:"conteudo" json:"conteudo"`
	Status     string     `db:"status" json:"status"`
	StatusCode *int       `db:"status_code" json:"status_code,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// SendInput is the body of POST /chatbot/mensagens.
type SendInput struct {
	PacienteID *uuid.UUID             `json:"paciente_id,omitempty"`
	Mensagem   string                 `json:"mensagem"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Payload is the JSON body posted to the chatbot webhook.
type Payload struct {
	Evento       string                 `json:"evento"`
	EmpresaID    tenant.ID              `json:"empresa_id"`
	PacienteID   *uuid.UUID             `json:"paciente_id,omitempty"`
	PacienteNome string                 `json:"paciente_nome,omitempty"`
	Telefone     string                 `json:"telefone,omitempty"`
	Mensagem     string                 `json:"mensagem"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	EnviadoEm    time.Time              `json:"enviado_em"`
}

// Inbound is the body of POST /chatbot/webhook. empresa_id is optional and,
// when present, must match the patient's empresa in any representation.
type Inbound struct {
	PacienteID uuid.UUID              `json:"paciente_id"`
	EmpresaID  interface{}            `json:"empresa_id,omitempty"`
	Mensagem   string                 `json:"mensagem"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// TestResult reports a POST /chatbot/testar delivery.
type TestResult struct {
	URL        string `json:"url"`
	Sucesso    bool   `json:"sucesso"`
	StatusCode int    `json:"status_code"`
	Tentativas int    `json:"tentativas"`
	DuracaoMs  int64  `json:"duracao_ms"`
	Resposta   string `json:"resposta,omitempty"`
	Erro       string `json:"erro,omitempty"`
}
