package chatbot

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

type chatbotRepoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &chatbotRepoPG{pool: pool}
}

func (r *chatbotRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const (
	configCols  = `empresa_id, ativo, webhook_url, webhook_secret, mensagem_boas_vindas, horario_inicio, horario_fim, updated_at`
	messageCols = `m.id, m.empresa_id, m.paciente_id, m.direcao, m.conteudo, m.status, m.status_code, m.created_at`
)

var messageFilters = map[string]db.FilterConfig{
	"paciente_id": {Type: db.FilterUUID, Columns: []string{"m.paciente_id"}},
	"direcao":     {Type: db.FilterExact, Columns: []string{"m.direcao"}},
	"status":      {Type: db.FilterExact, Columns: []string{"m.status"}},
	"de":          {Type: db.FilterDateFrom, Columns: []string{"m.created_at"}},
	"ate":         {Type: db.FilterDateTo, Columns: []string{"m.created_at"}},
	"q":           {Type: db.FilterText, Columns: []string{"m.conteudo"}},
}

func (r *chatbotRepoPG) GetConfig(ctx context.Context, empresaID tenant.ID) (*Config, error) {
	var c Config
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+configCols+` FROM chatbot_configs WHERE empresa_id = $1`, empresaID).
		Scan(&c.EmpresaID, &c.Ativo, &c.WebhookURL, &c.WebhookSecret, &c.MensagemBoasVindas,
			&c.HorarioInicio, &c.HorarioFim, &c.UpdatedAt)
	if err != nil {
		return nil, db.Translate(err, "chatbot config")
	}
	return &c, nil
}

func (r *chatbotRepoPG) UpsertConfig(ctx context.Context, c *Config) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO chatbot_configs (empresa_id, ativo, webhook_url, webhook_secret, mensagem_boas_vindas, horario_inicio, horario_fim)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (empresa_id) DO UPDATE SET
			ativo = EXCLUDED.ativo, webhook_url = EXCLUDED.webhook_url, webhook_secret = EXCLUDED.webhook_secret,
			mensagem_boas_vindas = EXCLUDED.mensagem_boas_vindas, horario_inicio = EXCLUDED.horario_inicio,
			horario_fim = EXCLUDED.horario_fim, updated_at = NOW()
		RETURNING updated_at`,
		c.EmpresaID, c.Ativo, c.WebhookURL, c.WebhookSecret, c.MensagemBoasVindas, c.HorarioInicio, c.HorarioFim,
	).Scan(&c.UpdatedAt)
	return db.Translate(err, "chatbot config")
}

func (r *chatbotRepoPG) CreateMessage(ctx context.Context, m *Message) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO chatbot_messages (empresa_id, paciente_id, direcao, conteudo, status, status_code)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		m.EmpresaID, m.PacienteID, m.Direcao, m.Conteudo, m.Status, m.StatusCode,
	).Scan(&m.ID, &m.CreatedAt)
	return db.Translate(err, "chatbot message")
}

func (r *chatbotRepoPG) ListMessages(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Message, int, error) {
	q := db.NewQuery("chatbot_messages m", messageCols)
	q.Eq("m.empresa_id", empresaID)
	q.ApplyFilters(filters, messageFilters)
	q.OrderBy("m.created_at DESC, m.id")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Message, error) {
		var m Message
		err := row.Scan(&m.ID, &m.EmpresaID, &m.PacienteID, &m.Direcao, &m.Conteudo, &m.Status, &m.StatusCode, &m.CreatedAt)
		return &m, err
	})
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []*Message{}
	}
	return items, total, nil
}
