package chatbot

import (
	"context"

	"github.com/odonto/odonto/internal/platform/tenant"
)

type Repository interface {
	GetConfig(ctx context.Context, empresaID tenant.ID) (*Config, error)
	UpsertConfig(ctx context.Context, c *Config) error
	CreateMessage(ctx context.Context, m *Message) error
	ListMessages(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Message, int, error)
}
