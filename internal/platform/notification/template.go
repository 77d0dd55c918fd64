// Package notification renders the message templates used by reminder and
// status notifications.
package notification

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Channel is the delivery channel a template is written for.
type Channel string

const (
	ChannelSistema  Channel = "sistema"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
)

// Built-in template ids.
const (
	TemplateLembreteConsulta  = "lembrete-consulta"
	TemplateLembreteRetorno   = "lembrete-retorno"
	TemplateOrcamentoAprovado = "orcamento-aprovado"
	TemplatePagamentoRecebido = "pagamento-recebido"
	TemplatePlanoConcluido    = "plano-concluido"
)

// Template defines a reusable notification template.
type Template struct {
	ID      string  `json:"id"`
	Nome    string  `json:"nome"`
	Titulo  string  `json:"titulo"`
	Corpo   string  `json:"corpo"`
	Channel Channel `json:"canal"`
}

// Engine manages notification templates and renders them with data.
type Engine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewEngine creates an Engine with the built-in templates pre-registered.
func NewEngine() *Engine {
	e := &Engine{templates: make(map[string]*Template)}
	e.registerBuiltIn()
	return e
}

func (e *Engine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplateLembreteConsulta,
			Nome:    "Lembrete de consulta",
			Titulo:  "Consulta de {{paciente}}",
			Corpo:   "Olá {{paciente}}, lembramos da sua consulta em {{data}} às {{hora}} com {{profissional}}.",
			Channel: ChannelSistema,
		},
		{
			ID:      TemplateLembreteRetorno,
			Nome:    "Lembrete de retorno",
			Titulo:  "Retorno de {{paciente}}",
			Corpo:   "Olá {{paciente}}, seu retorno está previsto para {{data}}. Motivo: {{motivo}}.",
			Channel: ChannelSistema,
		},
		{
			ID:      TemplateOrcamentoAprovado,
			Nome:    "Orçamento aprovado",
			Titulo:  "Orçamento aprovado",
			Corpo:   "O orçamento de {{paciente}} no valor de {{valor}} foi aprovado.",
			Channel: ChannelSistema,
		},
		{
			ID:      TemplatePagamentoRecebido,
			Nome:    "Pagamento recebido",
			Titulo:  "Pagamento recebido",
			Corpo:   "Recebemos o pagamento de {{valor}} de {{paciente}} via {{metodo}}.",
			Channel: ChannelSistema,
		},
		{
			ID:      TemplatePlanoConcluido,
			Nome:    "Plano de tratamento concluído",
			Titulo:  "Tratamento concluído",
			Corpo:   "O plano de tratamento \"{{plano}}\" de {{paciente}} foi concluído.",
			Channel: ChannelSistema,
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// Register adds or replaces a template.
func (e *Engine) Register(t Template) error {
	if t.ID == "" {
		return fmt.Errorf("template id is required")
	}
	if t.Channel == "" {
		t.Channel = ChannelSistema
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
	return nil
}

// Get returns a copy of the template with the given id.
func (e *Engine) Get(id string) (Template, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.templates[id]
	if !ok {
		return Template{}, false
	}
	return *t, true
}

// List returns all templates ordered by id.
func (e *Engine) List() []Template {
	e.mu.RLock()
	out := make([]Template, 0, len(e.templates))
	for _, t := range e.templates {
		out = append(out, *t)
	}
	e.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Render looks up a template by id and performs {{key}} replacement using the
// supplied data. Placeholders absent from data are left as-is.
func (e *Engine) Render(id string, data map[string]string) (titulo, corpo string, err error) {
	t, ok := e.Get(id)
	if !ok {
		return "", "", fmt.Errorf("template %q not found", id)
	}
	return Fill(t.Titulo, data), Fill(t.Corpo, data), nil
}

// Fill replaces every {{key}} in s with data[key].
func Fill(s string, data map[string]string) string {
	if len(data) == 0 {
		return s
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
