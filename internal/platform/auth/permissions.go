package auth

import "sort"

// Actions granted per feature.
const (
	ActionView   = "visualizar"
	ActionEdit   = "editar"
	ActionDelete = "excluir"
)

// Features guarded by RequirePermission.
const (
	FeaturePacientes     = "pacientes"
	FeatureAgendamentos  = "agendamentos"
	FeatureOrcamentos    = "orcamentos"
	FeatureAnamneses     = "anamneses"
	FeatureAnotacoes     = "anotacoes"
	FeatureAvaliacoes    = "avaliacoes"
	FeatureArquivos      = "arquivos"
	FeatureNotificacoes  = "notificacoes"
	FeaturePagamentos    = "pagamentos"
	FeatureProcedimentos = "procedimentos"
	FeatureRetornos      = "retornos"
	FeatureTratamentos   = "planos_tratamento"
	FeatureRelatorios    = "relatorios"
	FeatureAssinatura    = "assinatura"
	FeatureChatbot       = "chatbot"
	FeatureUsuarios      = "usuarios"
	FeatureEmpresa       = "empresa"

	wildcard = "*"
)

// Cargos.
const (
	CargoAdmin         = "admin"
	CargoDentista      = "dentista"
	CargoRecepcionista = "recepcionista"
	CargoFinanceiro    = "financeiro"
)

// Permissions lists the features a principal may view, edit and delete.
type Permissions struct {
	View   []string `json:"visualizar"`
	Edit   []string `json:"editar"`
	Delete []string `json:"excluir"`
}

func (p Permissions) Empty() bool {
	return len(p.View) == 0 && len(p.Edit) == 0 && len(p.Delete) == 0
}

// Allows reports whether the set grants action on feature.
func (p Permissions) Allows(feature, action string) bool {
	var list []string
	switch action {
	case ActionView:
		list = p.View
	case ActionEdit:
		list = p.Edit
	case ActionDelete:
		list = p.Delete
	default:
		return false
	}
	for _, f := range list {
		if f == feature || f == wildcard {
			return true
		}
	}
	return false
}

var clinical = []string{
	FeaturePacientes, FeatureAgendamentos, FeatureOrcamentos, FeatureAnamneses,
	FeatureAnotacoes, FeatureAvaliacoes, FeatureArquivos, FeatureRetornos,
	FeatureTratamentos, FeatureProcedimentos, FeatureNotificacoes,
}

var cargoPermissions = map[string]Permissions{
	CargoAdmin: {
		View:   []string{wildcard},
		Edit:   []string{wildcard},
		Delete: []string{wildcard},
	},
	CargoDentista: {
		View:   append(append([]string{}, clinical...), FeaturePagamentos, FeatureRelatorios, FeatureChatbot),
		Edit:   clinical,
		Delete: []string{FeatureAnamneses, FeatureAnotacoes, FeatureAvaliacoes, FeatureArquivos, FeatureTratamentos, FeatureNotificacoes},
	},
	CargoRecepcionista: {
		View: []string{
			FeaturePacientes, FeatureAgendamentos, FeatureOrcamentos, FeaturePagamentos,
			FeatureProcedimentos, FeatureRetornos, FeatureNotificacoes, FeatureChatbot, FeatureArquivos,
		},
		Edit: []string{
			FeaturePacientes, FeatureAgendamentos, FeatureRetornos, FeaturePagamentos,
			FeatureNotificacoes, FeatureChatbot, FeatureArquivos,
		},
		Delete: []string{FeatureAgendamentos, FeatureNotificacoes},
	},
	CargoFinanceiro: {
		View:   []string{FeaturePacientes, FeatureOrcamentos, FeaturePagamentos, FeatureRelatorios, FeatureAssinatura, FeatureNotificacoes},
		Edit:   []string{FeatureOrcamentos, FeaturePagamentos, FeatureNotificacoes},
		Delete: []string{FeaturePagamentos, FeatureNotificacoes},
	},
}

// PermissionsFor returns the default permission set of cargo.
func PermissionsFor(cargo string) (Permissions, bool) {
	p, ok := cargoPermissions[cargo]
	if !ok {
		return Permissions{}, false
	}
	return Permissions{
		View:   append([]string(nil), p.View...),
		Edit:   append([]string(nil), p.Edit...),
		Delete: append([]string(nil), p.Delete...),
	}, true
}

// ValidCargo reports whether cargo has a permission set.
func ValidCargo(cargo string) bool {
	_, ok := cargoPermissions[cargo]
	return ok
}

// Cargos returns the known cargos in sorted order.
func Cargos() []string {
	out := make([]string, 0, len(cargoPermissions))
	for c := range cargoPermissions {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
