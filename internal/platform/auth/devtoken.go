package auth

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/tenant"
)

const devTokenPrefix = "dev:"

var devNamespace = uuid.MustParse("6f1c1f5e-4b4e-4c11-9a56-3f1d0c7a0d00")

// IsDevToken reports whether token uses the dev:<empresa_id>[:<cargo>] form.
func IsDevToken(token string) bool {
	return strings.HasPrefix(token, devTokenPrefix)
}

// ParseDevToken resolves a development token to a fixed demo principal
// without any verification. Callers gate it on configuration.
func ParseDevToken(token string) (*Principal, error) {
	rest := strings.TrimPrefix(token, devTokenPrefix)
	empresaPart, cargo, _ := strings.Cut(rest, ":")

	empresaID, err := tenant.Parse(empresaPart)
	if err != nil {
		return nil, fmt.Errorf("dev token: %w", err)
	}
	if cargo == "" {
		cargo = CargoAdmin
	}
	if !ValidCargo(cargo) {
		return nil, fmt.Errorf("dev token: unknown cargo %q", cargo)
	}

	subject := fmt.Sprintf("dev|%s|%s", empresaID, cargo)
	return &Principal{
		ID:         uuid.NewSHA1(devNamespace, []byte(subject)),
		AuthUserID: subject,
		Email:      fmt.Sprintf("dev+%s@odonto.local", empresaID),
		Nome:       "Usuário Demo",
		Cargo:      cargo,
		EmpresaID:  empresaID,
		Ativo:      true,
		Empresa:    &EmpresaRef{ID: empresaID, Nome: "Clínica Demo"},
	}, nil
}
