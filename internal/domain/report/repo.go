package report

import (
	"context"

	"github.com/odonto/odonto/internal/platform/reporting"
	"github.com/odonto/odonto/internal/platform/tenant"
)

// Repository fetches the raw rows of one empresa and period. Aggregation
// happens in the service.
type Repository interface {
	PaidPayments(ctx context.Context, empresaID tenant.ID, p reporting.Period) ([]PaymentRow, error)
	ApprovedItems(ctx context.Context, empresaID tenant.ID, p reporting.Period) ([]ItemRow, error)
	Appointments(ctx context.Context, empresaID tenant.ID, p reporting.Period) ([]AppointmentRow, error)
	Budgets(ctx context.Context, empresaID tenant.ID, p reporting.Period) ([]BudgetRow, error)
}
