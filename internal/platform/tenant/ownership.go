package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/odonto/odonto/internal/platform/apperr"
)

// PatientOwner resolves the empresa that owns a patient. Implementations
// return an error wrapping apperr.ErrNotFound when the patient does not exist.
type PatientOwner interface {
	PatientEmpresa(ctx context.Context, patientID uuid.UUID) (ID, error)
}

// EnsurePatient verifies that patientID belongs to empresaID. Absent patients
// and patients of other empresas both yield a not-found error.
func EnsurePatient(ctx context.Context, owner PatientOwner, patientID uuid.UUID, empresaID ID) error {
	if patientID == uuid.Nil {
		return apperr.Validation("paciente_id is required")
	}
	got, err := owner.PatientEmpresa(ctx, patientID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.NotFound("patient")
		}
		return err
	}
	if got != empresaID {
		return apperr.NotFound("patient")
	}
	return nil
}
