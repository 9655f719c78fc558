package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new patient. Returns ErrPatientAlreadyExists on
	// duplicate email or phone.
	Create(ctx context.Context, p *Patient) error

	// GetByID retrieves a patient by primary key. Returns ErrPatientNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// LockByID fetches the patient and holds a row lock until the surrounding
	// transaction commits. Serializes concurrent bookings by one patient.
	LockByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// ExistsByEmailOrPhone checks for duplicates without fetching the record.
	ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error)
}
