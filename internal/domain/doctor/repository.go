package doctor

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new doctor. Returns ErrDoctorAlreadyExists on duplicate email.
	Create(ctx context.Context, d *Doctor) error

	// GetByID retrieves a doctor by primary key. Returns ErrDoctorNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)

	// LockByID fetches the doctor and holds a row lock until the surrounding
	// transaction commits. Serializes concurrent bookings against one doctor.
	LockByID(ctx context.Context, id uuid.UUID) (*Doctor, error)

	// Update applies partial updates to an existing doctor record.
	Update(ctx context.Context, id uuid.UUID, cmd *UpdateDoctorCommand) (*Doctor, error)

	// SoftDelete marks the doctor as deleted.
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// FindByNameOrSpecialty returns doctors matching a case-insensitive name
	// substring and/or an exact case-insensitive specialty. Empty arguments
	// match all doctors for that dimension.
	FindByNameOrSpecialty(ctx context.Context, name, specialty string) ([]*Doctor, error)
}
