package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Save(ctx context.Context, a *Appointment) error

	// UpdateStatus persists a status transition already applied to a. The
	// write only lands if the stored row still carries the from status the
	// caller read; a concurrent transition that got there first surfaces as
	// ErrInvalidStatusTransition instead of being overwritten.
	UpdateStatus(ctx context.Context, a *Appointment, from Status) error

	// FindByDoctorInRange returns the doctor's appointments starting within
	// [from, to], every status except Cancelled: a doctor's calendar slot
	// stays consumed by completed and no-show appointments, but a cancelled
	// booking frees it.
	FindByDoctorInRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Appointment, error)

	// FindByPatientAndStatus returns the patient's appointments with the
	// given status, ordered by start time ascending.
	FindByPatientAndStatus(ctx context.Context, patientID uuid.UUID, status Status) ([]*Appointment, error)

	// FindByPatient returns all of the patient's appointments ordered by
	// start time ascending.
	FindByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)

	// CancelAllByDoctor soft-cancels every scheduled appointment of a
	// doctor. Used when a doctor record is removed.
	CancelAllByDoctor(ctx context.Context, doctorID uuid.UUID, cancelledBy uuid.UUID) error
}
