package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clinicdesk/clinicdesk/internal/domain/appointment"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

var _ appointment.Repository = (*AppointmentRepository)(nil)

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	if err := dbFrom(ctx, r.db).Create(a).Error; err != nil {
		return fmt.Errorf("creating appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := dbFrom(ctx, r.db).First(&a, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("fetching appointment %s: %w", id, err)
	}
	return &a, nil
}

func (r *AppointmentRepository) Save(ctx context.Context, a *appointment.Appointment) error {
	if err := dbFrom(ctx, r.db).Save(a).Error; err != nil {
		return fmt.Errorf("saving appointment %s: %w", a.ID, err)
	}
	return nil
}

// UpdateStatus is a compare-and-set on the status column. Matching on the
// prior status keeps two concurrent transitions from both succeeding: the
// loser's UPDATE touches zero rows and is reported as an invalid transition.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, a *appointment.Appointment, from appointment.Status) error {
	updates := map[string]any{
		"status":       a.Status,
		"cancelled_at": a.CancelledAt,
		"cancelled_by": a.CancelledBy,
		"completed_at": a.CompletedAt,
	}

	res := dbFrom(ctx, r.db).
		Model(&appointment.Appointment{}).
		Where("id = ? AND status = ?", a.ID, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("updating appointment %s status: %w", a.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return appointment.ErrInvalidStatusTransition
	}
	return nil
}

// FindByDoctorInRange excludes cancelled appointments: a cancelled booking
// frees the slot, everything else keeps blocking the doctor's calendar.
func (r *AppointmentRepository) FindByDoctorInRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*appointment.Appointment, error) {
	var out []*appointment.Appointment
	err := dbFrom(ctx, r.db).
		Where("doctor_id = ?", doctorID).
		Where("starts_at BETWEEN ? AND ?", from, to).
		Where("status <> ?", appointment.StatusCancelled).
		Order("starts_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing doctor %s appointments: %w", doctorID, err)
	}
	return out, nil
}

func (r *AppointmentRepository) FindByPatientAndStatus(ctx context.Context, patientID uuid.UUID, status appointment.Status) ([]*appointment.Appointment, error) {
	var out []*appointment.Appointment
	err := dbFrom(ctx, r.db).
		Where("patient_id = ? AND status = ?", patientID, status).
		Order("starts_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing patient %s appointments by status: %w", patientID, err)
	}
	return out, nil
}

func (r *AppointmentRepository) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]*appointment.Appointment, error) {
	var out []*appointment.Appointment
	err := dbFrom(ctx, r.db).
		Where("patient_id = ?", patientID).
		Order("starts_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing patient %s appointments: %w", patientID, err)
	}
	return out, nil
}

func (r *AppointmentRepository) CancelAllByDoctor(ctx context.Context, doctorID uuid.UUID, cancelledBy uuid.UUID) error {
	now := time.Now()
	err := dbFrom(ctx, r.db).
		Model(&appointment.Appointment{}).
		Where("doctor_id = ? AND status = ?", doctorID, appointment.StatusScheduled).
		Updates(map[string]any{
			"status":       appointment.StatusCancelled,
			"cancelled_at": now,
			"cancelled_by": cancelledBy,
		}).Error
	if err != nil {
		return fmt.Errorf("cancelling doctor %s appointments: %w", doctorID, err)
	}
	return nil
}
