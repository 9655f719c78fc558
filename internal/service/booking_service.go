package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicdesk/clinicdesk/internal/domain"
	"github.com/clinicdesk/clinicdesk/internal/domain/appointment"
	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/internal/domain/timeslot"
)

// Atomic runs fn inside a storage transaction. Repository calls made with
// the context passed to fn join that transaction, so a conflict check and
// the write it guards commit or roll back as one unit.
type Atomic interface {
	Transact(ctx context.Context, fn func(ctx context.Context) error) error
}

// ValidationResult is the outcome of a pure pre-booking check. It lets the
// transport layer distinguish a missing doctor (404-class) from a taken
// slot (409-class) from malformed input.
type ValidationResult int

const (
	ValidationValid ValidationResult = iota
	ValidationTimeUnavailable
	ValidationDoctorNotFound
	ValidationInvalidInput
)

func (r ValidationResult) String() string {
	switch r {
	case ValidationValid:
		return "valid"
	case ValidationTimeUnavailable:
		return "time_unavailable"
	case ValidationDoctorNotFound:
		return "doctor_not_found"
	default:
		return "invalid_input"
	}
}

// BookingService orchestrates create/update/cancel of appointments:
// existence checks, conflict detection for both actors, and persistence,
// as one logically atomic unit per operation.
type BookingService struct {
	appointments appointment.Repository
	doctors      doctor.Repository
	patients     patient.Repository
	availability *AvailabilityService
	tx           Atomic
	auditSvc     *AuditService
	log          *zap.Logger
}

func NewBookingService(
	appointments appointment.Repository,
	doctors doctor.Repository,
	patients patient.Repository,
	availability *AvailabilityService,
	tx Atomic,
	auditSvc *AuditService,
	log *zap.Logger,
) *BookingService {
	return &BookingService{
		appointments: appointments,
		doctors:      doctors,
		patients:     patients,
		availability: availability,
		tx:           tx,
		auditSvc:     auditSvc,
		log:          log,
	}
}

// Book validates and persists a new appointment with status Scheduled.
// Doctor and patient rows are locked for the duration of the transaction so
// two concurrent bookings cannot both pass the conflict check and commit.
func (s *BookingService) Book(ctx context.Context, cmd *appointment.BookAppointmentCommand, caller *domain.Claims, ip string) (*appointment.Appointment, error) {
	if err := validateBookCommand(cmd.DoctorID, cmd.PatientID, cmd.StartsAt); err != nil {
		return nil, err
	}

	a := &appointment.Appointment{
		DoctorID:  cmd.DoctorID,
		PatientID: cmd.PatientID,
		StartsAt:  cmd.StartsAt,
		Status:    appointment.StatusScheduled,
		CreatedBy: cmd.CreatedBy,
	}

	err := s.tx.Transact(ctx, func(ctx context.Context) error {
		// Lock order is doctor then patient, everywhere, to avoid deadlocks.
		if _, err := s.doctors.LockByID(ctx, cmd.DoctorID); err != nil {
			return fmt.Errorf("verifying doctor: %w", err)
		}
		if _, err := s.patients.LockByID(ctx, cmd.PatientID); err != nil {
			return fmt.Errorf("verifying patient: %w", err)
		}

		if err := s.checkConflicts(ctx, a, uuid.Nil); err != nil {
			return err
		}

		return s.appointments.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       domain.ActionCreate,
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("appointment booked",
		zap.String("appointment_id", a.ID.String()),
		zap.String("doctor_id", a.DoctorID.String()),
		zap.Time("starts_at", a.StartsAt),
	)

	return a, nil
}

// Update re-validates an existing appointment against a new doctor, patient
// or time. References are re-fetched inside the transaction; the caller's
// view of the nested entities is never trusted.
func (s *BookingService) Update(ctx context.Context, cmd *appointment.UpdateAppointmentCommand, caller *domain.Claims, ip string) (*appointment.Appointment, error) {
	var updated *appointment.Appointment

	err := s.tx.Transact(ctx, func(ctx context.Context) error {
		existing, err := s.appointments.GetByID(ctx, cmd.AppointmentID)
		if err != nil {
			return err
		}

		if cmd.DoctorID != nil {
			existing.DoctorID = *cmd.DoctorID
		}
		if cmd.PatientID != nil {
			existing.PatientID = *cmd.PatientID
		}
		if cmd.StartsAt != nil {
			existing.StartsAt = *cmd.StartsAt
		}

		if err := validateBookCommand(existing.DoctorID, existing.PatientID, existing.StartsAt); err != nil {
			return err
		}

		if _, err := s.doctors.LockByID(ctx, existing.DoctorID); err != nil {
			return fmt.Errorf("verifying doctor: %w", err)
		}
		if _, err := s.patients.LockByID(ctx, existing.PatientID); err != nil {
			return fmt.Errorf("verifying patient: %w", err)
		}

		if err := s.checkConflicts(ctx, existing, existing.ID); err != nil {
			return err
		}

		if err := s.appointments.Save(ctx, existing); err != nil {
			return fmt.Errorf("saving appointment: %w", err)
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       domain.ActionUpdate,
		ResourceType: "appointment",
		ResourceID:   updated.ID.String(),
		IPAddress:    ip,
	})

	return updated, nil
}

// Cancel soft-cancels an appointment. Only the booking patient may cancel;
// the freed interval becomes bookable again immediately.
func (s *BookingService) Cancel(ctx context.Context, id uuid.UUID, caller *domain.Claims, ip string) (*appointment.Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if caller.PatientID == nil || *caller.PatientID != a.PatientID {
		return nil, ErrForbidden
	}

	from := a.Status
	if err := a.Cancel(caller.UserID); err != nil {
		return nil, err
	}

	if err := s.appointments.UpdateStatus(ctx, a, from); err != nil {
		if errors.Is(err, appointment.ErrInvalidStatusTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       domain.ActionCancel,
		ResourceType: "appointment",
		ResourceID:   id.String(),
		IPAddress:    ip,
		Changes:      `{"status":"cancelled"}`,
	})

	return a, nil
}

// Complete and MarkNoShow close out a scheduled appointment. Doctors and
// admins only.
func (s *BookingService) Complete(ctx context.Context, id uuid.UUID, caller *domain.Claims, ip string) (*appointment.Appointment, error) {
	return s.transition(ctx, id, caller, ip, (*appointment.Appointment).Complete)
}

func (s *BookingService) MarkNoShow(ctx context.Context, id uuid.UUID, caller *domain.Claims, ip string) (*appointment.Appointment, error) {
	return s.transition(ctx, id, caller, ip, (*appointment.Appointment).MarkNoShow)
}

func (s *BookingService) transition(ctx context.Context, id uuid.UUID, caller *domain.Claims, ip string, apply func(*appointment.Appointment) error) (*appointment.Appointment, error) {
	if caller.Role != domain.RoleDoctor && caller.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}

	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := a.Status
	if err := apply(a); err != nil {
		return nil, err
	}
	if err := s.appointments.UpdateStatus(ctx, a, from); err != nil {
		if errors.Is(err, appointment.ErrInvalidStatusTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       domain.ActionUpdate,
		ResourceType: "appointment",
		ResourceID:   id.String(),
		IPAddress:    ip,
		Changes:      fmt.Sprintf(`{"status":%q}`, a.Status),
	})

	return a, nil
}

// Validate is the pure pre-booking check. It never writes; the booking path
// re-validates inside its transaction.
func (s *BookingService) Validate(ctx context.Context, cmd *appointment.BookAppointmentCommand) (ValidationResult, error) {
	if err := validateBookCommand(cmd.DoctorID, cmd.PatientID, cmd.StartsAt); err != nil {
		return ValidationInvalidInput, nil
	}

	if _, err := s.doctors.GetByID(ctx, cmd.DoctorID); err != nil {
		if errors.Is(err, doctor.ErrDoctorNotFound) {
			return ValidationDoctorNotFound, nil
		}
		return ValidationInvalidInput, err
	}

	free, err := s.availability.Resolve(ctx, cmd.DoctorID, cmd.StartsAt)
	if err != nil {
		return ValidationInvalidInput, err
	}

	// The proposed start must coincide with a free slot's start.
	for _, slot := range free {
		if slot.Start.Equal(cmd.StartsAt) {
			return ValidationValid, nil
		}
	}
	return ValidationTimeUnavailable, nil
}

// checkConflicts rejects the proposed interval if it overlaps any existing
// appointment for the doctor or the patient, excluding excludeID when this
// is an update of an existing booking.
//
// The two sides are deliberately asymmetric: the doctor window query
// considers every non-cancelled status (a completed or no-show appointment
// still consumed the calendar slot), while the patient side considers only
// Scheduled ones (overlapping history must not block a new booking).
func (s *BookingService) checkConflicts(ctx context.Context, proposed *appointment.Appointment, excludeID uuid.UUID) error {
	interval := proposed.Interval()

	// Fetch a generous hour either side of the proposed interval so any
	// overlapping stored appointment is guaranteed to be in the window.
	windowFrom := interval.Start.Add(-appointment.SlotDuration)
	windowTo := interval.End.Add(appointment.SlotDuration)

	doctorAppts, err := s.appointments.FindByDoctorInRange(ctx, proposed.DoctorID, windowFrom, windowTo)
	if err != nil {
		return fmt.Errorf("checking doctor conflicts: %w", err)
	}
	if hasOverlap(doctorAppts, interval, excludeID) {
		return appointment.ErrAppointmentConflict
	}

	patientAppts, err := s.appointments.FindByPatientAndStatus(ctx, proposed.PatientID, appointment.StatusScheduled)
	if err != nil {
		return fmt.Errorf("checking patient conflicts: %w", err)
	}
	if hasOverlap(patientAppts, interval, excludeID) {
		return appointment.ErrAppointmentConflict
	}

	return nil
}

func hasOverlap(existing []*appointment.Appointment, proposed timeslot.Range, excludeID uuid.UUID) bool {
	for _, a := range existing {
		if a.ID == excludeID {
			continue
		}
		if a.Interval().Overlaps(proposed) {
			return true
		}
	}
	return false
}

func validateBookCommand(doctorID, patientID uuid.UUID, startsAt time.Time) error {
	if doctorID == uuid.Nil || patientID == uuid.Nil {
		return appointment.ErrMissingReference
	}
	if startsAt.IsZero() {
		return &ValidationError{Fields: []string{"starts_at is required"}}
	}
	if startsAt.Before(time.Now()) {
		return appointment.ErrScheduledInPast
	}
	return nil
}
