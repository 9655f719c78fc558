package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/timeslot"
)

// SlotDuration is fixed for the whole system: every appointment occupies
// exactly one hour. End instants are derived, never stored.
const SlotDuration = time.Hour

// State transitions:
//
//	scheduled → completed
//	scheduled → cancelled
//	scheduled → no_show
//
// Cancellation is a soft transition; the row is kept for auditability and
// excluded from calendar-blocking queries instead of being deleted.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

type Appointment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`
	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`

	StartsAt time.Time `gorm:"column:starts_at;not null;index"`
	Status   Status    `gorm:"column:status;type:varchar(30);not null;default:'scheduled';index"`

	CancelledAt *time.Time `gorm:"column:cancelled_at"`
	CancelledBy *uuid.UUID `gorm:"column:cancelled_by;type:uuid"`
	CompletedAt *time.Time `gorm:"column:completed_at"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Appointment) TableName() string {
	return "clinical.appointments"
}

func (a *Appointment) EndsAt() time.Time {
	return a.StartsAt.Add(SlotDuration)
}

// Interval is the half-open [StartsAt, StartsAt+1h) range the appointment occupies.
func (a *Appointment) Interval() timeslot.Range {
	return timeslot.Range{Start: a.StartsAt, End: a.EndsAt()}
}

// Date is the calendar date of the appointment, derived from the start instant.
func (a *Appointment) Date() time.Time {
	y, m, d := a.StartsAt.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, a.StartsAt.Location())
}

func (a *Appointment) CanTransitionTo(newStatus Status) bool {
	allowed := map[Status][]Status{
		StatusScheduled: {StatusCompleted, StatusCancelled, StatusNoShow},
		StatusCompleted: {},
		StatusCancelled: {},
		StatusNoShow:    {},
	}

	for _, s := range allowed[a.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

func (a *Appointment) Cancel(cancelledBy uuid.UUID) error {
	if !a.CanTransitionTo(StatusCancelled) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	a.Status = StatusCancelled
	a.CancelledAt = &now
	a.CancelledBy = &cancelledBy
	return nil
}

func (a *Appointment) Complete() error {
	if !a.CanTransitionTo(StatusCompleted) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	a.Status = StatusCompleted
	a.CompletedAt = &now
	return nil
}

func (a *Appointment) MarkNoShow() error {
	if !a.CanTransitionTo(StatusNoShow) {
		return ErrInvalidStatusTransition
	}
	a.Status = StatusNoShow
	return nil
}

type BookAppointmentCommand struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	StartsAt  time.Time
	CreatedBy uuid.UUID
}

type UpdateAppointmentCommand struct {
	AppointmentID uuid.UUID
	DoctorID      *uuid.UUID
	PatientID     *uuid.UUID
	StartsAt      *time.Time
	UpdatedBy     uuid.UUID
}

// Condition classifies a patient's appointments by status, not wall clock:
// "past" means Completed, "future" means Scheduled.
type Condition string

const (
	ConditionPast   Condition = "past"
	ConditionFuture Condition = "future"
)

func (c Condition) Status() (Status, bool) {
	switch c {
	case ConditionPast:
		return StatusCompleted, true
	case ConditionFuture:
		return StatusScheduled, true
	}
	return "", false
}

// View is a flattened projection carrying identifiers and denormalized
// display fields so read clients need no further joins.
type View struct {
	ID           uuid.UUID `json:"id"`
	DoctorID     uuid.UUID `json:"doctor_id"`
	DoctorName   string    `json:"doctor_name"`
	PatientID    uuid.UUID `json:"patient_id"`
	PatientName  string    `json:"patient_name"`
	PatientEmail string    `json:"patient_email"`
	PatientPhone string    `json:"patient_phone"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	Status       Status    `json:"status"`
}
