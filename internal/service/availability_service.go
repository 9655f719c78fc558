package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicdesk/clinicdesk/internal/domain/appointment"
	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/clinicdesk/clinicdesk/internal/domain/timeslot"
)

// AvailabilityService derives a doctor's free slots for a date from their
// recurring patterns minus that day's booked appointments. Slots are never
// cached; every call reads current persisted state.
type AvailabilityService struct {
	doctors      doctor.Repository
	appointments appointment.Repository
	log          *zap.Logger
}

func NewAvailabilityService(doctors doctor.Repository, appointments appointment.Repository, log *zap.Logger) *AvailabilityService {
	return &AvailabilityService{doctors: doctors, appointments: appointments, log: log}
}

// Resolve returns the doctor's free slots on the given date, preserving the
// declared pattern order. A missing doctor resolves to an empty list, not
// an error: at this layer "no doctor" and "no free slots" read the same,
// and the existence check belongs to callers that need it (booking does).
func (s *AvailabilityService) Resolve(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]timeslot.Range, error) {
	d, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, doctor.ErrDoctorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading doctor: %w", err)
	}

	if len(d.Patterns) == 0 {
		if len(d.AvailableTimes) > 0 {
			s.log.Warn("doctor has availability entries but none parsed",
				zap.String("doctor_id", doctorID.String()),
			)
		}
		return nil, nil
	}

	dayStart, dayEnd := timeslot.DayBounds(date)
	booked, err := s.appointments.FindByDoctorInRange(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("loading day appointments: %w", err)
	}

	free := make([]timeslot.Range, 0, len(d.Patterns))
	for _, p := range d.Patterns {
		slot := p.OnDate(date)
		if overlapsAny(slot, booked) {
			continue
		}
		free = append(free, slot)
	}
	return free, nil
}

func overlapsAny(slot timeslot.Range, booked []*appointment.Appointment) bool {
	for _, a := range booked {
		if slot.Overlaps(a.Interval()) {
			return true
		}
	}
	return false
}
