package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicdesk/clinicdesk/internal/domain"
	"github.com/clinicdesk/clinicdesk/internal/domain/appointment"
	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/internal/domain/timeslot"
)

type DoctorService struct {
	repo         doctor.Repository
	appointments appointment.Repository
	patients     patient.Repository
	users        UserRepository
	tx           Atomic
	auditSvc     *AuditService
	log          *zap.Logger
}

func NewDoctorService(
	repo doctor.Repository,
	appointments appointment.Repository,
	patients patient.Repository,
	users UserRepository,
	tx Atomic,
	auditSvc *AuditService,
	log *zap.Logger,
) *DoctorService {
	return &DoctorService{
		repo:         repo,
		appointments: appointments,
		patients:     patients,
		users:        users,
		tx:           tx,
		auditSvc:     auditSvc,
		log:          log,
	}
}

func (s *DoctorService) CreateDoctor(ctx context.Context, cmd *doctor.CreateDoctorCommand, caller *domain.Claims, ip string) (*doctor.Doctor, error) {
	if caller.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}
	if err := validateDoctorCommand(cmd); err != nil {
		return nil, err
	}

	d := &doctor.Doctor{
		FirstName: strings.TrimSpace(cmd.FirstName),
		LastName:  strings.TrimSpace(cmd.LastName),
		Specialty: strings.TrimSpace(cmd.Specialty),
		ContactInfo: doctor.ContactInfo{
			Phone: strings.TrimSpace(cmd.Phone),
			Email: strings.ToLower(strings.TrimSpace(cmd.Email)),
		},
		AvailableTimes: cmd.AvailableTimes,
		CreatedBy:      cmd.CreatedBy,
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	err = s.tx.Transact(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, d); err != nil {
			return fmt.Errorf("creating doctor: %w", err)
		}
		u := &domain.User{
			Email:        d.Email,
			PasswordHash: string(hash),
			Role:         domain.RoleDoctor,
			DoctorID:     &d.ID,
			IsActive:     true,
		}
		return s.users.Create(ctx, u)
	})
	if err != nil {
		s.log.Error("failed to create doctor", zap.Error(err))
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       domain.ActionCreate,
		ResourceType: "doctor",
		ResourceID:   d.ID.String(),
		IPAddress:    ip,
	})

	return d, nil
}

func (s *DoctorService) UpdateDoctor(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand, caller *domain.Claims, ip string) (*doctor.Doctor, error) {
	if caller.Role != domain.RoleAdmin {
		if caller.Role != domain.RoleDoctor || caller.DoctorID == nil || *caller.DoctorID != id {
			return nil, ErrForbidden
		}
	}

	if cmd.AvailableTimes != nil {
		if fields := invalidPatterns(*cmd.AvailableTimes); len(fields) > 0 {
			return nil, &ValidationError{Fields: fields}
		}
	}

	d, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       domain.ActionUpdate,
		ResourceType: "doctor",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return d, nil
}

// DeleteDoctor removes a doctor. Every scheduled appointment of that doctor
// is cancelled in the same transaction so no booking dangles.
func (s *DoctorService) DeleteDoctor(ctx context.Context, id uuid.UUID, caller *domain.Claims, ip string) error {
	if caller.Role != domain.RoleAdmin {
		return ErrForbidden
	}

	err := s.tx.Transact(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return err
		}
		if err := s.appointments.CancelAllByDoctor(ctx, id, caller.UserID); err != nil {
			return fmt.Errorf("cancelling doctor appointments: %w", err)
		}
		return s.repo.SoftDelete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       domain.ActionDelete,
		ResourceType: "doctor",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return nil
}

func (s *DoctorService) GetDoctor(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

// FilterDoctors composes the read-side filters as logical AND. An omitted
// dimension matches all doctors, never none.
func (s *DoctorService) FilterDoctors(ctx context.Context, q *doctor.FilterDoctorsQuery) ([]doctor.View, error) {
	doctors, err := s.repo.FindByNameOrSpecialty(ctx, strings.TrimSpace(q.Name), strings.TrimSpace(q.Specialty))
	if err != nil {
		return nil, fmt.Errorf("filtering doctors: %w", err)
	}

	views := make([]doctor.View, 0, len(doctors))
	for _, d := range doctors {
		if q.TimeOfDay != nil && !d.AvailableIn(*q.TimeOfDay) {
			continue
		}
		views = append(views, d.ToView())
	}
	return views, nil
}

// DaySchedule returns a doctor's appointments on a date as flattened view
// rows, optionally narrowed by a case-insensitive patient-name substring.
func (s *DoctorService) DaySchedule(ctx context.Context, doctorID uuid.UUID, date time.Time, patientName string, caller *domain.Claims) ([]appointment.View, error) {
	if caller.Role != domain.RoleAdmin {
		if caller.Role != domain.RoleDoctor || caller.DoctorID == nil || *caller.DoctorID != doctorID {
			return nil, ErrForbidden
		}
	}

	d, err := s.repo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	dayStart, dayEnd := timeslot.DayBounds(date)
	appts, err := s.appointments.FindByDoctorInRange(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("loading day appointments: %w", err)
	}

	needle := strings.ToLower(strings.TrimSpace(patientName))
	patientsByID := make(map[uuid.UUID]*patient.Patient)
	views := make([]appointment.View, 0, len(appts))
	for _, a := range appts {
		p, ok := patientsByID[a.PatientID]
		if !ok {
			p, err = s.patients.GetByID(ctx, a.PatientID)
			if err != nil {
				return nil, fmt.Errorf("loading patient %s: %w", a.PatientID, err)
			}
			patientsByID[a.PatientID] = p
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.FullName()), needle) {
			continue
		}
		views = append(views, appointment.View{
			ID:           a.ID,
			DoctorID:     d.ID,
			DoctorName:   d.FullName(),
			PatientID:    p.ID,
			PatientName:  p.FullName(),
			PatientEmail: p.Email,
			PatientPhone: p.Phone,
			StartsAt:     a.StartsAt,
			EndsAt:       a.EndsAt(),
			Status:       a.Status,
		})
	}
	return views, nil
}

func validateDoctorCommand(cmd *doctor.CreateDoctorCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if strings.TrimSpace(cmd.LastName) == "" {
		errs = append(errs, "last_name is required")
	}
	if strings.TrimSpace(cmd.Specialty) == "" {
		errs = append(errs, "specialty is required")
	}
	if strings.TrimSpace(cmd.Email) == "" {
		errs = append(errs, "email is required")
	}
	if len(cmd.Password) < 8 {
		errs = append(errs, "password must be at least 8 characters")
	}
	errs = append(errs, invalidPatterns(cmd.AvailableTimes)...)

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// invalidPatterns rejects malformed windows at write time. Reads stay
// lenient (bad stored entries are skipped), but new ones must parse.
func invalidPatterns(raw []string) []string {
	var fields []string
	for _, w := range raw {
		if _, err := timeslot.Parse(w); err != nil {
			fields = append(fields, fmt.Sprintf("available_times entry %q: %v", w, err))
		}
	}
	return fields
}
