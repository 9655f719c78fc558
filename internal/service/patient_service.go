package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicdesk/clinicdesk/internal/domain"
	"github.com/clinicdesk/clinicdesk/internal/domain/appointment"
	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
)

type PatientService struct {
	repo         patient.Repository
	appointments appointment.Repository
	doctors      doctor.Repository
	users        UserRepository
	tx           Atomic
	auditSvc     *AuditService
	log          *zap.Logger
}

func NewPatientService(
	repo patient.Repository,
	appointments appointment.Repository,
	doctors doctor.Repository,
	users UserRepository,
	tx Atomic,
	auditSvc *AuditService,
	log *zap.Logger,
) *PatientService {
	return &PatientService{
		repo:         repo,
		appointments: appointments,
		doctors:      doctors,
		users:        users,
		tx:           tx,
		auditSvc:     auditSvc,
		log:          log,
	}
}

// Register creates a patient record and its login account together.
func (s *PatientService) Register(ctx context.Context, cmd *patient.RegisterPatientCommand) (*patient.Patient, error) {
	if err := validateRegisterCommand(cmd); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmailOrPhone(ctx, cmd.Email, cmd.Phone)
	if err != nil {
		return nil, fmt.Errorf("checking uniqueness: %w", err)
	}
	if exists {
		return nil, patient.ErrPatientAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	p := &patient.Patient{
		FirstName: strings.TrimSpace(cmd.FirstName),
		LastName:  strings.TrimSpace(cmd.LastName),
		ContactInfo: patient.ContactInfo{
			Phone:   strings.TrimSpace(cmd.Phone),
			Email:   strings.ToLower(strings.TrimSpace(cmd.Email)),
			Address: cmd.Address,
		},
		PasswordHash: string(hash),
	}

	err = s.tx.Transact(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("creating patient: %w", err)
		}
		u := &domain.User{
			Email:        p.Email,
			PasswordHash: string(hash),
			Role:         domain.RolePatient,
			PatientID:    &p.ID,
			IsActive:     true,
		}
		return s.users.Create(ctx, u)
	})
	if err != nil {
		s.log.Error("failed to register patient", zap.Error(err))
		return nil, err
	}

	s.log.Info("patient registered", zap.String("patient_id", p.ID.String()))
	return p, nil
}

// GetPatient returns a patient record. Patients can only read their own.
func (s *PatientService) GetPatient(ctx context.Context, id uuid.UUID, caller *domain.Claims) (*patient.Patient, error) {
	if caller.Role == domain.RolePatient {
		if caller.PatientID == nil || *caller.PatientID != id {
			return nil, ErrForbidden
		}
	}
	return s.repo.GetByID(ctx, id)
}

// FilterPatientAppointments lists a patient's appointments narrowed by an
// optional status-derived condition ("past" = Completed, "future" =
// Scheduled; never a wall-clock comparison) and an optional doctor-name
// substring. Filters compose as AND; an omitted filter matches all.
func (s *PatientService) FilterPatientAppointments(ctx context.Context, patientID uuid.UUID, condition appointment.Condition, doctorName string, caller *domain.Claims) ([]appointment.View, error) {
	if caller.Role == domain.RolePatient {
		if caller.PatientID == nil || *caller.PatientID != patientID {
			return nil, ErrForbidden
		}
	}

	p, err := s.repo.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	var appts []*appointment.Appointment
	if condition == "" {
		appts, err = s.appointments.FindByPatient(ctx, patientID)
	} else {
		status, ok := condition.Status()
		if !ok {
			return nil, appointment.ErrInvalidCondition
		}
		appts, err = s.appointments.FindByPatientAndStatus(ctx, patientID, status)
	}
	if err != nil {
		return nil, fmt.Errorf("loading patient appointments: %w", err)
	}

	needle := strings.ToLower(strings.TrimSpace(doctorName))
	doctorsByID := make(map[uuid.UUID]*doctor.Doctor)
	views := make([]appointment.View, 0, len(appts))
	for _, a := range appts {
		d, ok := doctorsByID[a.DoctorID]
		if !ok {
			d, err = s.doctors.GetByID(ctx, a.DoctorID)
			if err != nil {
				return nil, fmt.Errorf("loading doctor %s: %w", a.DoctorID, err)
			}
			doctorsByID[a.DoctorID] = d
		}
		if needle != "" && !strings.Contains(strings.ToLower(d.FullName()), needle) {
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

func validateRegisterCommand(cmd *patient.RegisterPatientCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if strings.TrimSpace(cmd.LastName) == "" {
		errs = append(errs, "last_name is required")
	}
	if strings.TrimSpace(cmd.Email) == "" {
		errs = append(errs, "email is required")
	}
	if len(cmd.Password) < 8 {
		errs = append(errs, "password must be at least 8 characters")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
