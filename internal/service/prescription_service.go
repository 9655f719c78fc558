package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicdesk/clinicdesk/internal/domain"
	"github.com/clinicdesk/clinicdesk/internal/domain/appointment"
	"github.com/clinicdesk/clinicdesk/internal/domain/prescription"
)

// PrescriptionService stores loose prescription documents linked to
// appointments. No scheduling logic lives here; the document store is a
// plain keyed store.
type PrescriptionService struct {
	repo         prescription.Repository
	appointments appointment.Repository
	auditSvc     *AuditService
	log          *zap.Logger
}

func NewPrescriptionService(repo prescription.Repository, appointments appointment.Repository, auditSvc *AuditService, log *zap.Logger) *PrescriptionService {
	return &PrescriptionService{repo: repo, appointments: appointments, auditSvc: auditSvc, log: log}
}

// SavePrescription records a prescription against an existing appointment.
// Only doctors can prescribe.
func (s *PrescriptionService) SavePrescription(ctx context.Context, cmd *prescription.SavePrescriptionCommand, caller *domain.Claims, ip string) (*prescription.Prescription, error) {
	if caller.Role != domain.RoleDoctor && caller.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(cmd.Medication) == "" || strings.TrimSpace(cmd.Dosage) == "" {
		return nil, prescription.ErrMissingMedication
	}

	if _, err := s.appointments.GetByID(ctx, cmd.AppointmentID); err != nil {
		return nil, fmt.Errorf("verifying appointment: %w", err)
	}

	p := &prescription.Prescription{
		AppointmentID: cmd.AppointmentID,
		PatientName:   strings.TrimSpace(cmd.PatientName),
		Medication:    strings.TrimSpace(cmd.Medication),
		Dosage:        strings.TrimSpace(cmd.Dosage),
		DoctorNotes:   cmd.DoctorNotes,
		Extra:         cmd.Extra,
		CreatedAt:     time.Now(),
		CreatedBy:     cmd.CreatedBy,
	}

	if err := s.repo.Save(ctx, p); err != nil {
		s.log.Error("failed to save prescription", zap.Error(err))
		return nil, fmt.Errorf("saving prescription: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       domain.ActionCreate,
		ResourceType: "prescription",
		ResourceID:   p.ID.Hex(),
		IPAddress:    ip,
	})

	return p, nil
}

// GetByAppointment fetches the prescriptions of one appointment. A patient
// may only read prescriptions on their own appointments.
func (s *PrescriptionService) GetByAppointment(ctx context.Context, appointmentID uuid.UUID, caller *domain.Claims) ([]*prescription.Prescription, error) {
	a, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if caller.Role == domain.RolePatient {
		if caller.PatientID == nil || *caller.PatientID != a.PatientID {
			return nil, ErrForbidden
		}
	}
	return s.repo.GetByAppointment(ctx, appointmentID)
}
