package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/clinicdesk/clinicdesk/internal/domain"
	"github.com/clinicdesk/clinicdesk/internal/domain/appointment"
	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/internal/domain/prescription"
	"github.com/clinicdesk/clinicdesk/pkg/metrics"
)

// The prometheus default registry rejects duplicate registration, so the
// whole test binary shares one collector.
var (
	testCollector     *metrics.Collector
	testCollectorOnce sync.Once
)

func collectorForTests() *metrics.Collector {
	testCollectorOnce.Do(func() {
		testCollector = metrics.NewCollector("clinicdesk_test")
	})
	return testCollector
}

// passTx satisfies Atomic without a database: fn runs directly, which is
// enough for single-goroutine service tests.
type passTx struct{}

func (passTx) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memDoctors struct {
	byID map[uuid.UUID]*doctor.Doctor
}

func newMemDoctors() *memDoctors {
	return &memDoctors{byID: make(map[uuid.UUID]*doctor.Doctor)}
}

func (m *memDoctors) Create(_ context.Context, d *doctor.Doctor) error {
	for _, existing := range m.byID {
		if existing.Email == d.Email {
			return doctor.ErrDoctorAlreadyExists
		}
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	m.byID[d.ID] = d
	return nil
}

func (m *memDoctors) GetByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	d, ok := m.byID[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	d.ParsePatterns()
	return d, nil
}

func (m *memDoctors) LockByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	return m.GetByID(ctx, id)
}

func (m *memDoctors) Update(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand) (*doctor.Doctor, error) {
	d, ok := m.byID[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	if cmd.FirstName != nil {
		d.FirstName = *cmd.FirstName
	}
	if cmd.LastName != nil {
		d.LastName = *cmd.LastName
	}
	if cmd.Specialty != nil {
		d.Specialty = *cmd.Specialty
	}
	if cmd.Phone != nil {
		d.Phone = *cmd.Phone
	}
	if cmd.Email != nil {
		d.Email = *cmd.Email
	}
	if cmd.AvailableTimes != nil {
		d.AvailableTimes = *cmd.AvailableTimes
	}
	return m.GetByID(ctx, id)
}

func (m *memDoctors) SoftDelete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return doctor.ErrDoctorNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memDoctors) FindByNameOrSpecialty(_ context.Context, name, specialty string) ([]*doctor.Doctor, error) {
	var out []*doctor.Doctor
	for _, d := range m.byID {
		if name != "" && !strings.Contains(strings.ToLower(d.FullName()), strings.ToLower(name)) {
			continue
		}
		if specialty != "" && !strings.EqualFold(d.Specialty, specialty) {
			continue
		}
		d.ParsePatterns()
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastName < out[j].LastName })
	return out, nil
}

type memPatients struct {
	byID map[uuid.UUID]*patient.Patient
}

func newMemPatients() *memPatients {
	return &memPatients{byID: make(map[uuid.UUID]*patient.Patient)}
}

func (m *memPatients) Create(_ context.Context, p *patient.Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.byID[p.ID] = p
	return nil
}

func (m *memPatients) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

func (m *memPatients) LockByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	return m.GetByID(ctx, id)
}

func (m *memPatients) ExistsByEmailOrPhone(_ context.Context, email, phone string) (bool, error) {
	for _, p := range m.byID {
		if p.Email == email || (phone != "" && p.Phone == phone) {
			return true, nil
		}
	}
	return false, nil
}

type memAppointments struct {
	byID map[uuid.UUID]*appointment.Appointment

	// afterGet, when set, runs once after the next GetByID. Lets a test
	// squeeze a competing write between a service's read and its update.
	afterGet func()
}

func newMemAppointments() *memAppointments {
	return &memAppointments{byID: make(map[uuid.UUID]*appointment.Appointment)}
}

func (m *memAppointments) Create(_ context.Context, a *appointment.Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memAppointments) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	cp := *a
	if hook := m.afterGet; hook != nil {
		m.afterGet = nil
		hook()
	}
	return &cp, nil
}

func (m *memAppointments) Save(_ context.Context, a *appointment.Appointment) error {
	if _, ok := m.byID[a.ID]; !ok {
		return appointment.ErrAppointmentNotFound
	}
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memAppointments) UpdateStatus(_ context.Context, a *appointment.Appointment, from appointment.Status) error {
	stored, ok := m.byID[a.ID]
	if !ok || stored.Status != from {
		return appointment.ErrInvalidStatusTransition
	}
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memAppointments) FindByDoctorInRange(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]*appointment.Appointment, error) {
	var out []*appointment.Appointment
	for _, a := range m.byID {
		if a.DoctorID != doctorID || a.Status == appointment.StatusCancelled {
			continue
		}
		if a.StartsAt.Before(from) || a.StartsAt.After(to) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sortByStart(out)
	return out, nil
}

func (m *memAppointments) FindByPatientAndStatus(_ context.Context, patientID uuid.UUID, status appointment.Status) ([]*appointment.Appointment, error) {
	var out []*appointment.Appointment
	for _, a := range m.byID {
		if a.PatientID == patientID && a.Status == status {
			cp := *a
			out = append(out, &cp)
		}
	}
	sortByStart(out)
	return out, nil
}

func (m *memAppointments) FindByPatient(_ context.Context, patientID uuid.UUID) ([]*appointment.Appointment, error) {
	var out []*appointment.Appointment
	for _, a := range m.byID {
		if a.PatientID == patientID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sortByStart(out)
	return out, nil
}

func (m *memAppointments) CancelAllByDoctor(_ context.Context, doctorID uuid.UUID, cancelledBy uuid.UUID) error {
	now := time.Now()
	for _, a := range m.byID {
		if a.DoctorID == doctorID && a.Status == appointment.StatusScheduled {
			a.Status = appointment.StatusCancelled
			a.CancelledAt = &now
			a.CancelledBy = &cancelledBy
		}
	}
	return nil
}

type memPrescriptions struct {
	docs []*prescription.Prescription
}

func (m *memPrescriptions) Save(_ context.Context, p *prescription.Prescription) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	cp := *p
	m.docs = append(m.docs, &cp)
	return nil
}

func (m *memPrescriptions) GetByAppointment(_ context.Context, appointmentID uuid.UUID) ([]*prescription.Prescription, error) {
	var out []*prescription.Prescription
	for _, p := range m.docs {
		if p.AppointmentID == appointmentID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func sortByStart(appts []*appointment.Appointment) {
	sort.Slice(appts, func(i, j int) bool { return appts[i].StartsAt.Before(appts[j].StartsAt) })
}

type memUsers struct {
	byID map[uuid.UUID]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[uuid.UUID]*domain.User)}
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) RecordLogin(_ context.Context, id uuid.UUID) error {
	if u, ok := m.byID[id]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

type memAudit struct{}

func (memAudit) Create(_ context.Context, _ *domain.AuditLog) error { return nil }

// env bundles the fakes and the services under test.
type env struct {
	doctors       *memDoctors
	patients      *memPatients
	appointments  *memAppointments
	users         *memUsers
	prescriptions *memPrescriptions

	availability    *AvailabilityService
	booking         *BookingService
	doctorSvc       *DoctorService
	patientSvc      *PatientService
	prescriptionSvc *PrescriptionService
}

func newEnv() *env {
	log := zap.NewNop()
	e := &env{
		doctors:       newMemDoctors(),
		patients:      newMemPatients(),
		appointments:  newMemAppointments(),
		users:         newMemUsers(),
		prescriptions: &memPrescriptions{},
	}

	audit := NewAuditService(memAudit{}, collectorForTests(), log)
	e.availability = NewAvailabilityService(e.doctors, e.appointments, log)
	e.booking = NewBookingService(e.appointments, e.doctors, e.patients, e.availability, passTx{}, audit, log)
	e.doctorSvc = NewDoctorService(e.doctors, e.appointments, e.patients, e.users, passTx{}, audit, log)
	e.patientSvc = NewPatientService(e.patients, e.appointments, e.doctors, e.users, passTx{}, audit, log)
	e.prescriptionSvc = NewPrescriptionService(e.prescriptions, e.appointments, audit, log)
	return e
}

func (e *env) addDoctor(first, last, specialty string, windows ...string) *doctor.Doctor {
	d := &doctor.Doctor{
		ID:        uuid.New(),
		FirstName: first,
		LastName:  last,
		Specialty: specialty,
		ContactInfo: doctor.ContactInfo{
			Email: strings.ToLower(first + "." + last + "@clinic.test"),
		},
		AvailableTimes: windows,
		CreatedBy:      uuid.New(),
	}
	e.doctors.byID[d.ID] = d
	return d
}

func (e *env) addPatient(first, last string) *patient.Patient {
	p := &patient.Patient{
		ID:        uuid.New(),
		FirstName: first,
		LastName:  last,
		ContactInfo: patient.ContactInfo{
			Email: strings.ToLower(first + "." + last + "@example.test"),
			Phone: "555-" + first,
		},
	}
	e.patients.byID[p.ID] = p
	return p
}

func adminClaims() *domain.Claims {
	return &domain.Claims{UserID: uuid.New(), Role: domain.RoleAdmin}
}

func patientClaims(p *patient.Patient) *domain.Claims {
	return &domain.Claims{UserID: uuid.New(), Role: domain.RolePatient, PatientID: &p.ID}
}

func doctorClaims(d *doctor.Doctor) *domain.Claims {
	return &domain.Claims{UserID: uuid.New(), Role: domain.RoleDoctor, DoctorID: &d.ID}
}

// futureDate is a date far enough ahead that any slot on it passes the
// not-in-the-past check.
func futureDate() time.Time {
	return time.Now().AddDate(0, 0, 7).Truncate(24 * time.Hour)
}

func at(date time.Time, hour int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, date.Location())
}
