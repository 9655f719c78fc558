package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinicdesk/internal/domain"
	"github.com/clinicdesk/clinicdesk/internal/domain/appointment"
	"github.com/clinicdesk/clinicdesk/internal/domain/prescription"
)

func TestPrescriptionService_Save(t *testing.T) {
	ctx := context.Background()
	date := futureDate()

	seed := func(t *testing.T) (*env, *appointment.Appointment, *domainActors) {
		t.Helper()
		e := newEnv()
		d := e.addDoctor("Noor", "Sato", "Dermatology", "09:00 - 12:00")
		p := e.addPatient("Ife", "Balogun")

		a, err := e.booking.Book(ctx, &appointment.BookAppointmentCommand{
			DoctorID: d.ID, PatientID: p.ID, StartsAt: at(date, 9),
		}, patientClaims(p), "")
		require.NoError(t, err)
		return e, a, &domainActors{doctor: doctorClaims(d), patient: patientClaims(p)}
	}

	t.Run("doctor prescribes against an existing appointment", func(t *testing.T) {
		e, a, actors := seed(t)

		p, err := e.prescriptionSvc.SavePrescription(ctx, &prescription.SavePrescriptionCommand{
			AppointmentID: a.ID,
			PatientName:   "  Ife Balogun ",
			Medication:    " Amoxicillin ",
			Dosage:        "500mg twice daily",
			Extra:         map[string]any{"refills": 1},
		}, actors.doctor, "127.0.0.1")

		require.NoError(t, err)
		assert.False(t, p.ID.IsZero())
		assert.Equal(t, "Ife Balogun", p.PatientName)
		assert.Equal(t, "Amoxicillin", p.Medication)

		stored, err := e.prescriptions.GetByAppointment(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, p.ID, stored[0].ID)
	})

	t.Run("patients cannot prescribe", func(t *testing.T) {
		e, a, actors := seed(t)

		_, err := e.prescriptionSvc.SavePrescription(ctx, &prescription.SavePrescriptionCommand{
			AppointmentID: a.ID,
			Medication:    "Amoxicillin",
			Dosage:        "500mg",
		}, actors.patient, "")
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Empty(t, e.prescriptions.docs)
	})

	t.Run("medication and dosage are required", func(t *testing.T) {
		e, a, actors := seed(t)

		_, err := e.prescriptionSvc.SavePrescription(ctx, &prescription.SavePrescriptionCommand{
			AppointmentID: a.ID,
			Medication:    "   ",
			Dosage:        "500mg",
		}, actors.doctor, "")
		assert.ErrorIs(t, err, prescription.ErrMissingMedication)

		_, err = e.prescriptionSvc.SavePrescription(ctx, &prescription.SavePrescriptionCommand{
			AppointmentID: a.ID,
			Medication:    "Amoxicillin",
		}, actors.doctor, "")
		assert.ErrorIs(t, err, prescription.ErrMissingMedication)
		assert.Empty(t, e.prescriptions.docs)
	})

	t.Run("unknown appointment", func(t *testing.T) {
		e, _, actors := seed(t)

		_, err := e.prescriptionSvc.SavePrescription(ctx, &prescription.SavePrescriptionCommand{
			AppointmentID: uuid.New(),
			Medication:    "Amoxicillin",
			Dosage:        "500mg",
		}, actors.doctor, "")
		assert.ErrorIs(t, err, appointment.ErrAppointmentNotFound)
		assert.Empty(t, e.prescriptions.docs)
	})
}

func TestPrescriptionService_GetByAppointment(t *testing.T) {
	ctx := context.Background()
	date := futureDate()

	e := newEnv()
	d := e.addDoctor("Noor", "Sato", "Dermatology", "09:00 - 12:00")
	p := e.addPatient("Ife", "Balogun")
	other := e.addPatient("Kofi", "Mensah")

	a, err := e.booking.Book(ctx, &appointment.BookAppointmentCommand{
		DoctorID: d.ID, PatientID: p.ID, StartsAt: at(date, 9),
	}, patientClaims(p), "")
	require.NoError(t, err)

	_, err = e.prescriptionSvc.SavePrescription(ctx, &prescription.SavePrescriptionCommand{
		AppointmentID: a.ID,
		Medication:    "Amoxicillin",
		Dosage:        "500mg",
	}, doctorClaims(d), "")
	require.NoError(t, err)

	t.Run("patient reads prescriptions on their own appointment", func(t *testing.T) {
		out, err := e.prescriptionSvc.GetByAppointment(ctx, a.ID, patientClaims(p))
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "Amoxicillin", out[0].Medication)
	})

	t.Run("another patient is forbidden", func(t *testing.T) {
		_, err := e.prescriptionSvc.GetByAppointment(ctx, a.ID, patientClaims(other))
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("doctors read any appointment's prescriptions", func(t *testing.T) {
		out, err := e.prescriptionSvc.GetByAppointment(ctx, a.ID, doctorClaims(d))
		require.NoError(t, err)
		assert.Len(t, out, 1)
	})

	t.Run("unknown appointment", func(t *testing.T) {
		_, err := e.prescriptionSvc.GetByAppointment(ctx, uuid.New(), doctorClaims(d))
		assert.ErrorIs(t, err, appointment.ErrAppointmentNotFound)
	})
}

// domainActors bundles the caller claims a prescription scenario needs.
type domainActors struct {
	doctor  *domain.Claims
	patient *domain.Claims
}
