package prescription

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Prescription is a loosely-structured document linked to an appointment.
// It lives in the document store, not the relational schema; Extra carries
// whatever additional fields a clinic records without a schema migration.
type Prescription struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AppointmentID uuid.UUID          `json:"appointment_id" bson:"appointment_id"`
	PatientName   string             `json:"patient_name" bson:"patient_name"`
	Medication    string             `json:"medication" bson:"medication"`
	Dosage        string             `json:"dosage" bson:"dosage"`
	DoctorNotes   string             `json:"doctor_notes,omitempty" bson:"doctor_notes,omitempty"`
	Extra         map[string]any     `json:"extra,omitempty" bson:"extra,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	CreatedBy     uuid.UUID          `json:"-" bson:"created_by"`
}

type SavePrescriptionCommand struct {
	AppointmentID uuid.UUID
	PatientName   string
	Medication    string
	Dosage        string
	DoctorNotes   string
	Extra         map[string]any
	CreatedBy     uuid.UUID
}
