package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clinicdesk/clinicdesk/internal/domain/prescription"
)

const prescriptionCollection = "prescriptions"

type PrescriptionRepository struct {
	coll *mongo.Collection
}

func NewPrescriptionRepository(db *mongo.Database) *PrescriptionRepository {
	return &PrescriptionRepository{coll: db.Collection(prescriptionCollection)}
}

var _ prescription.Repository = (*PrescriptionRepository)(nil)

func (r *PrescriptionRepository) Save(ctx context.Context, p *prescription.Prescription) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("inserting prescription: %w", err)
	}
	return nil
}

func (r *PrescriptionRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*prescription.Prescription, error) {
	cur, err := r.coll.Find(ctx,
		bson.M{"appointment_id": appointmentID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("querying prescriptions for appointment %s: %w", appointmentID, err)
	}
	defer cur.Close(ctx)

	var out []*prescription.Prescription
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding prescriptions: %w", err)
	}
	return out, nil
}
