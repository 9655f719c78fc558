package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
)

type DoctorRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewDoctorRepository(db *gorm.DB, log *zap.Logger) *DoctorRepository {
	return &DoctorRepository{db: db, log: log}
}

var _ doctor.Repository = (*DoctorRepository)(nil)

func (r *DoctorRepository) Create(ctx context.Context, d *doctor.Doctor) error {
	if err := dbFrom(ctx, r.db).Create(d).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return doctor.ErrDoctorAlreadyExists
		}
		return fmt.Errorf("creating doctor: %w", err)
	}
	return nil
}

func (r *DoctorRepository) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	var d doctor.Doctor
	err := dbFrom(ctx, r.db).Where("deleted_at IS NULL").First(&d, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, doctor.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("fetching doctor %s: %w", id, err)
	}
	r.hydrate(&d)
	return &d, nil
}

func (r *DoctorRepository) LockByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	var d doctor.Doctor
	err := dbFrom(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("deleted_at IS NULL").First(&d, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, doctor.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("locking doctor %s: %w", id, err)
	}
	r.hydrate(&d)
	return &d, nil
}

func (r *DoctorRepository) Update(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand) (*doctor.Doctor, error) {
	updates := map[string]any{}
	if cmd.FirstName != nil {
		updates["first_name"] = *cmd.FirstName
	}
	if cmd.LastName != nil {
		updates["last_name"] = *cmd.LastName
	}
	if cmd.Specialty != nil {
		updates["specialty"] = *cmd.Specialty
	}
	if cmd.Phone != nil {
		updates["phone"] = *cmd.Phone
	}
	if cmd.Email != nil {
		updates["email"] = *cmd.Email
	}
	if cmd.AvailableTimes != nil {
		updates["available_times"] = *cmd.AvailableTimes
	}

	if len(updates) > 0 {
		res := dbFrom(ctx, r.db).
			Model(&doctor.Doctor{}).
			Where("id = ?", id).
			Updates(updates)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return nil, doctor.ErrDoctorAlreadyExists
			}
			return nil, fmt.Errorf("updating doctor %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, doctor.ErrDoctorNotFound
		}
	}

	return r.GetByID(ctx, id)
}

func (r *DoctorRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := dbFrom(ctx, r.db).
		Model(&doctor.Doctor{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", gorm.Expr("NOW()"))
	if res.Error != nil {
		return fmt.Errorf("deleting doctor %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return doctor.ErrDoctorNotFound
	}
	return nil
}

func (r *DoctorRepository) FindByNameOrSpecialty(ctx context.Context, name, specialty string) ([]*doctor.Doctor, error) {
	q := dbFrom(ctx, r.db).Model(&doctor.Doctor{}).Where("deleted_at IS NULL")

	if name != "" {
		q = q.Where("(first_name || ' ' || last_name) ILIKE ?", "%"+strings.TrimSpace(name)+"%")
	}
	if specialty != "" {
		q = q.Where("LOWER(specialty) = LOWER(?)", strings.TrimSpace(specialty))
	}

	var out []*doctor.Doctor
	if err := q.Order("last_name ASC, first_name ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("filtering doctors: %w", err)
	}
	for _, d := range out {
		r.hydrate(d)
	}
	return out, nil
}

// hydrate parses the stored availability windows once per load. Malformed
// windows are logged and dropped, never propagated as errors.
func (r *DoctorRepository) hydrate(d *doctor.Doctor) {
	if skipped := d.ParsePatterns(); len(skipped) > 0 {
		r.log.Warn("doctor has malformed availability windows",
			zap.String("doctor_id", d.ID.String()),
			zap.Strings("skipped", skipped),
		)
	}
}
