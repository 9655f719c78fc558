package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/clinicdesk/clinicdesk/internal/domain"
	"github.com/clinicdesk/clinicdesk/internal/service"
)

// AuditLogRepository writes audit entries with the root handle, never a
// caller transaction: an audit row must survive a rolled-back request.
type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

var _ service.AuditRepository = (*AuditLogRepository)(nil)

func (r *AuditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}
