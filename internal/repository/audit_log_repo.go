package repository

import (
	"go-bazaar-admin/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListLogsOptions struct {
	// Name filters by case-insensitive substring of the entity name
	Name        string
	NewestFirst bool
	Limit       int
}

type AuditLogRepository interface {
	Create(entry *model.AuditLogEntry) error
	List(opts ListLogsOptions) ([]model.AuditLogEntry, error)
	FindByID(id uuid.UUID) (*model.AuditLogEntry, error)
	Delete(id uuid.UUID) error
	DeleteAll() (int64, error)
	HasRestoration(deleteEntryID uuid.UUID) (bool, error)
}

type auditLogRepo struct {
	db      *gorm.DB
	locking bool
}

func NewAuditLogRepo(db *gorm.DB) AuditLogRepository {
	return &auditLogRepo{db: db}
}

func (r *auditLogRepo) Create(entry *model.AuditLogEntry) error {
	return r.db.Create(entry).Error
}

func (r *auditLogRepo) List(opts ListLogsOptions) ([]model.AuditLogEntry, error) {
	query := r.db.Model(&model.AuditLogEntry{})
	if opts.Name != "" {
		query = query.Where("entity_name ILIKE ?", ContainsPattern(opts.Name))
	}
	if opts.NewestFirst {
		query = query.Order("created_at DESC")
	} else {
		query = query.Order("created_at ASC")
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	var entries []model.AuditLogEntry
	err := query.Find(&entries).Error
	return entries, err
}

func (r *auditLogRepo) FindByID(id uuid.UUID) (*model.AuditLogEntry, error) {
	var entry model.AuditLogEntry
	if err := lockRow(r.db, r.locking).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *auditLogRepo) Delete(id uuid.UUID) error {
	res := r.db.Delete(&model.AuditLogEntry{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *auditLogRepo) DeleteAll() (int64, error) {
	res := r.db.Where("1 = 1").Delete(&model.AuditLogEntry{})
	return res.RowsAffected, res.Error
}

// HasRestoration reports whether an undo already recreated the product of this entry
func (r *auditLogRepo) HasRestoration(deleteEntryID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&model.AuditLogEntry{}).Where("restored_from_id = ?", deleteEntryID).Count(&count).Error
	return count > 0, err
}
