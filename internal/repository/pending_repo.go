package repository

import (
	"go-bazaar-admin/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PendingRegistrationRepository interface {
	Create(p *model.PendingRegistration) error
	FindByEmail(email string) (*model.PendingRegistration, error)
	FindByUsername(username string) (*model.PendingRegistration, error)
	FindByToken(digest string) (*model.PendingRegistration, error)
	Delete(email string) error
}

type pendingRepo struct {
	db      *gorm.DB
	locking bool
}

func NewPendingRegistrationRepo(db *gorm.DB) PendingRegistrationRepository {
	return &pendingRepo{db: db}
}

func (r *pendingRepo) first(query string, args ...interface{}) (*model.PendingRegistration, error) {
	var p model.PendingRegistration
	if err := lockRow(r.db, r.locking).Where(query, args...).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts with ON CONFLICT DO NOTHING so a taken email, username or
// token reports gorm.ErrDuplicatedKey without aborting the transaction
func (r *pendingRepo) Create(p *model.PendingRegistration) error {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrDuplicatedKey
	}
	return nil
}

func (r *pendingRepo) FindByEmail(email string) (*model.PendingRegistration, error) {
	return r.first("email = ?", email)
}

func (r *pendingRepo) FindByUsername(username string) (*model.PendingRegistration, error) {
	return r.first("username = ?", username)
}

func (r *pendingRepo) FindByToken(digest string) (*model.PendingRegistration, error) {
	return r.first("decision_token = ?", digest)
}

func (r *pendingRepo) Delete(email string) error {
	res := r.db.Where("email = ?", email).Delete(&model.PendingRegistration{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
