package repository

import (
	"time"

	"go-bazaar-admin/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	FindByID(id uuid.UUID) (*model.User, error)
	FindByUsername(username string) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	// FindByResetToken only matches tokens whose expiry is strictly after now
	FindByResetToken(digest string, now time.Time) (*model.User, error)
	FindByEmailChangeToken(digest string) (*model.User, error)
	Create(user *model.User) error
	Update(user *model.User) error
	UpdatePassword(userID uuid.UUID, hashedPassword string) error
}

type userRepo struct {
	db      *gorm.DB
	locking bool
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) first(query string, args ...interface{}) (*model.User, error) {
	var user model.User
	if err := lockRow(r.db, r.locking).Where(query, args...).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindByID(id uuid.UUID) (*model.User, error) {
	return r.first("id = ?", id)
}

func (r *userRepo) FindByUsername(username string) (*model.User, error) {
	return r.first("username = ?", username)
}

func (r *userRepo) FindByEmail(email string) (*model.User, error) {
	return r.first("email = ?", email)
}

func (r *userRepo) FindByResetToken(digest string, now time.Time) (*model.User, error) {
	return r.first("reset_token = ? AND reset_expiry > ?", digest, now)
}

func (r *userRepo) FindByEmailChangeToken(digest string) (*model.User, error) {
	return r.first("email_change_token = ?", digest)
}

func (r *userRepo) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *userRepo) Update(user *model.User) error {
	return r.db.Save(user).Error
}

func (r *userRepo) UpdatePassword(userID uuid.UUID, hashedPassword string) error {
	res := r.db.Model(&model.User{}).Where("id = ?", userID).Update("password", hashedPassword)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
