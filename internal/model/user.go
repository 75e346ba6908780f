package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Role codes as constants
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an approved account in the system
type User struct {
	BaseModel
	Username string `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email    string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password string `gorm:"type:varchar(255);not null" json:"-"` // bcrypt hash, hidden from JSON
	Verified bool   `gorm:"default:false" json:"verified"`
	Role     string `gorm:"type:varchar(20);default:'user'" json:"role"`

	// Password reset: digest and expiry are set together or both nil
	ResetToken  *string    `gorm:"type:varchar(64);index" json:"-"`
	ResetExpiry *time.Time `json:"-"`

	// Email change: pending address, token digest and expiry travel together
	PendingEmail      *string    `gorm:"type:varchar(255)" json:"-"`
	EmailChangeToken  *string    `gorm:"type:varchar(64);index" json:"-"`
	EmailChangeExpiry *time.Time `json:"-"`
}

// HashPassword returns the bcrypt hash stored for a password
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedPassword), nil
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// SetResetToken stores the digest and absolute expiry of a password reset token
func (u *User) SetResetToken(digest string, expiry time.Time) {
	u.ResetToken = &digest
	u.ResetExpiry = &expiry
}

func (u *User) ClearResetToken() {
	u.ResetToken = nil
	u.ResetExpiry = nil
}

// SetPendingEmail queues an email change until the token sent to the new address is verified
func (u *User) SetPendingEmail(email, digest string, expiry time.Time) {
	u.PendingEmail = &email
	u.EmailChangeToken = &digest
	u.EmailChangeExpiry = &expiry
}

func (u *User) ClearPendingEmail() {
	u.PendingEmail = nil
	u.EmailChangeToken = nil
	u.EmailChangeExpiry = nil
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Verified  bool      `json:"verified"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Verified:  u.Verified,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
