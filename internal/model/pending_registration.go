package model

import "time"

// PendingRegistration is a registration request awaiting an admin decision.
// It is keyed by email and never coexists with a User of the same email.
type PendingRegistration struct {
	Email    string `gorm:"type:varchar(255);primaryKey" json:"email"`
	Username string `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Password string `gorm:"type:varchar(255);not null" json:"-"` // bcrypt hash

	// Digest of the opaque single-use token carried by the admin decision links
	DecisionToken  string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	DecisionExpiry time.Time `gorm:"not null" json:"decision_expiry"`
	CreatedAt      time.Time `json:"created_at"`
}

// Expired reports whether the decision token can no longer be used
func (p *PendingRegistration) Expired(now time.Time) bool {
	return !p.DecisionExpiry.After(now)
}
