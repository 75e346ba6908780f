package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LogAction string

const (
	LogAdd    LogAction = "ADD"
	LogUpdate LogAction = "UPDATE"
	LogDelete LogAction = "DELETE"
)

// AuditLogEntry is an append-only snapshot of a product at the moment of a mutation.
// Entries are never updated; they are only removed by explicit clear/delete requests.
type AuditLogEntry struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;" json:"id"`
	Action         LogAction  `gorm:"type:varchar(10);not null;index" json:"action"`
	EntityName     string     `gorm:"type:varchar(255);not null;index" json:"entity_name"`
	ProductID      *uuid.UUID `gorm:"type:uuid" json:"product_id,omitempty"`
	Quantity       int        `gorm:"not null" json:"quantity"`
	Description    *string    `gorm:"type:text" json:"description,omitempty"`
	Price          *Money     `gorm:"type:bigint" json:"price"`
	PerformedBy    string     `gorm:"type:varchar(255)" json:"performed_by,omitempty"`
	RestoredFromID *uuid.UUID `gorm:"type:uuid;index" json:"restored_from_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (e *AuditLogEntry) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}

// NewAuditLogEntry snapshots the product fields for the given action
func NewAuditLogEntry(action LogAction, p *Product, performedBy string) *AuditLogEntry {
	price := p.Price
	entry := &AuditLogEntry{
		Action:      action,
		EntityName:  p.Name,
		Quantity:    p.Quantity,
		Price:       &price,
		PerformedBy: performedBy,
	}
	if p.Description != nil {
		desc := *p.Description
		entry.Description = &desc
	}
	if p.ID != uuid.Nil {
		id := p.ID
		entry.ProductID = &id
	}
	return entry
}
