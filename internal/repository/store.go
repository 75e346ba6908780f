package repository

import (
	"errors"
	"strings"

	"go-bazaar-admin/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store hands out repositories bound to one connection or transaction
type Store interface {
	Users() UserRepository
	Pending() PendingRegistrationRepository
	Products() ProductRepository
	AuditLogs() AuditLogRepository

	// Transaction runs fn atomically. Single-row lookups made through tx
	// take a row lock (SELECT ... FOR UPDATE) until fn returns.
	Transaction(fn func(tx Store) error) error
}

type store struct {
	db      *gorm.DB
	locking bool
}

func NewStore(db *gorm.DB) Store {
	return &store{db: db}
}

func (s *store) Users() UserRepository {
	return &userRepo{db: s.db, locking: s.locking}
}

func (s *store) Pending() PendingRegistrationRepository {
	return &pendingRepo{db: s.db, locking: s.locking}
}

func (s *store) Products() ProductRepository {
	return &productRepo{db: s.db, locking: s.locking}
}

func (s *store) AuditLogs() AuditLogRepository {
	return &auditLogRepo{db: s.db, locking: s.locking}
}

func (s *store) Transaction(fn func(tx Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&store{db: tx, locking: true})
	})
}

// Migrate creates or updates the schema for every persisted model
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.PendingRegistration{},
		&model.Product{},
		&model.AuditLogEntry{},
	)
}

// IsNotFound reports a missing row, from gorm or from a fake store
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports a unique constraint violation
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func lockRow(db *gorm.DB, locking bool) *gorm.DB {
	if locking {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds an ILIKE pattern matching term anywhere, literally
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
