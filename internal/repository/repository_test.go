package repository

import (
	"testing"
	"time"

	"go-bazaar-admin/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	return db, mock
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%widget%", ContainsPattern("widget"))
	assert.Equal(t, `%50\%\_off%`, ContainsPattern("50%_off"))
	assert.Equal(t, `%a\\b%`, ContainsPattern(`a\b`))
}

func TestAuditLogRepo_ListFiltersAndOrders(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditLogRepo(db)

	id := uuid.New()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "action", "entity_name", "quantity", "price", "created_at"}).
		AddRow(id.String(), "DELETE", "Big Widget", 5, int64(1000), created)

	mock.ExpectQuery(`SELECT \* FROM "audit_log_entries" WHERE entity_name ILIKE \$1 ORDER BY created_at DESC`).
		WithArgs("%widget%").
		WillReturnRows(rows)

	entries, err := repo.List(ListLogsOptions{Name: "widget", NewestFirst: true})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, model.LogDelete, entries[0].Action)
	require.NotNil(t, entries[0].Price)
	assert.Equal(t, "10.00", entries[0].Price.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogRepo_ListOldestFirstWithoutFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditLogRepo(db)

	mock.ExpectQuery(`SELECT \* FROM "audit_log_entries" ORDER BY created_at ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	entries, err := repo.List(ListLogsOptions{})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogRepo_DeleteMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditLogRepo(db)

	mock.ExpectExec(`DELETE FROM "audit_log_entries" WHERE id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(uuid.New())
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogRepo_DeleteAll(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditLogRepo(db)

	mock.ExpectExec(`DELETE FROM "audit_log_entries" WHERE 1 = 1`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteAll()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogRepo_HasRestoration(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditLogRepo(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "audit_log_entries" WHERE restored_from_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := repo.HasRestoration(uuid.New())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepo_SearchEscapesTerm(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepo(db)

	mock.ExpectQuery(`SELECT \* FROM "products" WHERE name ILIKE \$1 ORDER BY name ASC`).
		WithArgs(`%100\%%`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "quantity"}).
			AddRow(uuid.New().String(), "100% cotton", int64(1999), 2))

	products, err := repo.Search("100%")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "19.99", products[0].Price.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_ResetTokenNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE reset_token = \$1 AND reset_expiry > \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByResetToken("digest", time.Now())
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_TransactionLocksRows(t *testing.T) {
	db, mock := newMockDB(t)
	st := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "pending_registrations" WHERE decision_token = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"email", "username", "password", "decision_token"}).
			AddRow("a@x.com", "alice", "hash", "digest"))
	mock.ExpectExec(`DELETE FROM "pending_registrations" WHERE email = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := st.Transaction(func(tx Store) error {
		p, err := tx.Pending().FindByToken("digest")
		if err != nil {
			return err
		}
		return tx.Pending().Delete(p.Email)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_TransactionRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	st := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "products" WHERE id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := st.Transaction(func(tx Store) error {
		return tx.Products().Delete(uuid.New())
	})
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPendingRepo_CreateConflictIsDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPendingRegistrationRepo(db)

	mock.ExpectExec(`INSERT INTO "pending_registrations" .* ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Create(&model.PendingRegistration{Email: "b@x.com", Username: "bob", DecisionToken: "d"})
	assert.True(t, IsDuplicate(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPendingRepo_CreateInserted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPendingRegistrationRepo(db)

	mock.ExpectExec(`INSERT INTO "pending_registrations" .* ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(&model.PendingRegistration{Email: "b@x.com", Username: "bob", DecisionToken: "d"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
