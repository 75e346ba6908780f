package service

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go-bazaar-admin/internal/apperror"
	"go-bazaar-admin/internal/config"
	"go-bazaar-admin/internal/model"
	"go-bazaar-admin/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustInput(t *testing.T, body string) *ProductInput {
	t.Helper()
	var in ProductInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	return &in
}

func TestCreateProduct_RoundsPrice(t *testing.T) {
	f := newFixture(t, config.UndoAllowRepeat, nil)

	p, err := f.inventory.CreateProduct(mustInput(t, `{"name":"Widget","price":9.999,"quantity":5}`), "alice")
	require.NoError(t, err)
	assert.Equal(t, "10.00", p.Price.String())

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"price":"10.00"`)

	stored, err := f.inventory.GetProduct(p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Money(1000), stored.Price)
	assert.Equal(t, "alice", stored.CreatedBy)
}

func TestCreateProduct_RecordsAdd(t *testing.T) {
	f := newFixture(t, config.UndoAllowRepeat, nil)

	p, err := f.inventory.CreateProduct(mustInput(t, `{"name":"Widget","price":"2.50","quantity":4,"description":"blue"}`), "alice")
	require.NoError(t, err)

	logs, err := f.audit.List(repository.ListLogsOptions{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	entry := logs[0]
	assert.Equal(t, model.LogAdd, entry.Action)
	assert.Equal(t, "Widget", entry.EntityName)
	assert.Equal(t, 4, entry.Quantity)
	require.NotNil(t, entry.Price)
	assert.Equal(t, "2.50", entry.Price.String())
	require.NotNil(t, entry.Description)
	assert.Equal(t, "blue", *entry.Description)
	require.NotNil(t, entry.ProductID)
	assert.Equal(t, p.ID, *entry.ProductID)
	assert.Equal(t, "alice", entry.PerformedBy)

	assert.Equal(t, []string{"product_created", "audit_log_created"}, f.events.types())
}

func TestCreateProduct_Validation(t *testing.T) {
	f := newFixture(t, config.UndoAllowRepeat, nil)

	for _, body := range []string{
		`{"price":1,"quantity":1}`,
		`{"name":"Widget","quantity":1}`,
		`{"name":"Widget","price":1}`,
		`{"name":"","price":1,"quantity":1}`,
		`{"name":"Widget","price":1,"quantity":-1}`,
		`{"name":"Widget","price":-1,"quantity":1}`,
	} {
		_, err := f.inventory.CreateProduct(mustInput(t, body), "alice")
		assertKind(t, apperror.Validation, err)
	}
	assert.Equal(t, 0, f.store.ProductCount())
	assert.Equal(t, 0, f.store.LogCount())
}

func TestCreateProduct_LogFailureRollsBack(t *testing.T) {
	f := newFixture(t, config.UndoAllowRepeat, nil)
	f.store.Fail("logs.create", errors.New("disk full"))

	_, err := f.inventory.CreateProduct(mustInput(t, `{"name":"Widget","price":1,"quantity":1}`), "alice")
	assertKind(t, apperror.Internal, err)
	assert.Equal(t, 0, f.store.ProductCount())
	assert.Empty(t, f.events.types())
}

func TestUpdateProduct(t *testing.T) {
	f := newFixture(t, config.UndoAllowRepeat, nil)
	p, err := f.inventory.CreateProduct(mustInput(t, `{"name":"Widget","price":1,"quantity":1}`), "alice")
	require.NoError(t, err)

	updated, err := f.inventory.UpdateProduct(p.ID, mustInput(t, `{"quantity":7}`), "bob")
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Quantity)
	assert.Equal(t, "Widget", updated.Name)
	assert.Equal(t, "bob", updated.UpdatedBy)

	logs, _ := f.audit.List(repository.ListLogsOptions{NewestFirst: true})
	require.Len(t, logs, 2)
	assert.Equal(t, model.LogUpdate, logs[0].Action)
	assert.Equal(t, 7, logs[0].Quantity)

	_, err = f.inventory.UpdateProduct(uuid.New(), mustInput(t, `{"quantity":1}`), "bob")
	assertKind(t, apperror.NotFound, err)

	_, err = f.inventory.UpdateProduct(p.ID, mustInput(t, `{"quantity":-3}`), "bob")
	assertKind(t, apperror.Validation, err)
	unchanged, _ := f.inventory.GetProduct(p.ID)
	assert.Equal(t, 7, unchanged.Quantity)
}

func TestUpdateAndDeleteByName(t *testing.T) {
	f := newFixture(t, config.UndoAllowRepeat, nil)
	_, err := f.inventory.CreateProduct(mustInput(t, `{"name":"Widget","price":1,"quantity":1}`), "alice")
	require.NoError(t, err)

	updated, err := f.inventory.UpdateProductByName("Widget", mustInput(t, `{"price":"3.10"}`), "alice")
	require.NoError(t, err)
	assert.Equal(t, "3.10", updated.Price.String())

	_, err = f.inventory.UpdateProductByName("widget", mustInput(t, `{"price":1}`), "alice")
	assertKind(t, apperror.NotFound, err)

	require.NoError(t, f.inventory.DeleteProductByName("Widget", "alice"))
	assert.Equal(t, 0, f.store.ProductCount())

	logs, _ := f.audit.List(repository.ListLogsOptions{NewestFirst: true})
	require.Len(t, logs, 3)
	assert.Equal(t, model.LogDelete, logs[0].Action)
	assert.Equal(t, "3.10", logs[0].Price.String())

	assertKind(t, apperror.NotFound, f.inventory.DeleteProductByName("Widget", "alice"))
	assertKind(t, apperror.Validation, f.inventory.DeleteProductByName("", "alice"))
}

func TestByNameAmbiguous(t *testing.T) {
	f := newFixture(t, config.UndoAllowRepeat, nil)
	for i := 0; i < 2; i++ {
		_, err := f.inventory.CreateProduct(mustInput(t, `{"name":"Widget","price":1,"quantity":1}`), "alice")
		require.NoError(t, err)
	}

	_, err := f.inventory.UpdateProductByName("Widget", mustInput(t, `{"quantity":2}`), "alice")
	assertKind(t, apperror.Conflict, err)
	assertKind(t, apperror.Conflict, f.inventory.DeleteProductByName("Widget", "alice"))
	assert.Equal(t, 2, f.store.ProductCount())
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t, config.UndoAllowRepeat, nil)
	p, err := f.inventory.CreateProduct(mustInput(t, `{"name":"Widget","price":1,"quantity":1}`), "alice")
	require.NoError(t, err)

	require.NoError(t, f.inventory.DeleteProduct(p.ID, "alice"))
	_, err = f.inventory.GetProduct(p.ID)
	assertKind(t, apperror.NotFound, err)
	assertKind(t, apperror.NotFound, f.inventory.DeleteProduct(p.ID, "alice"))
	assert.Contains(t, f.events.types(), "product_deleted")
}

func TestSearchProducts(t *testing.T) {
	f := newFixture(t, config.UndoAllowRepeat, nil)
	for _, name := range []string{"Blue Widget", "red widget", "Gadget"} {
		_, err := f.inventory.CreateProduct(&ProductInput{Name: strPtr(name), Price: new(model.Money), Quantity: intPtr(1)}, "alice")
		require.NoError(t, err)
	}

	found, err := f.inventory.SearchProducts("WIDGET")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = f.inventory.SearchProducts("sprocket")
	assertKind(t, apperror.NotFound, err)
	assert.ErrorIs(t, err, ErrNoMatches)

	_, err = f.inventory.SearchProducts("  ")
	assertKind(t, apperror.Validation, err)
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t, config.UndoAllowRepeat, nil)

	_, err := f.inventory.ExportCSV()
	assertKind(t, apperror.NotFound, err)

	_, err = f.inventory.CreateProduct(mustInput(t, `{"name":"Widget","price":9.999,"quantity":5,"description":"blue"}`), "alice")
	require.NoError(t, err)

	out, err := f.inventory.ExportCSV()
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "name,price,quantity,description,created_at", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Widget,10.00,5,blue,2026-03-01T12:00:00Z"), lines[1])
}

func TestOverview(t *testing.T) {
	f := newFixture(t, config.UndoAllowRepeat, nil)
	_, err := f.inventory.CreateProduct(mustInput(t, `{"name":"Low","price":1,"quantity":2}`), "alice")
	require.NoError(t, err)
	_, err = f.inventory.CreateProduct(mustInput(t, `{"name":"Edge","price":1,"quantity":3}`), "alice")
	require.NoError(t, err)

	items, err := f.inventory.Overview()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, model.InventoryItem{Name: "Low", Quantity: 2, IsLowStock: true}, items[0])
	assert.Equal(t, model.InventoryItem{Name: "Edge", Quantity: 3, IsLowStock: false}, items[1])
}

func TestDashboardStats(t *testing.T) {
	f := newFixture(t, config.UndoAllowRepeat, nil)
	_, err := f.inventory.CreateProduct(mustInput(t, `{"name":"A","price":"1.50","quantity":2}`), "alice")
	require.NoError(t, err)
	_, err = f.inventory.CreateProduct(mustInput(t, `{"name":"B","price":"2.00","quantity":10}`), "alice")
	require.NoError(t, err)

	stats, err := f.dashboard.GetDashboardStats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalProducts)
	assert.Equal(t, int64(1), stats.LowStockCount)
	assert.Equal(t, "23.00", stats.TotalValuation.String())
	assert.Len(t, stats.RecentActivity, 2)
}
