package repository

import (
	"go-bazaar-admin/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(product *model.Product) error
	FindAll() ([]model.Product, error)
	FindByID(id uuid.UUID) (*model.Product, error)
	// FindByName matches the exact name and may return several rows
	FindByName(name string) ([]model.Product, error)
	Search(term string) ([]model.Product, error)
	Update(product *model.Product) error
	Delete(id uuid.UUID) error
	Stats(lowStockThreshold int) (*model.InventoryStats, error)
}

type productRepo struct {
	db      *gorm.DB
	locking bool
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepo) FindAll() ([]model.Product, error) {
	var products []model.Product
	err := r.db.Order("created_at ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := lockRow(r.db, r.locking).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByName(name string) ([]model.Product, error) {
	var products []model.Product
	err := lockRow(r.db, r.locking).Where("name = ?", name).Find(&products).Error
	return products, err
}

func (r *productRepo) Search(term string) ([]model.Product, error) {
	var products []model.Product
	err := r.db.Where("name ILIKE ?", ContainsPattern(term)).Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) Update(product *model.Product) error {
	return r.db.Save(product).Error
}

func (r *productRepo) Delete(id uuid.UUID) error {
	res := r.db.Delete(&model.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) Stats(lowStockThreshold int) (*model.InventoryStats, error) {
	var stats model.InventoryStats
	err := r.db.Model(&model.Product{}).
		Select(
			"COUNT(*) AS total_products, "+
				"COALESCE(SUM(CASE WHEN quantity < ? THEN 1 ELSE 0 END), 0)::bigint AS low_stock_count, "+
				"COALESCE(SUM(price * quantity), 0)::bigint AS total_valuation",
			lowStockThreshold,
		).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
