package service

import (
	"fmt"
	"strings"
	"time"

	"go-bazaar-admin/internal/apperror"
	"go-bazaar-admin/internal/model"
	"go-bazaar-admin/internal/repository"
	"go-bazaar-admin/pkg/validator"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type InventoryService interface {
	CreateProduct(req *ProductInput, actor string) (*model.Product, error)
	GetAllProducts() ([]model.Product, error)
	GetProduct(id uuid.UUID) (*model.Product, error)
	UpdateProduct(id uuid.UUID, req *ProductInput, actor string) (*model.Product, error)
	UpdateProductByName(name string, req *ProductInput, actor string) (*model.Product, error)
	DeleteProduct(id uuid.UUID, actor string) error
	DeleteProductByName(name string, actor string) error
	SearchProducts(term string) ([]model.Product, error)
	ExportCSV() ([]byte, error)
	Overview() ([]model.InventoryItem, error)
}

// ProductInput is the body of create and update requests. On update,
// nil fields are left unchanged.
type ProductInput struct {
	Name        *string      `json:"name"`
	Price       *model.Money `json:"price"`
	Quantity    *int         `json:"quantity"`
	Description *string      `json:"description"`
}

type productCSV struct {
	Name        string      `csv:"name"`
	Price       model.Money `csv:"price"`
	Quantity    int         `csv:"quantity"`
	Description string      `csv:"description"`
	CreatedAt   string      `csv:"created_at"`
}

type inventoryService struct {
	store             repository.Store
	events            EventPublisher
	lowStockThreshold int
	log               *zap.Logger
}

func NewInventoryService(store repository.Store, events EventPublisher, lowStockThreshold int, log *zap.Logger) InventoryService {
	return &inventoryService{
		store:             store,
		events:            publisherOrNop(events),
		lowStockThreshold: lowStockThreshold,
		log:               log.Named("inventory"),
	}
}

func requireField(field string) error {
	return apperror.NewValidation(fmt.Sprintf("Validation failed: Field 'Product.%s' failed on tag 'required'", field))
}

// apply copies the set fields of req onto p and validates the result
func (req *ProductInput) apply(p *model.Product) error {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
	if req.Description != nil {
		desc := *req.Description
		p.Description = &desc
	}
	if msg := validator.FirstError(p); msg != "" {
		return apperror.NewValidation(msg)
	}
	return nil
}

func (s *inventoryService) CreateProduct(req *ProductInput, actor string) (*model.Product, error) {
	// 1. Required fields
	switch {
	case req.Name == nil:
		return nil, requireField("Name")
	case req.Price == nil:
		return nil, requireField("Price")
	case req.Quantity == nil:
		return nil, requireField("Quantity")
	}

	// 2. Validate
	product := &model.Product{CreatedBy: actor, UpdatedBy: actor}
	if err := req.apply(product); err != nil {
		return nil, err
	}

	// 3. Save together with the ADD entry
	var entry *model.AuditLogEntry
	err := s.store.Transaction(func(tx repository.Store) error {
		if err := tx.Products().Create(product); err != nil {
			return err
		}
		var err error
		entry, err = recordAudit(tx, model.LogAdd, product, actor, nil)
		return err
	})
	if err != nil {
		return nil, passThrough(s.log, "create product", err)
	}

	s.broadcast("product_created", fmt.Sprintf("%s created product '%s'", actor, product.Name), product, entry)
	return product, nil
}

func (s *inventoryService) GetAllProducts() ([]model.Product, error) {
	products, err := s.store.Products().FindAll()
	if err != nil {
		return nil, internalError(s.log, "list products", err)
	}
	return products, nil
}

func (s *inventoryService) GetProduct(id uuid.UUID) (*model.Product, error) {
	product, err := s.store.Products().FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, internalError(s.log, "find product", err)
	}
	return product, nil
}

// lockByName resolves exactly one product with this name
func lockByName(tx repository.Store, name string) (*model.Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrMissingName
	}
	matches, err := tx.Products().FindByName(name)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, ErrProductNotFound
	case 1:
		return &matches[0], nil
	default:
		return nil, ErrAmbiguousName
	}
}

func lockByID(tx repository.Store, id uuid.UUID) (*model.Product, error) {
	product, err := tx.Products().FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *inventoryService) UpdateProduct(id uuid.UUID, req *ProductInput, actor string) (*model.Product, error) {
	return s.update(func(tx repository.Store) (*model.Product, error) { return lockByID(tx, id) }, req, actor)
}

func (s *inventoryService) UpdateProductByName(name string, req *ProductInput, actor string) (*model.Product, error) {
	return s.update(func(tx repository.Store) (*model.Product, error) { return lockByName(tx, name) }, req, actor)
}

func (s *inventoryService) update(lock func(tx repository.Store) (*model.Product, error), req *ProductInput, actor string) (*model.Product, error) {
	var (
		updated *model.Product
		entry   *model.AuditLogEntry
	)

	err := s.store.Transaction(func(tx repository.Store) error {
		// 1. Find & lock product
		existing, err := lock(tx)
		if err != nil {
			return err
		}

		// 2. Apply changes
		if err := req.apply(existing); err != nil {
			return err
		}
		existing.UpdatedBy = actor

		// 3. Save and record the UPDATE entry in the same transaction
		if err := tx.Products().Update(existing); err != nil {
			return err
		}
		entry, err = recordAudit(tx, model.LogUpdate, existing, actor, nil)
		if err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, passThrough(s.log, "update product", err)
	}

	s.broadcast("product_updated", fmt.Sprintf("%s updated product '%s'", actor, updated.Name), updated, entry)
	return updated, nil
}

func (s *inventoryService) DeleteProduct(id uuid.UUID, actor string) error {
	return s.delete(func(tx repository.Store) (*model.Product, error) { return lockByID(tx, id) }, actor)
}

func (s *inventoryService) DeleteProductByName(name string, actor string) error {
	return s.delete(func(tx repository.Store) (*model.Product, error) { return lockByName(tx, name) }, actor)
}

func (s *inventoryService) delete(lock func(tx repository.Store) (*model.Product, error), actor string) error {
	var (
		deleted *model.Product
		entry   *model.AuditLogEntry
	)

	err := s.store.Transaction(func(tx repository.Store) error {
		existing, err := lock(tx)
		if err != nil {
			return err
		}

		// the DELETE entry keeps everything undo needs
		entry, err = recordAudit(tx, model.LogDelete, existing, actor, nil)
		if err != nil {
			return err
		}
		if err := tx.Products().Delete(existing.ID); err != nil {
			return err
		}
		deleted = existing
		return nil
	})
	if err != nil {
		return passThrough(s.log, "delete product", err)
	}

	s.broadcast("product_deleted", fmt.Sprintf("%s deleted product '%s'", actor, deleted.Name), deleted, entry)
	return nil
}

func (s *inventoryService) SearchProducts(term string) ([]model.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrEmptySearch
	}
	products, err := s.store.Products().Search(term)
	if err != nil {
		return nil, internalError(s.log, "search products", err)
	}
	if len(products) == 0 {
		return nil, ErrNoMatches
	}
	return products, nil
}

func (s *inventoryService) ExportCSV() ([]byte, error) {
	products, err := s.store.Products().FindAll()
	if err != nil {
		return nil, internalError(s.log, "list products", err)
	}
	if len(products) == 0 {
		return nil, ErrNoProducts
	}

	rows := make([]*productCSV, 0, len(products))
	for _, p := range products {
		row := &productCSV{
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  p.Quantity,
			CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		}
		if p.Description != nil {
			row.Description = *p.Description
		}
		rows = append(rows, row)
	}

	out, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, internalError(s.log, "encode csv", err)
	}
	return out, nil
}

func (s *inventoryService) Overview() ([]model.InventoryItem, error) {
	products, err := s.store.Products().FindAll()
	if err != nil {
		return nil, internalError(s.log, "list products", err)
	}
	items := make([]model.InventoryItem, 0, len(products))
	for _, p := range products {
		items = append(items, model.InventoryItem{
			Name:       p.Name,
			Quantity:   p.Quantity,
			IsLowStock: p.Quantity < s.lowStockThreshold,
		})
	}
	return items, nil
}

func (s *inventoryService) broadcast(eventType, message string, product *model.Product, entry *model.AuditLogEntry) {
	s.events.Publish(eventType, message, product)
	if entry != nil {
		s.events.Publish("audit_log_created", message, entry)
	}
}
