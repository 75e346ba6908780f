package service

import (
	"fmt"

	"go-bazaar-admin/internal/config"
	"go-bazaar-admin/internal/model"
	"go-bazaar-admin/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuditService interface {
	List(opts repository.ListLogsOptions) ([]model.AuditLogEntry, error)
	Clear() (int64, error)
	Delete(id uuid.UUID) error
	// UndoDelete recreates the product captured by a DELETE entry as a new product
	UndoDelete(id uuid.UUID, actor string) (*model.Product, error)
}

type auditService struct {
	store  repository.Store
	policy config.UndoPolicy
	events EventPublisher
	log    *zap.Logger
}

func NewAuditService(store repository.Store, policy config.UndoPolicy, events EventPublisher, log *zap.Logger) AuditService {
	return &auditService{
		store:  store,
		policy: policy,
		events: publisherOrNop(events),
		log:    log.Named("audit"),
	}
}

// recordAudit appends a snapshot of p inside the caller's transaction
func recordAudit(tx repository.Store, action model.LogAction, p *model.Product, actor string, restoredFrom *uuid.UUID) (*model.AuditLogEntry, error) {
	entry := model.NewAuditLogEntry(action, p, actor)
	entry.RestoredFromID = restoredFrom
	if err := tx.AuditLogs().Create(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *auditService) List(opts repository.ListLogsOptions) ([]model.AuditLogEntry, error) {
	entries, err := s.store.AuditLogs().List(opts)
	if err != nil {
		return nil, internalError(s.log, "list logs", err)
	}
	return entries, nil
}

func (s *auditService) Clear() (int64, error) {
	n, err := s.store.AuditLogs().DeleteAll()
	if err != nil {
		return 0, internalError(s.log, "clear logs", err)
	}
	s.log.Info("audit log cleared", zap.Int64("entries", n))
	return n, nil
}

func (s *auditService) Delete(id uuid.UUID) error {
	if err := s.store.AuditLogs().Delete(id); err != nil {
		if repository.IsNotFound(err) {
			return ErrLogNotFound
		}
		return internalError(s.log, "delete log", err)
	}
	return nil
}

func (s *auditService) UndoDelete(id uuid.UUID, actor string) (*model.Product, error) {
	var (
		restored *model.Product
		entry    *model.AuditLogEntry
	)

	err := s.store.Transaction(func(tx repository.Store) error {
		// 1. Find & lock the entry
		source, err := tx.AuditLogs().FindByID(id)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrLogNotFound
			}
			return err
		}

		// 2. Only complete DELETE snapshots can be undone
		if source.Action != model.LogDelete {
			return ErrNotADelete
		}
		if source.Price == nil {
			return ErrMissingData
		}
		if s.policy == config.UndoOnce {
			done, err := tx.AuditLogs().HasRestoration(source.ID)
			if err != nil {
				return err
			}
			if done {
				return ErrAlreadyApplied
			}
		}

		// 3. Rebuild as a new product and record the ADD
		product := &model.Product{
			Name:      source.EntityName,
			Price:     *source.Price,
			Quantity:  source.Quantity,
			CreatedBy: actor,
			UpdatedBy: actor,
		}
		if source.Description != nil {
			desc := *source.Description
			product.Description = &desc
		}
		if err := tx.Products().Create(product); err != nil {
			return err
		}
		entry, err = recordAudit(tx, model.LogAdd, product, actor, &source.ID)
		if err != nil {
			return err
		}
		restored = product
		return nil
	})
	if err != nil {
		return nil, passThrough(s.log, "undo delete", err)
	}

	msg := fmt.Sprintf("%s restored product '%s'", actor, restored.Name)
	s.events.Publish("product_restored", msg, restored)
	s.events.Publish("audit_log_created", msg, entry)
	return restored, nil
}
