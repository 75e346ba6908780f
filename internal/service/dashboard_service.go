package service

import (
	"go-bazaar-admin/internal/model"
	"go-bazaar-admin/internal/repository"

	"go.uber.org/zap"
)

const recentActivityLimit = 5

type DashboardStats struct {
	model.InventoryStats
	LowStockThreshold int                   `json:"low_stock_threshold"`
	RecentActivity    []model.AuditLogEntry `json:"recent_activity"`
}

type DashboardService interface {
	GetDashboardStats() (*DashboardStats, error)
}

type dashboardService struct {
	store             repository.Store
	lowStockThreshold int
	log               *zap.Logger
}

func NewDashboardService(store repository.Store, lowStockThreshold int, log *zap.Logger) DashboardService {
	return &dashboardService{store: store, lowStockThreshold: lowStockThreshold, log: log.Named("dashboard")}
}

func (s *dashboardService) GetDashboardStats() (*DashboardStats, error) {
	inventory, err := s.store.Products().Stats(s.lowStockThreshold)
	if err != nil {
		return nil, internalError(s.log, "inventory stats", err)
	}

	recent, err := s.store.AuditLogs().List(repository.ListLogsOptions{NewestFirst: true, Limit: recentActivityLimit})
	if err != nil {
		return nil, internalError(s.log, "recent activity", err)
	}

	return &DashboardStats{
		InventoryStats:    *inventory,
		LowStockThreshold: s.lowStockThreshold,
		RecentActivity:    recent,
	}, nil
}
