package model

type Product struct {
	BaseModel
	Name        string  `gorm:"type:varchar(255);not null;index" json:"name" validate:"required,max=255"`
	Price       Money   `gorm:"type:bigint;not null" json:"price" validate:"gte=0"`
	Quantity    int     `gorm:"not null" json:"quantity" validate:"gte=0"`
	Description *string `gorm:"type:text" json:"description,omitempty"`

	// User tracking
	CreatedBy string `gorm:"type:varchar(255)" json:"created_by,omitempty"`
	UpdatedBy string `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
}

// InventoryItem is the overview row with the low stock indicator
type InventoryItem struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	IsLowStock bool   `json:"is_low_stock"`
}

// InventoryStats for the dashboard overview
type InventoryStats struct {
	TotalProducts  int64 `json:"total_products"`
	LowStockCount  int64 `json:"low_stock_count"`
	TotalValuation Money `json:"total_valuation"`
}
