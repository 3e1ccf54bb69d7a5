package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AuditStockAdjust = "stock_adjust"
	AuditImport      = "import"
)

// AuditLog 记录库存调整和批量导入，只追加不修改
type AuditLog struct {
	ID        string         `gorm:"size:36;primaryKey" json:"id"`
	Action    string         `gorm:"size:32;not null;index" json:"action"`
	Subject   string         `gorm:"size:255" json:"subject"`
	Detail    datatypes.JSON `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (AuditLog) TableName() string { return "audit_logs" }
