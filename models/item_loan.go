// models/item_loan.go
package models

import "time"

const (
	ItemTable     = "items"
	EmployeeTable = "employees"
	LoanTable     = "loans"
)

const (
	LoanActive   = "active"
	LoanReturned = "returned"
)

// LowStockThreshold: available <= 2 视为低库存
const LowStockThreshold = 2

type Item struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CatalogID string    `gorm:"size:120;index" json:"catalogId,omitempty"` // 外部目录编号，导入时用来 upsert
	Name      string    `gorm:"size:200;not null;index" json:"name"`
	Brand     string    `gorm:"size:120" json:"brand"`
	Equipment string    `gorm:"size:120" json:"equipment"`
	Stock     int       `gorm:"not null;default:0;check:chk_items_stock,stock >= 0" json:"stock"`                                  // 总数
	Available int       `gorm:"not null;default:0;check:chk_items_available,available >= 0 AND available <= stock" json:"available"` // 可借数量
	Location  string    `gorm:"size:120;not null;default:'workshop'" json:"location"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Loan struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	ItemID           uint       `gorm:"index;not null" json:"itemId"`
	EmployeeID       uint       `gorm:"index;not null" json:"employeeId"`
	Quantity         int        `gorm:"not null" json:"quantity"`
	ReturnedQuantity int        `gorm:"not null;default:0" json:"returnedQuantity"` // 部分归还时累加
	CheckoutAt       time.Time  `gorm:"index;not null" json:"checkoutAt"`
	ExpectedReturn   *time.Time `json:"expectedReturn,omitempty"`
	ReturnedAt       *time.Time `gorm:"index" json:"returnedAt,omitempty"`
	Location         string     `gorm:"size:120" json:"location"`
	OrderRef         string     `gorm:"size:120" json:"orderRef,omitempty"`
	Status           string     `gorm:"size:20;not null;default:'active';index" json:"status"`

	Item     *Item     `gorm:"foreignKey:ItemID" json:"-"`
	Employee *Employee `gorm:"foreignKey:EmployeeID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Outstanding 还没归还的数量
func (l Loan) Outstanding() int { return l.Quantity - l.ReturnedQuantity }

func (Item) TableName() string { return ItemTable }
func (Loan) TableName() string { return LoanTable }
