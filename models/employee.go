package models

import "time"

// Employee 借用人。按显示名首次借用时自动创建，从不删除。
// NameKey 是 case-folding 之后的名字，唯一索引靠它保证大小写不敏感。
type Employee struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	NameKey      string    `gorm:"size:255;not null;uniqueIndex" json:"-"`
	EmployeeCode string    `gorm:"size:64" json:"employeeCode,omitempty"`
	Department   string    `gorm:"size:120" json:"department,omitempty"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Employee) TableName() string {
	return EmployeeTable
}
