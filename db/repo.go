package db

import (
	"context"
	"errors"
	"strings"

	"workshop_tool_inventory/models"

	"golang.org/x/text/cases"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

// lockForUpdate 在 Postgres 上加行锁；SQLite 没有行锁，靠单连接串行化
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Employees

// NameKey folds a display name so "MARÍA" and "maría" resolve to the same
// employee. SQL LOWER() is ASCII-only on SQLite, so folding happens here.
func NameKey(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

// ResolveEmployee 按名字（大小写不敏感）查员工，不存在就创建
func (r *Repo) ResolveEmployee(ctx context.Context, name string) (*models.Employee, error) {
	return resolveEmployee(r.DB.WithContext(ctx), name)
}

func resolveEmployee(tx *gorm.DB, name string) (*models.Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("employee name is required")
	}
	key := NameKey(name)

	var e models.Employee
	err := tx.Where("name_key = ?", key).First(&e).Error
	if err == nil {
		return &e, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 并发首次引用同一个名字时，唯一索引 + DO NOTHING 保证只落一行
	e = models.Employee{Name: name, NameKey: key, Active: true}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name_key"}},
		DoNothing: true,
	}).Create(&e).Error; err != nil {
		return nil, err
	}
	if e.ID != 0 {
		return &e, nil
	}
	if err := tx.Where("name_key = ?", key).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repo) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var es []models.Employee
	err := r.DB.WithContext(ctx).Order("name").Find(&es).Error
	return es, err
}

// SeedEmployee 只在名字不存在时插入，带上工号/部门
func (r *Repo) SeedEmployee(ctx context.Context, name, code, department string) (bool, error) {
	e := models.Employee{
		Name:         name,
		NameKey:      NameKey(name),
		EmployeeCode: code,
		Department:   department,
		Active:       true,
	}
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name_key"}},
		DoNothing: true,
	}).Create(&e)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repo) CountEmployees(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Employee{}).Count(&n).Error
	return n, err
}
