// db/repo_items.go
package db

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"workshop_tool_inventory/models"

	"gorm.io/gorm"
)

type ItemInput struct {
	CatalogID string
	Name      string
	Brand     string
	Equipment string
	Stock     int
	Location  string
	Notes     string
}

type Summary struct {
	TotalItems     int64 `json:"totalItems"`
	TotalStock     int64 `json:"totalStock"`
	TotalAvailable int64 `json:"totalAvailable"`
	LowStockCount  int64 `json:"lowStockCount"`
}

// MaxQuantity caps coerced quantities so huge inputs cannot overflow int.
const MaxQuantity = math.MaxInt32

// CoerceQuantity turns loosely typed input ("3", "3.0", 3.0, nil) into a
// whole quantity. Anything non-numeric becomes 0, fractions are truncated
// and magnitudes are clamped to MaxQuantity.
func CoerceQuantity(v any) int {
	switch x := v.(type) {
	case nil:
		return 0
	case int:
		return clampQuantity(float64(x))
	case int64:
		return clampQuantity(float64(x))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		return clampQuantity(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return clampQuantity(f)
	default:
		return 0
	}
}

// ParseQuantity is the strict form used for loan quantities: the value must
// be a whole number. ok is false for fractions and non-numeric input.
func ParseQuantity(v any) (n int, ok bool) {
	var f float64
	switch x := v.(type) {
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case float64:
		f = x
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(x), 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return clampQuantity(f), true
}

func clampQuantity(f float64) int {
	switch {
	case f >= MaxQuantity:
		return MaxQuantity
	case f <= -MaxQuantity:
		return -MaxQuantity
	}
	return int(f)
}

func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}

// SearchItems 名称/品牌/设备类型模糊匹配，空关键词返回全部，按名称排序
func (r *Repo) SearchItems(ctx context.Context, term string) ([]models.Item, error) {
	q := r.DB.WithContext(ctx).Model(&models.Item{})
	if s := strings.TrimSpace(term); s != "" {
		pat := likePattern(s)
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(brand) LIKE ? ESCAPE '\' OR LOWER(equipment) LIKE ? ESCAPE '\'`, pat, pat, pat)
	}
	var items []models.Item
	if err := q.Order("name, id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repo) FindItemByID(ctx context.Context, id uint) (*models.Item, error) {
	var it models.Item
	if err := r.DB.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newOpError(ErrNotFound, "Item not found")
		}
		return nil, err
	}
	return &it, nil
}

// CreateItem 新增物品，刚入库的物品全部可借（available = stock）
func (r *Repo) CreateItem(ctx context.Context, in ItemInput) (*models.Item, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationf("item name is required")
	}
	if in.Stock < 0 {
		return nil, validationf("stock cannot be negative")
	}
	loc := strings.TrimSpace(in.Location)
	if loc == "" {
		loc = "workshop"
	}
	it := &models.Item{
		CatalogID: strings.TrimSpace(in.CatalogID),
		Name:      name,
		Brand:     strings.TrimSpace(in.Brand),
		Equipment: strings.TrimSpace(in.Equipment),
		Stock:     in.Stock,
		Available: in.Stock,
		Location:  loc,
		Notes:     in.Notes,
	}
	if err := r.DB.WithContext(ctx).Create(it).Error; err != nil {
		return nil, err
	}
	return it, nil
}

// AdjustStock 改总数，保留已借出数量，只调整可借余量：
// available = max(0, newStock - 未还数量)，未还数量按借用记录汇总，
// 不用 stock - available（缩减库存后 available 被截到 0，差值就不准了）
func (r *Repo) AdjustStock(ctx context.Context, id uint, newStock int) (*models.Item, error) {
	if newStock < 0 {
		return nil, validationf("stock cannot be negative")
	}
	var it models.Item
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&it, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newOpError(ErrNotFound, "Item not found")
			}
			return err
		}
		before := it
		out, err := outstandingOnLoan(tx, it.ID)
		if err != nil {
			return err
		}
		it.Available = rederiveAvailable(out, newStock)
		it.Stock = newStock
		if err := tx.Model(&models.Item{}).
			Where("id = ?", it.ID).
			Updates(map[string]any{"stock": it.Stock, "available": it.Available}).Error; err != nil {
			return err
		}
		_, err = writeAudit(tx, models.AuditStockAdjust, it.Name, map[string]any{
			"itemId":          it.ID,
			"stockBefore":     before.Stock,
			"availableBefore": before.Available,
			"stock":           it.Stock,
			"available":       it.Available,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func rederiveAvailable(outstanding, newStock int) int {
	return max(0, newStock-outstanding)
}

// outstandingOnLoan 该物品所有进行中借用的未还数量之和
func outstandingOnLoan(tx *gorm.DB, itemID uint) (int, error) {
	var n int64
	err := tx.Model(&models.Loan{}).
		Where("item_id = ? AND status = ?", itemID, models.LoanActive).
		Select("COALESCE(SUM(quantity - returned_quantity), 0)").
		Scan(&n).Error
	return int(n), err
}

func (r *Repo) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	db := r.DB.WithContext(ctx)
	if err := db.Model(&models.Item{}).
		Select("COUNT(*) AS total_items, COALESCE(SUM(stock), 0) AS total_stock, COALESCE(SUM(available), 0) AS total_available").
		Scan(&s).Error; err != nil {
		return Summary{}, err
	}
	if err := db.Model(&models.Item{}).
		Where("available <= ?", models.LowStockThreshold).
		Count(&s.LowStockCount).Error; err != nil {
		return Summary{}, err
	}
	return s, nil
}
