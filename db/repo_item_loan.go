package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"workshop_tool_inventory/metrics"
	"workshop_tool_inventory/models"

	"gorm.io/gorm"
)

var loanOutcomes = map[string]error{
	"validation":   ErrValidation,
	"not_found":    ErrNotFound,
	"insufficient": ErrInsufficientStock,
	"no_loan":      ErrNoActiveLoan,
}

type CheckoutInput struct {
	ItemID         uint
	EmployeeName   string
	Quantity       int
	Location       string     // 默认 field
	OrderRef       string     // 可选：工单号
	ExpectedReturn *time.Time // 可选
}

type CheckoutResult struct {
	Loan     models.Loan     `json:"loan"`
	Item     models.Item     `json:"item"`
	Employee models.Employee `json:"employee"`
}

func (r CheckoutResult) Message() string {
	return fmt.Sprintf("Checked out %d x %s to %s", r.Loan.Quantity, r.Item.Name, r.Employee.Name)
}

type CheckinResult struct {
	Loan         models.Loan `json:"loan"`
	Item         models.Item `json:"item"`
	EmployeeName string      `json:"employeeName"`
	Returned     int         `json:"returned"`
	Remaining    int         `json:"remaining"`
}

func (r CheckinResult) Message() string {
	msg := fmt.Sprintf("Returned %d x %s from %s", r.Returned, r.Item.Name, r.EmployeeName)
	if r.Remaining > 0 {
		msg += fmt.Sprintf(" (%d still out)", r.Remaining)
	}
	return msg
}

func insufficient(available int) error {
	return newOpError(ErrInsufficientStock, "Not enough available. Only %d in stock", available)
}

// Checkout 借出：一个事务内 = 解析员工 → 锁住 item → 校验可借数量 → 条件扣减 → 新建 loan
func (r *Repo) Checkout(ctx context.Context, in CheckoutInput) (out *CheckoutResult, err error) {
	defer func() {
		metrics.LoanOps.WithLabelValues("checkout", metrics.Outcome(err, loanOutcomes)).Inc()
	}()

	if in.Quantity <= 0 {
		return nil, validationf("quantity must be at least 1")
	}
	loc := strings.TrimSpace(in.Location)
	if loc == "" {
		loc = "field"
	}

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1) 员工不存在就创建
		emp, err := resolveEmployee(tx, in.EmployeeName)
		if err != nil {
			return err
		}

		// 2) 锁住该物品
		var it models.Item
		if err := lockForUpdate(tx).First(&it, "id = ?", in.ItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newOpError(ErrNotFound, "Item not found")
			}
			return err
		}

		// 3) 可借数量不够直接拒绝
		if in.Quantity > it.Available {
			return insufficient(it.Available)
		}

		// 4) 条件扣减：没有行锁（SQLite）时 available 也不会被减成负数
		upd := tx.Model(&models.Item{}).
			Where("id = ? AND available >= ?", it.ID, in.Quantity).
			Update("available", gorm.Expr("available - ?", in.Quantity))
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			var cur models.Item
			if err := tx.Select("available").First(&cur, "id = ?", it.ID).Error; err != nil {
				return err
			}
			return insufficient(cur.Available)
		}
		it.Available -= in.Quantity

		// 5) 新建 loan
		l := models.Loan{
			ItemID:         it.ID,
			EmployeeID:     emp.ID,
			Quantity:       in.Quantity,
			CheckoutAt:     time.Now().UTC(),
			ExpectedReturn: in.ExpectedReturn,
			Location:       loc,
			OrderRef:       strings.TrimSpace(in.OrderRef),
			Status:         models.LoanActive,
		}
		if err := tx.Create(&l).Error; err != nil {
			return err
		}
		out = &CheckoutResult{Loan: l, Item: it, Employee: *emp}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Checkin 归还该物品最近的一条未还借用。
// quantity 为 nil 时归还剩余全部；部分归还时 loan 保持 active，直到全部还清才变为 returned。
// available 增加后不超过 stock。
func (r *Repo) Checkin(ctx context.Context, itemID uint, quantity *int) (out *CheckinResult, err error) {
	defer func() {
		metrics.LoanOps.WithLabelValues("checkin", metrics.Outcome(err, loanOutcomes)).Inc()
	}()

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1) 锁住 item 行
		var it models.Item
		if err := lockForUpdate(tx).First(&it, "id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newOpError(ErrNotFound, "Item not found")
			}
			return err
		}

		// 2) 最近一条 active loan；同一时间戳按 id 倒序，保证结果确定
		var loan models.Loan
		if err := lockForUpdate(tx).
			Where("item_id = ? AND status = ?", itemID, models.LoanActive).
			Order("checkout_at DESC, id DESC").
			First(&loan).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newOpError(ErrNoActiveLoan, "No active checkout found for this item")
			}
			return err
		}

		outstanding := loan.Outstanding()
		qty := outstanding
		if quantity != nil {
			qty = *quantity
		}
		if qty <= 0 {
			return validationf("quantity must be at least 1")
		}
		if qty > outstanding {
			return validationf("cannot return %d, only %d outstanding on this checkout", qty, outstanding)
		}

		// 3) 更新 loan
		now := time.Now().UTC()
		update := map[string]any{
			"returned_quantity": loan.ReturnedQuantity + qty,
			"updated_at":        now,
		}
		if qty == outstanding {
			update["status"] = models.LoanReturned
			update["returned_at"] = now
		}
		if err := tx.Model(&models.Loan{}).
			Where("id = ?", loan.ID).
			Updates(update).Error; err != nil {
			return err
		}
		loan.ReturnedQuantity += qty
		if qty == outstanding {
			loan.Status = models.LoanReturned
			loan.ReturnedAt = &now
		}

		// 4) 释放库存，封顶 stock（stock 可能在借出期间被调小）
		if err := tx.Model(&models.Item{}).
			Where("id = ?", it.ID).
			Update("available", gorm.Expr("CASE WHEN available + ? > stock THEN stock ELSE available + ? END", qty, qty)).Error; err != nil {
			return err
		}
		it.Available = min(it.Available+qty, it.Stock)

		var emp models.Employee
		if err := tx.Select("id", "name").First(&emp, "id = ?", loan.EmployeeID).Error; err != nil {
			return err
		}
		out = &CheckinResult{
			Loan:         loan,
			Item:         it,
			EmployeeName: emp.Name,
			Returned:     qty,
			Remaining:    loan.Outstanding(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type ActiveLoanRow struct {
	LoanID           uint       `json:"loanId"`
	ItemID           uint       `json:"itemId"`
	ItemName         string     `json:"itemName"`
	Brand            string     `json:"brand"`
	EmployeeName     string     `json:"employeeName"`
	Quantity         int        `json:"quantity"`
	ReturnedQuantity int        `json:"returnedQuantity"`
	CheckoutAt       time.Time  `json:"checkoutAt"`
	ExpectedReturn   *time.Time `json:"expectedReturn,omitempty"`
	Location         string     `json:"location"`
	OrderRef         string     `json:"orderRef,omitempty"`
}

func (r ActiveLoanRow) Outstanding() int { return r.Quantity - r.ReturnedQuantity }

func (r ActiveLoanRow) OverdueAt(now time.Time) bool {
	return r.ExpectedReturn != nil && r.ExpectedReturn.Before(now)
}

// ListActiveLoans 所有未还借用，带物品名/品牌/员工名，按借出时间倒序
func (r *Repo) ListActiveLoans(ctx context.Context) ([]ActiveLoanRow, error) {
	var rows []ActiveLoanRow
	err := r.DB.WithContext(ctx).
		Table(models.LoanTable+" l").
		Select(`
			l.id AS loan_id, l.item_id, l.quantity, l.returned_quantity,
			l.checkout_at, l.expected_return, l.location, l.order_ref,
			i.name AS item_name, i.brand,
			e.name AS employee_name
		`).
		Joins("JOIN "+models.ItemTable+" i ON i.id = l.item_id").
		Joins("JOIN "+models.EmployeeTable+" e ON e.id = l.employee_id").
		Where("l.status = ?", models.LoanActive).
		Order("l.checkout_at DESC, l.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListOverdueLoans 过了预计归还日期还没还的
func (r *Repo) ListOverdueLoans(ctx context.Context, now time.Time) ([]ActiveLoanRow, error) {
	rows, err := r.ListActiveLoans(ctx)
	if err != nil {
		return nil, err
	}
	overdue := rows[:0]
	for _, row := range rows {
		if row.OverdueAt(now) {
			overdue = append(overdue, row)
		}
	}
	return overdue, nil
}
