package db

import (
	"context"
	"errors"
	"strings"

	"workshop_tool_inventory/metrics"
	"workshop_tool_inventory/models"

	"gorm.io/gorm"
)

type ImportRow struct {
	CatalogID string
	Name      string
	Equipment string
	Brand     string
	Stock     int
	Notes     string
}

type ImportResult struct {
	Imported int `json:"imported"`
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// ImportItems 整批一个事务，任意一行出错全部回滚。
// 有 catalog id 的按它 upsert；新物品 stock = available；
// 已存在的物品按 AdjustStock 的规则重算 available，未还的借用照样算数。
func (r *Repo) ImportItems(ctx context.Context, source string, rows []ImportRow) (ImportResult, error) {
	var res ImportResult
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			name := strings.TrimSpace(row.Name)
			if name == "" {
				res.Skipped++
				continue
			}
			if row.Stock < 0 {
				row.Stock = 0
			}
			catalogID := strings.TrimSpace(row.CatalogID)

			if catalogID != "" {
				var existing models.Item
				err := lockForUpdate(tx).Where("catalog_id = ?", catalogID).First(&existing).Error
				if err == nil {
					out, err := outstandingOnLoan(tx, existing.ID)
					if err != nil {
						return err
					}
					if err := tx.Model(&models.Item{}).
						Where("id = ?", existing.ID).
						Updates(map[string]any{
							"name":      name,
							"equipment": strings.TrimSpace(row.Equipment),
							"brand":     strings.TrimSpace(row.Brand),
							"notes":     row.Notes,
							"stock":     row.Stock,
							"available": rederiveAvailable(out, row.Stock),
						}).Error; err != nil {
						return err
					}
					res.Updated++
					res.Imported++
					continue
				}
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
			}

			it := models.Item{
				CatalogID: catalogID,
				Name:      name,
				Equipment: strings.TrimSpace(row.Equipment),
				Brand:     strings.TrimSpace(row.Brand),
				Stock:     row.Stock,
				Available: row.Stock,
				Location:  "workshop",
				Notes:     row.Notes,
			}
			if err := tx.Create(&it).Error; err != nil {
				return err
			}
			res.Created++
			res.Imported++
		}

		_, err := writeAudit(tx, models.AuditImport, source, res)
		return err
	})
	if err != nil {
		return ImportResult{}, err
	}
	metrics.ItemsImported.Add(float64(res.Imported))
	return res, nil
}
