package db

import (
	"context"
	"encoding/json"
	"fmt"

	"workshop_tool_inventory/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func writeAudit(tx *gorm.DB, action, subject string, detail any) (*models.AuditLog, error) {
	b, err := json.Marshal(detail)
	if err != nil {
		return nil, fmt.Errorf("encode audit detail: %w", err)
	}
	log := &models.AuditLog{
		ID:      uuid.NewString(),
		Action:  action,
		Subject: subject,
		Detail:  b,
	}
	if err := tx.Create(log).Error; err != nil {
		return nil, fmt.Errorf("insert audit log: %w", err)
	}
	return log, nil
}

// ListAudit 最新的在前；action 为空表示全部
func (r *Repo) ListAudit(ctx context.Context, action string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := r.DB.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if action != "" {
		q = q.Where("action = ?", action)
	}
	var logs []models.AuditLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
