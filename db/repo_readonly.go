package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// maxQueryRows 防止模型写出没有 LIMIT 的全表查询把结果撑爆
const maxQueryRows = 500

// RunReadOnly 在只读事务里执行一条查询，事务最后一定回滚。
// 调用方负责先做语句白名单检查，这里是第二道防线：
// Postgres 用 READ ONLY 事务；SQLite 的 DDL 也是事务性的，回滚即可撤销。
func (r *Repo) RunReadOnly(ctx context.Context, stmt string, timeout time.Duration) (*QueryResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	isPG := r.DB.Dialector.Name() == "postgres"
	tx := r.DB.WithContext(ctx).Begin(&sql.TxOptions{ReadOnly: isPG})
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	rows, err := tx.Raw(stmt).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func scanRows(rows *sql.Rows) (*QueryResult, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	res := &QueryResult{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		if len(res.Rows) >= maxQueryRows {
			break
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range vals {
			// 文本列有的驱动返回 []byte
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
