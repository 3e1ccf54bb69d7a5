// app/bootstrap.go
package app

import (
	"context"
	"log"

	"workshop_tool_inventory/db"
)

var DefaultEmployees = []struct{ Name, Code, Department string }{
	{"Juan Pérez", "EMP001", "Mecánica"},
	{"María García", "EMP002", "Eléctrica"},
	{"Carlos López", "EMP003", "Mantenimiento"},
	{"Ana Martínez", "EMP004", "Producción"},
}

// SeedEmployees 首次启动写入默认员工，已存在的名字跳过
func SeedEmployees(ctx context.Context, repo *db.Repo) {
	created := 0
	for _, e := range DefaultEmployees {
		ok, err := repo.SeedEmployee(ctx, e.Name, e.Code, e.Department)
		if err != nil {
			log.Printf("[BOOTSTRAP] seed employee %s failed: %v", e.Name, err)
			return
		}
		if ok {
			created++
		}
	}
	if created > 0 {
		log.Printf("[BOOTSTRAP] created %d default employees", created)
	}
}
