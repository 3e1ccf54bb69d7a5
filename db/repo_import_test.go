package db

import (
	"context"
	"testing"

	"workshop_tool_inventory/models"
)

func TestImportItems(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	res, err := r.ImportItems(ctx, "tools.csv", []ImportRow{
		{CatalogID: "C-1", Name: "Torque Wrench", Equipment: "hand tool", Brand: "Gedore", Stock: 3},
		{CatalogID: "C-2", Name: "  ", Stock: 9},
		{Name: "Extension Cord", Stock: -4},
	})
	if err != nil {
		t.Fatalf("ImportItems: %v", err)
	}
	want := ImportResult{Imported: 2, Created: 2, Skipped: 1}
	if res != want {
		t.Errorf("result = %+v, want %+v", res, want)
	}

	items, _ := r.SearchItems(ctx, "")
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	for _, it := range items {
		switch it.Name {
		case "Torque Wrench":
			if it.Stock != 3 || it.Available != 3 || it.CatalogID != "C-1" {
				t.Errorf("wrench = %+v", it)
			}
		case "Extension Cord":
			if it.Stock != 0 || it.Available != 0 {
				t.Errorf("negative stock should clamp to 0: %+v", it)
			}
		}
	}

	logs, _ := r.ListAudit(ctx, models.AuditImport, 5)
	if len(logs) != 1 || logs[0].Subject != "tools.csv" {
		t.Errorf("audit = %+v", logs)
	}
}

func TestImportItems_UpsertKeepsOutstanding(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	if _, err := r.ImportItems(ctx, "a.csv", []ImportRow{{CatalogID: "SAW-9", Name: "Saw", Stock: 6}}); err != nil {
		t.Fatal(err)
	}
	items, _ := r.SearchItems(ctx, "saw")
	if len(items) != 1 {
		t.Fatalf("items = %+v", items)
	}
	id := items[0].ID
	if _, err := r.Checkout(ctx, CheckoutInput{ItemID: id, EmployeeName: "Ana", Quantity: 4}); err != nil {
		t.Fatal(err)
	}

	res, err := r.ImportItems(ctx, "b.csv", []ImportRow{{CatalogID: "SAW-9", Name: "Saw (new blade)", Stock: 10}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Updated != 1 || res.Created != 0 {
		t.Errorf("result = %+v", res)
	}
	got := reload(t, r, id)
	if got.Name != "Saw (new blade)" || got.Stock != 10 || got.Available != 6 {
		t.Errorf("after upsert = %+v, want stock 10 available 6", got)
	}
}

func TestImportItems_AfterShrinkCountsLoans(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	if _, err := r.ImportItems(ctx, "a.csv", []ImportRow{{CatalogID: "GEN-1", Name: "Generator", Stock: 10}}); err != nil {
		t.Fatal(err)
	}
	items, _ := r.SearchItems(ctx, "generator")
	id := items[0].ID
	if _, err := r.Checkout(ctx, CheckoutInput{ItemID: id, EmployeeName: "Ana", Quantity: 7}); err != nil {
		t.Fatal(err)
	}
	// 盘点缩减到 5，available 被截到 0
	if _, err := r.AdjustStock(ctx, id, 5); err != nil {
		t.Fatal(err)
	}

	if _, err := r.ImportItems(ctx, "b.csv", []ImportRow{{CatalogID: "GEN-1", Name: "Generator", Stock: 12}}); err != nil {
		t.Fatal(err)
	}
	if got := reload(t, r, id); got.Stock != 12 || got.Available != 5 {
		t.Errorf("after re-import = %d/%d, want 12/5 (7 still out)", got.Stock, got.Available)
	}
}
