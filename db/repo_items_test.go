package db

import (
	"context"
	"errors"
	"testing"

	"workshop_tool_inventory/models"
)

func TestCreateItem(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	it, err := r.CreateItem(ctx, ItemInput{Name: " Drill ", Brand: "Bosch", Stock: 4})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if it.ID == 0 || it.Name != "Drill" {
		t.Errorf("item = %+v", it)
	}
	if it.Stock != 4 || it.Available != 4 {
		t.Errorf("stock/available = %d/%d, want 4/4", it.Stock, it.Available)
	}
	if it.Location != "workshop" {
		t.Errorf("Location = %q, want workshop", it.Location)
	}

	if _, err := r.CreateItem(ctx, ItemInput{Name: ""}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty name err = %v, want ErrValidation", err)
	}
	if _, err := r.CreateItem(ctx, ItemInput{Name: "x", Stock: -1}); !errors.Is(err, ErrValidation) {
		t.Errorf("negative stock err = %v, want ErrValidation", err)
	}
}

func TestCoerceQuantity(t *testing.T) {
	cases := []struct {
		in   any
		want int
	}{
		{nil, 0},
		{3, 3},
		{3.9, 3},
		{"3.0", 3},
		{" 7 ", 7},
		{"abc", 0},
		{"", 0},
		{"NaN", 0},
		{"Inf", 0},
		{true, 0},
		{"1e20", MaxQuantity},
		{"-1e20", -MaxQuantity},
		{1e300, MaxQuantity},
	}
	for _, c := range cases {
		if got := CoerceQuantity(c.in); got != c.want {
			t.Errorf("CoerceQuantity(%#v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		in   any
		want int
		ok   bool
	}{
		{2, 2, true},
		{2.0, 2, true},
		{"4", 4, true},
		{"4.0", 4, true},
		{2.9, 0, false},
		{"2.5", 0, false},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
		{1e20, MaxQuantity, true},
	}
	for _, c := range cases {
		got, ok := ParseQuantity(c.in)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("ParseQuantity(%#v) = %d, %v; want %d, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestSearchItems(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	for _, in := range []ItemInput{
		{Name: "Wrench", Brand: "Stanley", Equipment: "hand tool"},
		{Name: "Angle Grinder", Brand: "Makita", Equipment: "power tool"},
		{Name: "drill 50%", Brand: "Bosch", Equipment: "Power Tool"},
	} {
		if _, err := r.CreateItem(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	all, err := r.SearchItems(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Name != "Angle Grinder" || all[2].Name != "drill 50%" {
		names := []string{}
		for _, it := range all {
			names = append(names, it.Name)
		}
		t.Errorf("order = %v", names)
	}

	power, _ := r.SearchItems(ctx, "POWER")
	if len(power) != 2 {
		t.Errorf("POWER matched %d, want 2", len(power))
	}
	brand, _ := r.SearchItems(ctx, "stan")
	if len(brand) != 1 || brand[0].Name != "Wrench" {
		t.Errorf("brand search = %+v", brand)
	}
	pct, _ := r.SearchItems(ctx, "50%")
	if len(pct) != 1 {
		t.Errorf("literal %% search matched %d, want 1", len(pct))
	}
	none, err := r.SearchItems(ctx, "laser")
	if err != nil || len(none) != 0 {
		t.Errorf("none = %v, %v", none, err)
	}
}

func TestAdjustStock_PreservesCheckedOut(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	it := mustItem(t, r, "Ladder", 10)
	if _, err := r.Checkout(ctx, CheckoutInput{ItemID: it.ID, EmployeeName: "Ana", Quantity: 7}); err != nil {
		t.Fatal(err)
	}

	got, err := r.AdjustStock(ctx, it.ID, 5)
	if err != nil {
		t.Fatalf("AdjustStock: %v", err)
	}
	if got.Stock != 5 || got.Available != 0 {
		t.Errorf("after adjust = %d/%d, want 5/0", got.Stock, got.Available)
	}
	reload(t, r, it.ID)

	got, err = r.AdjustStock(ctx, it.ID, 12)
	if err != nil {
		t.Fatal(err)
	}
	if got.Available != 5 {
		t.Errorf("available = %d, want 12-7=5", got.Available)
	}

	logs, err := r.ListAudit(ctx, models.AuditStockAdjust, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 {
		t.Errorf("audit rows = %d, want 2", len(logs))
	}
}

func TestAdjustStock_ShrinkThenGrowCannotOverlend(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	it := mustItem(t, r, "Scaffold Tower", 10)
	if _, err := r.Checkout(ctx, CheckoutInput{ItemID: it.ID, EmployeeName: "Ana", Quantity: 7}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.AdjustStock(ctx, it.ID, 5); err != nil {
		t.Fatal(err)
	}
	got, err := r.AdjustStock(ctx, it.ID, 12)
	if err != nil {
		t.Fatal(err)
	}
	if got.Available != 5 {
		t.Fatalf("available = %d, want 5", got.Available)
	}

	// 7 个还在外面，只能再借 5 个
	if _, err := r.Checkout(ctx, CheckoutInput{ItemID: it.ID, EmployeeName: "Juan", Quantity: 7}); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("second checkout err = %v, want ErrInsufficientStock", err)
	}

	// 部分归还后再调整，仍按未还数量计算
	three := 3
	if _, err := r.Checkin(ctx, it.ID, &three); err != nil {
		t.Fatal(err)
	}
	got, err = r.AdjustStock(ctx, it.ID, 6)
	if err != nil {
		t.Fatal(err)
	}
	if got.Available != 2 {
		t.Errorf("available = %d, want 6-4=2", got.Available)
	}
}

func TestAdjustStock_Errors(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	if _, err := r.AdjustStock(ctx, 999, 3); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id err = %v, want ErrNotFound", err)
	}
	it := mustItem(t, r, "Saw", 2)
	if _, err := r.AdjustStock(ctx, it.ID, -1); !errors.Is(err, ErrValidation) {
		t.Errorf("negative err = %v, want ErrValidation", err)
	}
}

func TestSummary(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	s, err := r.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s != (Summary{}) {
		t.Errorf("empty summary = %+v", s)
	}

	mustItem(t, r, "A", 0)
	mustItem(t, r, "B", 2)
	mustItem(t, r, "C", 3)
	d := mustItem(t, r, "D", 10)
	if _, err := r.Checkout(ctx, CheckoutInput{ItemID: d.ID, EmployeeName: "Ana", Quantity: 8}); err != nil {
		t.Fatal(err)
	}

	s, err = r.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := Summary{TotalItems: 4, TotalStock: 15, TotalAvailable: 7, LowStockCount: 3}
	if s != want {
		t.Errorf("summary = %+v, want %+v", s, want)
	}
}
