package routes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"workshop_tool_inventory/app"
	"workshop_tool_inventory/bridge"
	"workshop_tool_inventory/config"
	"workshop_tool_inventory/db"
	"workshop_tool_inventory/importer"

	"github.com/gin-gonic/gin"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.OpenSQLite(":memory:", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := config.Config{Import: config.ImportConfig{Encoding: "utf-8"}}
	repo := db.NewRepo(conn)
	a := &app.App{
		Router:   gin.New(),
		DB:       conn,
		Repo:     repo,
		Bridge:   bridge.New(cfg.LLM, nil, repo),
		Importer: importer.New(repo, cfg),
		Config:   cfg,
	}
	a.Router.Use(gin.Recovery())
	RegisterRoutes(a.Router, a)
	return a
}

func do(t *testing.T, a *app.App, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestItemLifecycle(t *testing.T) {
	a := newTestApp(t)

	w, item := do(t, a, http.MethodPost, "/api/items", `{"name":"Multimeter","brand":"Fluke","stock":"5"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body)
	}
	if item["stock"].(float64) != 5 || item["available"].(float64) != 5 {
		t.Errorf("item = %v", item)
	}

	w, body := do(t, a, http.MethodPost, "/api/items/1/checkout", `{"employee":"Ana Martínez","quantity":3,"orderRef":"WO-9"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout = %d %s", w.Code, w.Body)
	}
	if body["message"] != "Checked out 3 x Multimeter to Ana Martínez" {
		t.Errorf("message = %v", body["message"])
	}

	w, body = do(t, a, http.MethodPost, "/api/items/1/checkout", `{"employee":"Juan","quantity":3}`)
	if w.Code != http.StatusConflict || !strings.Contains(body["error"].(string), "Only 2") {
		t.Errorf("insufficient = %d %v", w.Code, body)
	}

	w, body = do(t, a, http.MethodGet, "/api/loans/active", "")
	if w.Code != http.StatusOK || len(body["items"].([]any)) != 1 {
		t.Errorf("active = %d %v", w.Code, body)
	}

	w, body = do(t, a, http.MethodPost, "/api/items/1/checkin", "")
	if w.Code != http.StatusOK || body["message"] != "Returned 3 x Multimeter from Ana Martínez" {
		t.Errorf("checkin = %d %v", w.Code, body)
	}

	w, body = do(t, a, http.MethodPost, "/api/items/1/checkin", "")
	if w.Code != http.StatusConflict {
		t.Errorf("second checkin = %d %v", w.Code, body)
	}

	w, body = do(t, a, http.MethodGet, "/api/items/summary", "")
	if w.Code != http.StatusOK || body["totalAvailable"].(float64) != 5 {
		t.Errorf("summary = %d %v", w.Code, body)
	}
}

func TestItemErrors(t *testing.T) {
	a := newTestApp(t)

	cases := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodPost, "/api/items", `{"brand":"x"}`, http.StatusBadRequest},
		{http.MethodPost, "/api/items", `{"name":"Saw","stock":-2}`, http.StatusBadRequest},
		{http.MethodPost, "/api/items/abc/checkout", `{"employee":"Ana"}`, http.StatusBadRequest},
		{http.MethodPost, "/api/items/42/checkout", `{"employee":"Ana"}`, http.StatusNotFound},
		{http.MethodPost, "/api/items/42/checkout", `{"employee":"Ana","quantity":2.9}`, http.StatusBadRequest},
		{http.MethodPost, "/api/items/42/checkout", `{"employee":"Ana","quantity":"lots"}`, http.StatusBadRequest},
		{http.MethodPut, "/api/items/42/stock", `{"stock":3}`, http.StatusNotFound},
		{http.MethodPut, "/api/items/42/stock", `{}`, http.StatusBadRequest},
		{http.MethodPost, "/api/items/42/checkin", "", http.StatusNotFound},
	}
	for _, c := range cases {
		if w, _ := do(t, a, c.method, c.path, c.body); w.Code != c.want {
			t.Errorf("%s %s = %d, want %d (%s)", c.method, c.path, w.Code, c.want, w.Body)
		}
	}
}

func TestCreateItem_HugeStockIsClamped(t *testing.T) {
	a := newTestApp(t)

	w, item := do(t, a, http.MethodPost, "/api/items", `{"name":"Rivets","stock":"1e20"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body)
	}
	if item["stock"].(float64) != db.MaxQuantity {
		t.Errorf("stock = %v, want %d", item["stock"], db.MaxQuantity)
	}
}

func TestAdjustStockAndAudit(t *testing.T) {
	a := newTestApp(t)
	do(t, a, http.MethodPost, "/api/items", `{"name":"Ladder","stock":10}`)
	do(t, a, http.MethodPost, "/api/items/1/checkout", `{"employee":"Ana","quantity":7}`)

	w, body := do(t, a, http.MethodPut, "/api/items/1/stock", `{"stock":5}`)
	if w.Code != http.StatusOK || body["available"].(float64) != 0 || body["stock"].(float64) != 5 {
		t.Errorf("adjust = %d %v", w.Code, body)
	}

	w, body = do(t, a, http.MethodGet, "/api/audit?action=stock_adjust", "")
	if w.Code != http.StatusOK || len(body["items"].([]any)) != 1 {
		t.Errorf("audit = %d %v", w.Code, body)
	}
}

func TestImportUpload(t *testing.T) {
	a := newTestApp(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "tools.csv")
	fw.Write([]byte("Catalog ID,Item Name,Equipment,Brand,Stock,Notes\nA-1,Grinder,power tool,Makita,3.0,\nA-2,,,,1,\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/imports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("import = %d %s", w.Code, w.Body)
	}
	var res db.ImportResult
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.Imported != 1 || res.Skipped != 1 {
		t.Errorf("result = %+v", res)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/imports", strings.NewReader("Name,Stock\nx,1\n"))
	w = httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed import = %d %s", w.Code, w.Body)
	}
}

func TestAskDisconnected(t *testing.T) {
	a := newTestApp(t)

	w, body := do(t, a, http.MethodGet, "/api/ask/status", "")
	if w.Code != http.StatusOK || body["connected"] != false {
		t.Errorf("status = %d %v", w.Code, body)
	}
	if w, _ := do(t, a, http.MethodPost, "/api/ask", `{"text":"how many drills"}`); w.Code != http.StatusServiceUnavailable {
		t.Errorf("ask = %d, want 503", w.Code)
	}
	if w, _ := do(t, a, http.MethodPost, "/api/ask/sql", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("ask/sql without text = %d, want 400", w.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	a := newTestApp(t)
	if w, _ := do(t, a, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Errorf("healthz = %d", w.Code)
	}
	do(t, a, http.MethodPost, "/api/items/9/checkin", "")
	w, _ := do(t, a, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "workshop_loan_operations_total") {
		t.Errorf("metrics = %d", w.Code)
	}
}
