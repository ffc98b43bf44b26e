package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/worklog/internal/db"
	"github.com/worklog/internal/handler"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouterTestDB(t *testing.T) func() {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(
		&db.User{}, &db.Product{}, &db.Location{}, &db.WeeklyReport{},
		&db.DailyTask{}, &db.TaskMaterial{}, &db.InventoryLog{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	db.DB = gdb

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestPing(t *testing.T) {
	cleanup := setupRouterTestDB(t)
	defer cleanup()

	r := SetupRouter(handler.NewAPI(db.DB), "test-secret", false)
	rr := doJSON(t, r, http.MethodGet, "/ping", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestInventoryFlow(t *testing.T) {
	cleanup := setupRouterTestDB(t)
	defer cleanup()

	r := SetupRouter(handler.NewAPI(db.DB), "test-secret", false)

	// 登记品目
	rr := doJSON(t, r, http.MethodPost, "/api/products", gin.H{
		"code": "API-001", "name": "木方", "unit": "根", "min_stock": 5,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("create product: expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	var created struct {
		Product struct {
			ID uint `json:"id"`
		} `json:"product"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	productID := created.Product.ID

	// 重复代码被拒绝
	rr = doJSON(t, r, http.MethodPost, "/api/products", gin.H{"code": "API-001", "name": "重复"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate code: expected 409, got %d", rr.Code)
	}

	// 入库 5
	rr = doJSON(t, r, http.MethodPost, "/api/inventory/inbound", gin.H{
		"product_id": productID, "quantity": 5, "unit_price": "1200",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("inbound: expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}

	// 当日汇总应显示净增 5
	today := time.Now().UTC().Format("2006-01-02")
	rr = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/inventory/summary?from=%s&to=%s", today, today), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d", rr.Code)
	}
	var summary map[string]int
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}
	if summary[fmt.Sprintf("%d", productID)] != 5 {
		t.Fatalf("expected net change 5, got %v", summary)
	}

	// 明细应有一条记录
	rr = doJSON(t, r, http.MethodGet, "/api/inventory/logs", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("logs: expected 200, got %d", rr.Code)
	}
	var logs struct {
		Logs []struct {
			ID uint `json:"id"`
		} `json:"logs"`
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &logs); err != nil {
		t.Fatalf("failed to decode logs: %v", err)
	}
	if logs.Total != 1 || len(logs.Logs) != 1 {
		t.Fatalf("expected 1 log, got %+v", logs)
	}

	// 删除入库记录后库存归零
	rr = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/inventory/logs/%d", logs.Logs[0].ID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete log: expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	var product db.Product
	if err := db.DB.First(&product, productID).Error; err != nil {
		t.Fatalf("failed to reload product: %v", err)
	}
	if product.CurrentStock != 0 || product.TotalIn != 0 {
		t.Fatalf("expected ledger restored, got stock=%d in=%d", product.CurrentStock, product.TotalIn)
	}
}

func TestReportMaterialFlow(t *testing.T) {
	cleanup := setupRouterTestDB(t)
	defer cleanup()

	r := SetupRouter(handler.NewAPI(db.DB), "test-secret", false)

	rr := doJSON(t, r, http.MethodGet, "/api/reports?year=2026&week=9", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get report: expected 200, got %d", rr.Code)
	}
	var report struct {
		ID        uint   `json:"id"`
		StartDate string `json:"start_date"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if report.StartDate != "2026-02-23" {
		t.Fatalf("expected start 2026-02-23, got %s", report.StartDate)
	}

	rr = doJSON(t, r, http.MethodPost, "/api/tasks", gin.H{"report_id": report.ID, "day_of_week": 0})
	if rr.Code != http.StatusOK {
		t.Fatalf("create task: expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	var task struct {
		Task struct {
			ID uint `json:"id"`
		} `json:"task"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &task); err != nil {
		t.Fatalf("failed to decode task: %v", err)
	}

	product := db.Product{Code: "API-100", Name: "地板", CurrentStock: 8, TotalIn: 8, IsActive: true}
	if err := db.DB.Create(&product).Error; err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}

	rr = doJSON(t, r, http.MethodPost, "/api/task-materials", gin.H{
		"task_id": task.Task.ID, "product_id": product.ID, "quantity": 2,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("attach: expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}

	// 删除作业级联恢复库存
	rr = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.Task.ID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete task: expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	var reloaded db.Product
	if err := db.DB.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("failed to reload product: %v", err)
	}
	if reloaded.CurrentStock != 8 {
		t.Fatalf("expected stock restored to 8, got %d", reloaded.CurrentStock)
	}
}

func TestAuthRequired(t *testing.T) {
	cleanup := setupRouterTestDB(t)
	defer cleanup()

	if err := db.EnsureUser("admin", "secret123"); err != nil {
		t.Fatalf("failed to seed admin user: %v", err)
	}

	r := SetupRouter(handler.NewAPI(db.DB), "test-secret", true)

	// 未登录访问被拒绝
	rr := doJSON(t, r, http.MethodGet, "/api/products", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	// 登录后携带会话 Cookie 可以访问
	rr = doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{"username": "admin", "password": "secret123"})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	authed := httptest.NewRecorder()
	r.ServeHTTP(authed, req)
	if authed.Code != http.StatusOK {
		t.Fatalf("expected 200 with session, got %d", authed.Code)
	}

	// 错误密码
	rr = doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{"username": "admin", "password": "wrong"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", rr.Code)
	}
}
