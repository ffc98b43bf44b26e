package service

import (
	"errors"
	"testing"

	"github.com/worklog/internal/db"
)

func createTestTask(t *testing.T) *db.DailyTask {
	t.Helper()
	report := db.WeeklyReport{Year: 2026, WeekNumber: 9, Status: db.ReportStatusDraft}
	if err := db.DB.Create(&report).Error; err != nil {
		t.Fatalf("failed to create test report: %v", err)
	}
	task := db.DailyTask{ReportID: report.ID, DayOfWeek: 0, SortOrder: 0, Description: "铺设地板"}
	if err := db.DB.Create(&task).Error; err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}
	return &task
}

func countMaterialRows(t *testing.T) (materials, logs int64) {
	t.Helper()
	if err := db.DB.Model(&db.TaskMaterial{}).Count(&materials).Error; err != nil {
		t.Fatalf("failed to count materials: %v", err)
	}
	if err := db.DB.Model(&db.InventoryLog{}).Count(&logs).Error; err != nil {
		t.Fatalf("failed to count logs: %v", err)
	}
	return materials, logs
}

func TestAttachConsumesStock(t *testing.T) {
	cleanup := setupInventoryTestDB(t)
	defer cleanup()

	svc := NewMaterialService(db.DB)
	task := createTestTask(t)
	product := createTestProduct(t, "MAT-001", 8)

	material, err := svc.Attach(AttachInput{TaskID: task.ID, ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("Attach returned error: %v", err)
	}

	assertLedger(t, product.ID, 6, 8, 2)

	var entry db.InventoryLog
	if err := db.DB.Where("task_material_id = ?", material.ID).First(&entry).Error; err != nil {
		t.Fatalf("expected outbound log linked to material: %v", err)
	}
	if entry.Type != db.LogTypeOutbound || entry.Quantity != 2 {
		t.Fatalf("unexpected log: type=%s quantity=%d", entry.Type, entry.Quantity)
	}
	if material.Product.Code != "MAT-001" {
		t.Fatalf("expected product preloaded on material, got %q", material.Product.Code)
	}
}

func TestAttachValidation(t *testing.T) {
	cleanup := setupInventoryTestDB(t)
	defer cleanup()

	svc := NewMaterialService(db.DB)
	task := createTestTask(t)
	product := createTestProduct(t, "MAT-002", 5)

	if _, err := svc.Attach(AttachInput{TaskID: task.ID, ProductID: product.ID, Quantity: 0}); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := svc.Attach(AttachInput{TaskID: 9999, ProductID: product.ID, Quantity: 1}); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if _, err := svc.Attach(AttachInput{TaskID: task.ID, ProductID: 9999, Quantity: 1}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}

	badLocation := uint(4242)
	if _, err := svc.Attach(AttachInput{TaskID: task.ID, ProductID: product.ID, Quantity: 1, LocationID: &badLocation}); !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("expected ErrLocationNotFound, got %v", err)
	}

	// 所有失败路径都不得留下半完成状态
	assertLedger(t, product.ID, 5, 5, 0)
	materials, logs := countMaterialRows(t)
	if materials != 0 || logs != 0 {
		t.Fatalf("expected no orphan rows, got %d materials, %d logs", materials, logs)
	}
}

func TestAttachInsufficientStockRollsBack(t *testing.T) {
	cleanup := setupInventoryTestDB(t)
	defer cleanup()

	svc := NewMaterialService(db.DB)
	task := createTestTask(t)
	product := createTestProduct(t, "MAT-003", 3)

	// 耗材行在扣库存之前创建，库存校验失败必须连带回滚耗材行
	if _, err := svc.Attach(AttachInput{TaskID: task.ID, ProductID: product.ID, Quantity: 4}); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	assertLedger(t, product.ID, 3, 3, 0)
	materials, logs := countMaterialRows(t)
	if materials != 0 || logs != 0 {
		t.Fatalf("expected rollback to remove all rows, got %d materials, %d logs", materials, logs)
	}
}

func TestAttachDetachRoundTrip(t *testing.T) {
	cleanup := setupInventoryTestDB(t)
	defer cleanup()

	svc := NewMaterialService(db.DB)
	task := createTestTask(t)
	product := createTestProduct(t, "MAT-004", 8)

	material, err := svc.Attach(AttachInput{TaskID: task.ID, ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("Attach returned error: %v", err)
	}

	if err := svc.Detach(material.ID); err != nil {
		t.Fatalf("Detach returned error: %v", err)
	}

	// 回到 attach 之前的状态，耗材与日志全部清零
	assertLedger(t, product.ID, 8, 8, 0)
	materials, logs := countMaterialRows(t)
	if materials != 0 || logs != 0 {
		t.Fatalf("expected no rows after round trip, got %d materials, %d logs", materials, logs)
	}
}

func TestDetachNotFound(t *testing.T) {
	cleanup := setupInventoryTestDB(t)
	defer cleanup()

	svc := NewMaterialService(db.DB)
	if err := svc.Detach(54321); !errors.Is(err, ErrMaterialNotFound) {
		t.Fatalf("expected ErrMaterialNotFound, got %v", err)
	}
}

func TestAttachWithLocation(t *testing.T) {
	cleanup := setupInventoryTestDB(t)
	defer cleanup()

	svc := NewMaterialService(db.DB)
	task := createTestTask(t)
	product := createTestProduct(t, "MAT-005", 10)

	location := db.Location{Name: "101栋", IsActive: true}
	if err := db.DB.Create(&location).Error; err != nil {
		t.Fatalf("failed to create test location: %v", err)
	}

	material, err := svc.Attach(AttachInput{
		TaskID:         task.ID,
		ProductID:      product.ID,
		Quantity:       1,
		LocationID:     &location.ID,
		DetailLocation: "3层走廊",
	})
	if err != nil {
		t.Fatalf("Attach returned error: %v", err)
	}
	if material.LocationID == nil || *material.LocationID != location.ID {
		t.Fatal("expected location to be bound to material")
	}
	if material.DetailLocation != "3层走廊" {
		t.Fatalf("unexpected detail location: %q", material.DetailLocation)
	}
}
