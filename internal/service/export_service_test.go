package service

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/worklog/internal/db"
	"github.com/xuri/excelize/v2"
)

func TestInventoryCSV(t *testing.T) {
	cleanup := setupInventoryTestDB(t)
	defer cleanup()

	svc := NewExportService(db.DB)
	createTestProduct(t, "EXP-001", 12)

	inactive := db.Product{Code: "EXP-002", Name: "停用品", IsActive: false}
	if err := db.DB.Create(&inactive).Error; err != nil {
		t.Fatalf("failed to seed inactive product: %v", err)
	}

	data, filename, err := svc.InventoryCSV()
	if err != nil {
		t.Fatalf("InventoryCSV returned error: %v", err)
	}

	if !bytes.HasPrefix(data, []byte("\uFEFF")) {
		t.Fatal("expected UTF-8 BOM prefix")
	}
	content := string(data)
	if !strings.Contains(content, "品目代码") {
		t.Fatal("expected header row")
	}
	if !strings.Contains(content, "EXP-001") {
		t.Fatal("expected active product row")
	}
	if strings.Contains(content, "EXP-002") {
		t.Fatal("inactive product must not be exported")
	}
	if !strings.Contains(content, "\r\n") {
		t.Fatal("expected CRLF line endings")
	}
	if !strings.HasSuffix(filename, ".csv") {
		t.Fatalf("unexpected filename: %s", filename)
	}
}

func TestInventoryXLSX(t *testing.T) {
	cleanup := setupInventoryTestDB(t)
	defer cleanup()

	svc := NewExportService(db.DB)
	createTestProduct(t, "EXP-101", 7)

	data, filename, err := svc.InventoryXLSX()
	if err != nil {
		t.Fatalf("InventoryXLSX returned error: %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Fatalf("unexpected filename: %s", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	code, err := f.GetCellValue(sheet, "A2")
	if err != nil {
		t.Fatalf("failed to read cell: %v", err)
	}
	if code != "EXP-101" {
		t.Fatalf("expected product code in A2, got %q", code)
	}
	stock, err := f.GetCellValue(sheet, "E2")
	if err != nil {
		t.Fatalf("failed to read cell: %v", err)
	}
	if stock != "7" {
		t.Fatalf("expected stock 7 in E2, got %q", stock)
	}
}

func TestReportXLSX(t *testing.T) {
	cleanup := setupInventoryTestDB(t)
	defer cleanup()

	exports := NewExportService(db.DB)
	reports := NewReportService(db.DB)
	materials := NewMaterialService(db.DB)

	if _, _, err := exports.ReportXLSX(999); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}

	report, err := reports.GetOrCreate(2026, 9)
	if err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}
	task, err := reports.AddTask(report.ID, 0)
	if err != nil {
		t.Fatalf("AddTask returned error: %v", err)
	}
	if _, err := reports.UpdateTask(task.ID, "安装踢脚线", ""); err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}
	product := createTestProduct(t, "EXP-201", 10)
	if _, err := materials.Attach(AttachInput{TaskID: task.ID, ProductID: product.ID, Quantity: 3}); err != nil {
		t.Fatalf("Attach returned error: %v", err)
	}

	data, filename, err := exports.ReportXLSX(report.ID)
	if err != nil {
		t.Fatalf("ReportXLSX returned error: %v", err)
	}
	if !strings.Contains(filename, "第9周") {
		t.Fatalf("unexpected filename: %s", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	flat := ""
	for _, row := range rows {
		flat += strings.Join(row, "|") + "\n"
	}
	if !strings.Contains(flat, "2026-02-23") {
		t.Fatal("expected week start date in title")
	}
	if !strings.Contains(flat, "安装踢脚线") {
		t.Fatal("expected task description in sheet")
	}
	if !strings.Contains(flat, "× 3") {
		t.Fatal("expected material line in sheet")
	}
}
