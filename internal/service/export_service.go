package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"github.com/worklog/internal/calendar"
	"github.com/worklog/internal/db"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportService 负责把库存现况与周报导出为可下载的文件
type ExportService struct {
	db *gorm.DB
}

// NewExportService 构造 ExportService
func NewExportService(gdb *gorm.DB) *ExportService {
	return &ExportService{db: gdb}
}

var inventoryHeaders = []string{"品目代码", "品目名称", "分类", "单位", "当前库存", "累计入库", "累计出库", "安全库存", "备注"}

// InventoryCSV 导出在用品目的库存现况。
// 带 UTF-8 BOM 与 CRLF 行尾，旧版 Excel 直接打开不乱码。
func (s *ExportService) InventoryCSV() ([]byte, string, error) {
	products, err := s.activeProducts()
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	buf.WriteString("\uFEFF")

	writer := csv.NewWriter(&buf)
	writer.UseCRLF = true
	if err := writer.Write(inventoryHeaders); err != nil {
		return nil, "", fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range products {
		row := []string{
			p.Code,
			p.Name,
			p.Category,
			p.Unit,
			fmt.Sprintf("%d", p.CurrentStock),
			fmt.Sprintf("%d", p.TotalIn),
			fmt.Sprintf("%d", p.TotalOut),
			fmt.Sprintf("%d", p.MinStock),
			p.Note,
		}
		if err := writer.Write(row); err != nil {
			return nil, "", fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", fmt.Errorf("flush csv: %w", err)
	}

	filename := fmt.Sprintf("库存现况_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// InventoryXLSX 导出与 CSV 同样的数据为工作簿
func (s *ExportService) InventoryXLSX() ([]byte, string, error) {
	products, err := s.activeProducts()
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &inventoryHeaders); err != nil {
		return nil, "", fmt.Errorf("write sheet header: %w", err)
	}
	for i, p := range products {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{p.Code, p.Name, p.Category, p.Unit, p.CurrentStock, p.TotalIn, p.TotalOut, p.MinStock, p.Note}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, "", fmt.Errorf("write sheet row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("encode workbook: %w", err)
	}

	filename := fmt.Sprintf("库存现况_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ReportXLSX 导出一份周报：按天分节列出作业与耗材
func (s *ExportService) ReportXLSX(reportID uint) ([]byte, string, error) {
	var report db.WeeklyReport
	if err := s.db.Preload("Tasks", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("day_of_week, sort_order")
	}).Preload("Tasks.Materials").
		Preload("Tasks.Materials.Product").
		First(&report, reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrReportNotFound
		}
		return nil, "", fmt.Errorf("load report: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	title := fmt.Sprintf("%d年 第%d周 工作周报 (%s ~ %s)",
		report.Year, report.WeekNumber,
		report.StartDate.Format("2006-01-02"), report.EndDate.Format("2006-01-02"))
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return nil, "", fmt.Errorf("write report title: %w", err)
	}

	row := 3
	for day := 0; day < 5; day++ {
		date := calendar.DayDate(report.StartDate, day)
		header := fmt.Sprintf("%s (%s)", calendar.DayNames[day], date.Format("01-02"))
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", row), header); err != nil {
			return nil, "", fmt.Errorf("write day header: %w", err)
		}
		row++

		for _, task := range report.Tasks {
			if task.DayOfWeek != day {
				continue
			}
			if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", row), task.Description); err != nil {
				return nil, "", fmt.Errorf("write task: %w", err)
			}
			if task.Note != "" {
				if err := f.SetCellValue(sheet, fmt.Sprintf("C%d", row), task.Note); err != nil {
					return nil, "", fmt.Errorf("write task note: %w", err)
				}
			}
			row++

			for _, material := range task.Materials {
				line := fmt.Sprintf("%s × %d%s", material.Product.Name, material.Quantity, material.Product.Unit)
				if err := f.SetCellValue(sheet, fmt.Sprintf("C%d", row), line); err != nil {
					return nil, "", fmt.Errorf("write material: %w", err)
				}
				row++
			}
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("encode workbook: %w", err)
	}

	filename := fmt.Sprintf("周报_%d年第%d周.xlsx", report.Year, report.WeekNumber)
	return buf.Bytes(), filename, nil
}

func (s *ExportService) activeProducts() ([]db.Product, error) {
	var products []db.Product
	if err := s.db.Where("is_active = ?", true).
		Order("code").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products for export: %w", err)
	}
	return products, nil
}
