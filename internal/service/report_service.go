package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/worklog/internal/calendar"
	"github.com/worklog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrReportNotFound 在指定周报不存在时返回
	ErrReportNotFound = errors.New("weekly report not found")
	// ErrTaskNotFound 在指定作业不存在时返回
	ErrTaskNotFound = errors.New("daily task not found")
	// ErrInvalidWeek 在年份或周数超出范围时返回
	ErrInvalidWeek = errors.New("invalid year or week number")
	// ErrInvalidDayOfWeek 在星期序号不在 0-4 范围时返回
	ErrInvalidDayOfWeek = errors.New("day of week must be between 0 and 4")
)

// ReportService 负责周报与作业树的维护
// 周报按 (year, week_number) 唯一，首次读取时惰性创建；
// 作业按 (报告, 星期) 分组，组内以 sort_order 保持插入顺序。
type ReportService struct {
	db *gorm.DB
}

// NewReportService 构造 ReportService
func NewReportService(gdb *gorm.DB) *ReportService {
	return &ReportService{db: gdb}
}

// GetOrCreate 读取指定 ISO 周的周报，不存在时创建并计算起止日期。
// 返回的周报带有按天和顺序排好的作业及其耗材。
func (s *ReportService) GetOrCreate(year, week int) (*db.WeeklyReport, error) {
	if year < 1 || week < 1 || week > 53 {
		return nil, ErrInvalidWeek
	}

	var report db.WeeklyReport
	err := s.db.Where("year = ? AND week_number = ?", year, week).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		start, end := calendar.WeekDates(year, week)
		report = db.WeeklyReport{
			Year:       year,
			WeekNumber: week,
			StartDate:  start,
			EndDate:    end,
			Status:     db.ReportStatusDraft,
		}
		// 并发首读会撞唯一索引，落败方直接改读既有行
		if createErr := s.db.Create(&report).Error; createErr != nil {
			if findErr := s.db.Where("year = ? AND week_number = ?", year, week).
				First(&report).Error; findErr != nil {
				return nil, fmt.Errorf("create weekly report: %w", createErr)
			}
		}
	} else if err != nil {
		return nil, fmt.Errorf("find weekly report: %w", err)
	}

	if err := s.db.Preload("Tasks", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("day_of_week, sort_order")
	}).Preload("Tasks.Materials").
		Preload("Tasks.Materials.Product").
		Preload("Tasks.Materials.Location").
		First(&report, report.ID).Error; err != nil {
		return nil, fmt.Errorf("load weekly report: %w", err)
	}
	return &report, nil
}

// Get 按 ID 读取周报及其作业树
func (s *ReportService) Get(id uint) (*db.WeeklyReport, error) {
	var report db.WeeklyReport
	if err := s.db.Preload("Tasks", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("day_of_week, sort_order")
	}).Preload("Tasks.Materials").
		Preload("Tasks.Materials.Product").
		First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("get weekly report: %w", err)
	}
	return &report, nil
}

// ListWeeks 返回全部周报概要，按年份与周数倒序
func (s *ReportService) ListWeeks() ([]db.WeeklyReport, error) {
	var reports []db.WeeklyReport
	if err := s.db.Order("year DESC, week_number DESC").
		Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("list weekly reports: %w", err)
	}
	return reports, nil
}

// AddTask 在指定周报的某一天末尾追加一条空作业
func (s *ReportService) AddTask(reportID uint, dayOfWeek int) (*db.DailyTask, error) {
	if dayOfWeek < 0 || dayOfWeek > 4 {
		return nil, ErrInvalidDayOfWeek
	}

	var task db.DailyTask
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// 锁住周报行，避免并发追加分配到相同的 sort_order
		var report db.WeeklyReport
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&report, reportID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReportNotFound
			}
			return fmt.Errorf("lock report: %w", err)
		}

		var last db.DailyTask
		nextOrder := 0
		err := tx.Where("report_id = ? AND day_of_week = ?", reportID, dayOfWeek).
			Order("sort_order DESC").First(&last).Error
		switch {
		case err == nil:
			nextOrder = last.SortOrder + 1
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("find last task: %w", err)
		}

		task = db.DailyTask{
			ReportID:  reportID,
			DayOfWeek: dayOfWeek,
			SortOrder: nextOrder,
		}
		if err := tx.Create(&task).Error; err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask 更新作业的描述与备注
func (s *ReportService) UpdateTask(id uint, description, note string) (*db.DailyTask, error) {
	var task db.DailyTask
	if err := s.db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}

	task.Description = description
	task.Note = strings.TrimSpace(note)
	if err := s.db.Save(&task).Error; err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return &task, nil
}

// DeleteTask 删除作业：先逐条解绑其耗材（恢复库存、删日志），
// 再删除作业本身，全部在一个事务内完成。中途失败整体回滚，
// 不会留下库存恢复到一半的作业。
func (s *ReportService) DeleteTask(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var task db.DailyTask
		if err := tx.First(&task, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("find task: %w", err)
		}

		var materials []db.TaskMaterial
		if err := tx.Where("task_id = ?", task.ID).
			Find(&materials).Error; err != nil {
			return fmt.Errorf("list task materials: %w", err)
		}

		for i := range materials {
			if err := detachMaterialTx(tx, &materials[i]); err != nil {
				return err
			}
		}

		if err := tx.Delete(&db.DailyTask{}, task.ID).Error; err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
}
