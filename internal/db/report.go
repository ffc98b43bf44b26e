package db

import (
	"time"

	"gorm.io/gorm"
)

// 周报状态
const (
	ReportStatusDraft     = "draft"
	ReportStatusCompleted = "completed"
	ReportStatusSubmitted = "submitted"
)

// WeeklyReport 定义周报模型
// Year + WeekNumber 采用唯一索引，首次读取某周时惰性创建
// StartDate/EndDate 为该 ISO 周的周一与周五
type WeeklyReport struct {
	gorm.Model
	Year       int       `gorm:"not null;index:idx_report_year_week,unique"`
	WeekNumber int       `gorm:"not null;index:idx_report_year_week,unique"`
	StartDate  time.Time `gorm:"not null"`
	EndDate    time.Time `gorm:"not null"`
	Status     string    `gorm:"not null;default:draft"`
	Tasks      []DailyTask `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE"`
}

// DailyTask 定义周报内的单条作业
// DayOfWeek 取 0-4（周一到周五），SortOrder 在同一天内按插入顺序递增
type DailyTask struct {
	gorm.Model
	ReportID    uint `gorm:"index;not null"`
	DayOfWeek   int  `gorm:"not null"`
	SortOrder   int  `gorm:"not null"`
	Description string
	Note        string
	Materials   []TaskMaterial `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}
