package db

import "gorm.io/gorm"

// Location 定义施工地点（楼栋），作业耗材可关联到具体地点
// IsActive 为软删除标记，停用后不再出现在列表中
type Location struct {
	gorm.Model
	Name         string `gorm:"not null"`
	Dong         string
	BuildingCode string
	Phone        string
	IsActive     bool `gorm:"not null"`
}
