package db

import "gorm.io/gorm"

// 品目分类只有 A/B 两类，对应车间的主材与辅材
const (
	CategoryMain = "A"
	CategorySub  = "B"
)

// Product 定义库存品目模型
// CurrentStock/TotalIn/TotalOut 构成台账计数器，任何时刻满足
// current_stock == total_in - total_out，且三者均不为负
// MinStock 用于前端的安全库存告警，IsActive 为软删除标记
type Product struct {
	gorm.Model
	Code         string `gorm:"uniqueIndex;not null"`
	Name         string `gorm:"not null"`
	Category     string `gorm:"not null;default:A"`
	Unit         string
	CurrentStock int `gorm:"not null;default:0"`
	TotalIn      int `gorm:"not null;default:0"`
	TotalOut     int `gorm:"not null;default:0"`
	MinStock     int `gorm:"not null;default:0"`
	IsActive     bool `gorm:"not null"`
	Note         string
}
