package db

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 出入库类型
const (
	LogTypeInbound  = "inbound"
	LogTypeOutbound = "outbound"
)

// InventoryLog 记录一次影响库存的事件（入库或出库）
// 每条记录对应一次已经生效的台账调整：创建与台账变更在同一事务内完成，
// 删除时执行反向调整。记录只增删，不修改。
// TaskMaterialID 仅在出库由作业耗材触发时填写，删除该日志会连带删除耗材行。
// LoggedDate 为日历日期（当天零点，UTC），区间查询按日闭区间进行。
type InventoryLog struct {
	gorm.Model
	ProductID      uint    `gorm:"index;not null"`
	Product        Product `gorm:"constraint:OnDelete:CASCADE"`
	Type           string  `gorm:"not null;index"`
	Quantity       int     `gorm:"not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(14,2)"`
	Memo           string
	TaskMaterialID *uint     `gorm:"index"`
	LoggedDate     time.Time `gorm:"index;not null"`
}
