package db

import "gorm.io/gorm"

// TaskMaterial 把一定数量的品目绑定到某条作业上
// 该行与对应的出库日志同生共死：创建耗材时同一事务内扣减库存并写日志，
// 删除时同一事务内恢复库存并删日志，二者不会单独存在。
type TaskMaterial struct {
	gorm.Model
	TaskID         uint    `gorm:"index;not null"`
	ProductID      uint    `gorm:"index;not null"`
	Product        Product `gorm:"constraint:OnDelete:CASCADE"`
	Quantity       int     `gorm:"not null"`
	LocationID     *uint
	Location       *Location
	DetailLocation string
}
