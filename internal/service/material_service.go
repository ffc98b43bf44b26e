package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/worklog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrMaterialNotFound 在指定作业耗材不存在时返回
	ErrMaterialNotFound = errors.New("task material not found")
)

// MaterialService 负责作业与耗材的绑定
// 绑定即出库：创建耗材行、扣减库存、写出库日志在一个事务内完成；
// 解绑即回库：反向调整、删日志、删耗材行同样一步到位。
// 原系统把这两步放在数据库存储过程里，这里改为应用层事务，便于测试。
type MaterialService struct {
	db *gorm.DB
}

// NewMaterialService 构造 MaterialService
func NewMaterialService(gdb *gorm.DB) *MaterialService {
	return &MaterialService{db: gdb}
}

// AttachInput 定义向作业添加耗材的参数
type AttachInput struct {
	TaskID         uint
	ProductID      uint
	Quantity       int
	LocationID     *uint
	DetailLocation string
}

// Attach 把一定数量的品目绑定到作业上，同时扣减库存并写出库日志。
// 任何一步失败整体回滚：不会出现扣了库存却没有耗材行的中间状态。
func (s *MaterialService) Attach(input AttachInput) (*db.TaskMaterial, error) {
	if input.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var material db.TaskMaterial
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var task db.DailyTask
		if err := tx.First(&task, input.TaskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("find task: %w", err)
		}

		if input.LocationID != nil {
			var location db.Location
			if err := tx.Where("id = ? AND is_active = ?", *input.LocationID, true).
				First(&location).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrLocationNotFound
				}
				return fmt.Errorf("find location: %w", err)
			}
		}

		material = db.TaskMaterial{
			TaskID:         input.TaskID,
			ProductID:      input.ProductID,
			Quantity:       input.Quantity,
			LocationID:     input.LocationID,
			DetailLocation: strings.TrimSpace(input.DetailLocation),
		}
		if err := tx.Create(&material).Error; err != nil {
			return fmt.Errorf("create material: %w", err)
		}

		if _, err := consumeStockTx(tx, input.ProductID, input.Quantity, &material.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Preload("Product").Preload("Location").
		First(&material, material.ID).Error; err != nil {
		return nil, fmt.Errorf("reload material: %w", err)
	}
	return &material, nil
}

// Detach 删除一条作业耗材，恢复库存并删除关联的出库日志
func (s *MaterialService) Detach(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var material db.TaskMaterial
		if err := tx.First(&material, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMaterialNotFound
			}
			return fmt.Errorf("find material: %w", err)
		}
		return detachMaterialTx(tx, &material)
	})
}

// detachMaterialTx 在既有事务内解绑一条耗材：
// 反向调整台账、删除出库日志、删除耗材行。作业级联删除也走这里。
func detachMaterialTx(tx *gorm.DB, material *db.TaskMaterial) error {
	var entry db.InventoryLog
	if err := tx.Where("task_material_id = ?", material.ID).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 耗材行必须与出库日志同生共死，缺日志说明数据已损坏
			return fmt.Errorf("%w: material %d has no outbound log", ErrLedgerIntegrity, material.ID)
		}
		return fmt.Errorf("find material log: %w", err)
	}

	if err := reverseLogTx(tx, &entry); err != nil {
		return err
	}
	if err := tx.Delete(&db.InventoryLog{}, entry.ID).Error; err != nil {
		return fmt.Errorf("delete material log: %w", err)
	}
	if err := tx.Delete(&db.TaskMaterial{}, material.ID).Error; err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	return nil
}
