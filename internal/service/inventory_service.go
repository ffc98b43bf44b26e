package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/worklog/internal/calendar"
	"github.com/worklog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrProductNotFound 在指定品目不存在时返回
	ErrProductNotFound = errors.New("product not found")
	// ErrProductInactive 在品目已停用时返回
	ErrProductInactive = errors.New("product is inactive")
	// ErrInvalidQuantity 在数量小于 1 时返回
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrInsufficientStock 在出库数量超过当前库存时返回
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrLogNotFound 在指定出入库日志不存在时返回
	ErrLogNotFound = errors.New("inventory log not found")
	// ErrLedgerIntegrity 在反向调整会使台账计数器变负时返回
	ErrLedgerIntegrity = errors.New("ledger counter would become negative")
	// ErrInvalidDateRange 在日期区间格式错误或起止颠倒时返回
	ErrInvalidDateRange = errors.New("invalid date range")
)

const dateLayout = "2006-01-02"

// InventoryService 维护品目台账与出入库日志
// 台账不变式：current_stock == total_in - total_out，三个计数器恒非负。
// 每次变更都在单个事务内完成“锁行、校验、改计数器、写日志”，
// 同一品目上的并发操作由行锁串行化，避免基于过期读数的双重扣减。
type InventoryService struct {
	db *gorm.DB
}

// NewInventoryService 构造 InventoryService
func NewInventoryService(gdb *gorm.DB) *InventoryService {
	return &InventoryService{db: gdb}
}

// InboundInput 定义一次入库的参数
type InboundInput struct {
	ProductID uint
	Quantity  int
	UnitPrice decimal.Decimal
	Memo      string
}

// ReceiveStock 执行入库：增加库存与累计入库，并写入一条 inbound 日志
func (s *InventoryService) ReceiveStock(input InboundInput) (*db.InventoryLog, error) {
	if input.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var created db.InventoryLog
	err := s.db.Transaction(func(tx *gorm.DB) error {
		product, err := lockActiveProduct(tx, input.ProductID)
		if err != nil {
			return err
		}

		product.CurrentStock += input.Quantity
		product.TotalIn += input.Quantity
		if err := tx.Save(product).Error; err != nil {
			return fmt.Errorf("update ledger: %w", err)
		}

		quantity := decimal.NewFromInt(int64(input.Quantity))
		created = db.InventoryLog{
			ProductID:  input.ProductID,
			Type:       db.LogTypeInbound,
			Quantity:   input.Quantity,
			UnitPrice:  input.UnitPrice,
			TotalPrice: input.UnitPrice.Mul(quantity),
			Memo:       input.Memo,
			LoggedDate: calendar.Truncate(time.Now()),
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("append inbound log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// RemoveLog 删除一条出入库日志：按类型执行反向台账调整，
// 若日志由作业耗材产生则连带删除耗材行，整体在一个事务内完成。
func (s *InventoryService) RemoveLog(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var entry db.InventoryLog
		if err := tx.First(&entry, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLogNotFound
			}
			return fmt.Errorf("find inventory log: %w", err)
		}

		if err := reverseLogTx(tx, &entry); err != nil {
			return err
		}

		if entry.TaskMaterialID != nil {
			if err := tx.Delete(&db.TaskMaterial{}, *entry.TaskMaterialID).Error; err != nil {
				return fmt.Errorf("delete linked material: %w", err)
			}
		}

		if err := tx.Delete(&db.InventoryLog{}, entry.ID).Error; err != nil {
			return fmt.Errorf("delete inventory log: %w", err)
		}
		return nil
	})
}

// LogPage 为分页的日志查询结果
type LogPage struct {
	Logs  []db.InventoryLog
	Total int64
}

// Logs 按日志日期与创建顺序倒序返回出入库明细，附带品目信息
func (s *InventoryService) Logs(limit, offset int) (*LogPage, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	page := &LogPage{}
	if err := s.db.Model(&db.InventoryLog{}).Count(&page.Total).Error; err != nil {
		return nil, fmt.Errorf("count inventory logs: %w", err)
	}

	if err := s.db.Preload("Product").
		Order("logged_date DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&page.Logs).Error; err != nil {
		return nil, fmt.Errorf("list inventory logs: %w", err)
	}
	return page, nil
}

// Summarize 统计 [from, to] 闭区间内每个品目的净变动（入库合计 − 出库合计）。
// 区间内没有日志的品目不会出现在结果里。
func (s *InventoryService) Summarize(from, to string) (map[uint]int, error) {
	start, err := time.ParseInLocation(dateLayout, from, time.UTC)
	if err != nil {
		return nil, ErrInvalidDateRange
	}
	end, err := time.ParseInLocation(dateLayout, to, time.UTC)
	if err != nil {
		return nil, ErrInvalidDateRange
	}
	if start.After(end) {
		return nil, ErrInvalidDateRange
	}

	var rows []struct {
		ProductID uint
		Type      string
		Quantity  int
	}
	if err := s.db.Model(&db.InventoryLog{}).
		Select("product_id, type, quantity").
		Where("logged_date >= ? AND logged_date <= ?", start, end).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query logs in range: %w", err)
	}

	changes := make(map[uint]int, len(rows))
	for _, row := range rows {
		if row.Type == db.LogTypeInbound {
			changes[row.ProductID] += row.Quantity
		} else {
			changes[row.ProductID] -= row.Quantity
		}
	}
	return changes, nil
}

// lockProduct 以 FOR UPDATE 锁定品目行；sqlite 本身串行化写入，
// 该子句保证换用服务器数据库时语义不变
func lockProduct(tx *gorm.DB, id uint) (*db.Product, error) {
	var product db.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("lock product: %w", err)
	}
	return &product, nil
}

// lockActiveProduct 在 lockProduct 基础上拒绝已停用的品目
func lockActiveProduct(tx *gorm.DB, id uint) (*db.Product, error) {
	product, err := lockProduct(tx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrProductInactive
	}
	return product, nil
}

// consumeStockTx 在既有事务内扣减库存并写一条 outbound 日志。
// materialID 非空时写入日志的耗材关联。库存不足直接拒绝。
func consumeStockTx(tx *gorm.DB, productID uint, quantity int, materialID *uint) (*db.InventoryLog, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := lockActiveProduct(tx, productID)
	if err != nil {
		return nil, err
	}
	if product.CurrentStock < quantity {
		return nil, ErrInsufficientStock
	}

	product.CurrentStock -= quantity
	product.TotalOut += quantity
	if err := tx.Save(product).Error; err != nil {
		return nil, fmt.Errorf("update ledger: %w", err)
	}

	entry := db.InventoryLog{
		ProductID:      productID,
		Type:           db.LogTypeOutbound,
		Quantity:       quantity,
		TaskMaterialID: materialID,
		LoggedDate:     calendar.Truncate(time.Now()),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("append outbound log: %w", err)
	}
	return &entry, nil
}

// reverseLogTx 按日志类型执行反向台账调整。
// 删除入库：库存与累计入库同时回减；删除出库：库存回增、累计出库回减。
// 任一计数器将要变负即视为数据完整性错误，拒绝而不是截断。
func reverseLogTx(tx *gorm.DB, entry *db.InventoryLog) error {
	product, err := lockProduct(tx, entry.ProductID)
	if err != nil {
		return err
	}

	switch entry.Type {
	case db.LogTypeInbound:
		if product.TotalIn-entry.Quantity < 0 || product.CurrentStock-entry.Quantity < 0 {
			return fmt.Errorf("%w: reversing inbound log %d on product %d", ErrLedgerIntegrity, entry.ID, product.ID)
		}
		product.CurrentStock -= entry.Quantity
		product.TotalIn -= entry.Quantity
	case db.LogTypeOutbound:
		if product.TotalOut-entry.Quantity < 0 {
			return fmt.Errorf("%w: reversing outbound log %d on product %d", ErrLedgerIntegrity, entry.ID, product.ID)
		}
		product.CurrentStock += entry.Quantity
		product.TotalOut -= entry.Quantity
	default:
		return fmt.Errorf("unknown log type %q on log %d", entry.Type, entry.ID)
	}

	if err := tx.Save(product).Error; err != nil {
		return fmt.Errorf("reverse ledger: %w", err)
	}
	return nil
}
