package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/worklog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrProductCodeExists 在品目代码重复时返回
	ErrProductCodeExists = errors.New("product code already exists")
	// ErrProductInvalid 在品目字段校验失败时返回
	ErrProductInvalid = errors.New("invalid product input")
)

// ProductService 负责品目的登记、查询与停用
// 台账计数器只由 InventoryService/MaterialService 的事务修改，
// 这里的 Update 仅覆盖名称、单位等描述性字段。
type ProductService struct {
	db *gorm.DB
}

// ProductFilter 描述品目列表的过滤条件
// Stock 支持 zero（无库存）与 low（库存不高于安全线）
type ProductFilter struct {
	Search   string
	Category string
	Stock    string
}

// ProductInput 定义创建/更新品目时可配置字段
type ProductInput struct {
	Code     string
	Name     string
	Category string
	Unit     string
	MinStock int
	Note     string
}

// NewProductService 构造 ProductService
func NewProductService(gdb *gorm.DB) *ProductService {
	return &ProductService{db: gdb}
}

// List 返回在用品目集合，按代码排序，支持搜索与筛选
func (s *ProductService) List(filter ProductFilter) ([]db.Product, error) {
	var products []db.Product

	query := s.db.Model(&db.Product{}).Where("is_active = ?", true)

	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", strings.TrimSpace(filter.Search))
		query = query.Where("name LIKE ? OR code LIKE ?", like, like)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	switch filter.Stock {
	case "zero":
		query = query.Where("current_stock = 0")
	case "low":
		query = query.Where("current_stock > 0 AND current_stock <= min_stock")
	}

	if err := query.Order("code").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Get 根据 ID 获取品目
func (s *ProductService) Get(id uint) (*db.Product, error) {
	var product db.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &product, nil
}

// Create 登记新品目，代码全局唯一，台账计数器从零开始
func (s *ProductService) Create(input ProductInput) (*db.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(input.Code)
	var existing db.Product
	err := s.db.Where("code = ?", code).First(&existing).Error
	if err == nil {
		return nil, ErrProductCodeExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check product code: %w", err)
	}

	product := db.Product{
		Code:     code,
		Name:     strings.TrimSpace(input.Name),
		Category: normalizeCategory(input.Category),
		Unit:     strings.TrimSpace(input.Unit),
		MinStock: input.MinStock,
		IsActive: true,
		Note:     strings.TrimSpace(input.Note),
	}
	if err := s.db.Create(&product).Error; err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &product, nil
}

// Update 更新品目的描述性字段，不触碰任何台账计数器
func (s *ProductService) Update(id uint, input ProductInput) (*db.Product, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrProductInvalid)
	}

	var existing db.Product
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Category = normalizeCategory(input.Category)
	existing.Unit = strings.TrimSpace(input.Unit)
	existing.MinStock = input.MinStock
	existing.Note = strings.TrimSpace(input.Note)

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return &existing, nil
}

// Deactivate 停用品目（软删除），历史日志保持可追溯
func (s *ProductService) Deactivate(id uint) error {
	result := s.db.Model(&db.Product{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("deactivate product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Code) == "" {
		return fmt.Errorf("%w: code is required", ErrProductInvalid)
	}
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrProductInvalid)
	}
	if input.MinStock < 0 {
		return fmt.Errorf("%w: min stock must not be negative", ErrProductInvalid)
	}
	switch strings.TrimSpace(input.Category) {
	case "", db.CategoryMain, db.CategorySub:
		return nil
	default:
		return fmt.Errorf("%w: unknown category %q", ErrProductInvalid, input.Category)
	}
}

func normalizeCategory(category string) string {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return db.CategoryMain
	}
	return trimmed
}
