package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/worklog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrLocationNotFound 在指定地点不存在或已停用时返回
	ErrLocationNotFound = errors.New("location not found")
	// ErrLocationNameRequired 在地点名称为空时返回
	ErrLocationNameRequired = errors.New("location name is required")
)

// LocationService 维护施工地点（楼栋）信息
type LocationService struct {
	db *gorm.DB
}

// LocationInput 定义创建/更新地点时可配置字段
type LocationInput struct {
	Name         string
	Dong         string
	BuildingCode string
	Phone        string
}

// NewLocationService 构造 LocationService
func NewLocationService(gdb *gorm.DB) *LocationService {
	return &LocationService{db: gdb}
}

// List 返回在用地点，按名称排序
func (s *LocationService) List() ([]db.Location, error) {
	var locations []db.Location
	if err := s.db.Where("is_active = ?", true).
		Order("name").Find(&locations).Error; err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

// Create 新建地点
func (s *LocationService) Create(input LocationInput) (*db.Location, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrLocationNameRequired
	}

	location := db.Location{
		Name:         strings.TrimSpace(input.Name),
		Dong:         strings.TrimSpace(input.Dong),
		BuildingCode: strings.TrimSpace(input.BuildingCode),
		Phone:        strings.TrimSpace(input.Phone),
		IsActive:     true,
	}
	if err := s.db.Create(&location).Error; err != nil {
		return nil, fmt.Errorf("create location: %w", err)
	}
	return &location, nil
}

// Update 更新在用地点的信息
func (s *LocationService) Update(id uint, input LocationInput) (*db.Location, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrLocationNameRequired
	}

	var existing db.Location
	if err := s.db.Where("id = ? AND is_active = ?", id, true).
		First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("find location: %w", err)
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Dong = strings.TrimSpace(input.Dong)
	existing.BuildingCode = strings.TrimSpace(input.BuildingCode)
	existing.Phone = strings.TrimSpace(input.Phone)

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update location: %w", err)
	}
	return &existing, nil
}

// Deactivate 停用地点（软删除）
func (s *LocationService) Deactivate(id uint) error {
	result := s.db.Model(&db.Location{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("deactivate location: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrLocationNotFound
	}
	return nil
}
