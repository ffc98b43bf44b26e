package handler

import (
	"github.com/worklog/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	products  *service.ProductService
	inventory *service.InventoryService
	materials *service.MaterialService
	reports   *service.ReportService
	locations *service.LocationService
	exports   *service.ExportService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB) *API {
	return &API{
		db:        gdb,
		products:  service.NewProductService(gdb),
		inventory: service.NewInventoryService(gdb),
		materials: service.NewMaterialService(gdb),
		reports:   service.NewReportService(gdb),
		locations: service.NewLocationService(gdb),
		exports:   service.NewExportService(gdb),
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}
