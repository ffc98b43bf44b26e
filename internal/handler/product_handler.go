package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/worklog/internal/db"
	"github.com/worklog/internal/service"
)

type productRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
	MinStock int    `json:"min_stock"`
	Note     string `json:"note"`
}

// GetProducts 返回品目列表，支持搜索与库存筛选
func (a *API) GetProducts(c *gin.Context) {
	filter := service.ProductFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Stock:    c.Query("filter"),
	}

	products, err := a.products.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取品目列表失败")
		return
	}

	items := make([]gin.H, 0, len(products))
	for _, product := range products {
		items = append(items, productToPayload(product))
	}
	c.JSON(http.StatusOK, gin.H{"products": items})
}

// CreateProduct 登记新品目
func (a *API) CreateProduct(c *gin.Context) {
	var req productRequest
	if !bindJSON(c, &req, "请求格式不正确") {
		return
	}

	product, err := a.products.Create(service.ProductInput{
		Code:     req.Code,
		Name:     req.Name,
		Category: req.Category,
		Unit:     req.Unit,
		MinStock: req.MinStock,
		Note:     req.Note,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductCodeExists):
			respondError(c, http.StatusConflict, "品目代码已存在")
		case errors.Is(err, service.ErrProductInvalid):
			respondError(c, http.StatusBadRequest, "品目代码和名称不能为空")
		default:
			respondError(c, http.StatusInternalServerError, "登记品目失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "品目登记成功", "product": productToPayload(*product)})
}

// UpdateProduct 更新品目的描述性字段
func (a *API) UpdateProduct(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的品目ID")
		return
	}

	var req productRequest
	if !bindJSON(c, &req, "请求格式不正确") {
		return
	}

	product, err := a.products.Update(id, service.ProductInput{
		Name:     req.Name,
		Category: req.Category,
		Unit:     req.Unit,
		MinStock: req.MinStock,
		Note:     req.Note,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, http.StatusNotFound, "品目不存在")
		case errors.Is(err, service.ErrProductInvalid):
			respondError(c, http.StatusBadRequest, "品目名称不能为空")
		default:
			respondError(c, http.StatusInternalServerError, "更新品目失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "品目更新成功", "product": productToPayload(*product)})
}

// DeleteProduct 停用品目（软删除）
func (a *API) DeleteProduct(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的品目ID")
		return
	}

	if err := a.products.Deactivate(id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, http.StatusNotFound, "品目不存在")
		} else {
			respondError(c, http.StatusInternalServerError, "停用品目失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "品目已停用"})
}

func productToPayload(product db.Product) gin.H {
	return gin.H{
		"id":            product.ID,
		"code":          product.Code,
		"name":          product.Name,
		"category":      product.Category,
		"unit":          product.Unit,
		"current_stock": product.CurrentStock,
		"total_in":      product.TotalIn,
		"total_out":     product.TotalOut,
		"min_stock":     product.MinStock,
		"is_active":     product.IsActive,
		"note":          product.Note,
	}
}
