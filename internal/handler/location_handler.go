package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/worklog/internal/db"
	"github.com/worklog/internal/service"
)

type locationRequest struct {
	Name         string `json:"name"`
	Dong         string `json:"dong"`
	BuildingCode string `json:"building_code"`
	Phone        string `json:"phone"`
}

// GetLocations 返回在用地点列表
func (a *API) GetLocations(c *gin.Context) {
	locations, err := a.locations.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取地点列表失败")
		return
	}

	items := make([]gin.H, 0, len(locations))
	for _, location := range locations {
		items = append(items, locationToPayload(location))
	}
	c.JSON(http.StatusOK, gin.H{"locations": items})
}

// CreateLocation 新建地点
func (a *API) CreateLocation(c *gin.Context) {
	var req locationRequest
	if !bindJSON(c, &req, "请求格式不正确") {
		return
	}

	location, err := a.locations.Create(service.LocationInput{
		Name:         req.Name,
		Dong:         req.Dong,
		BuildingCode: req.BuildingCode,
		Phone:        req.Phone,
	})
	if err != nil {
		if errors.Is(err, service.ErrLocationNameRequired) {
			respondError(c, http.StatusBadRequest, "地点名称不能为空")
		} else {
			respondError(c, http.StatusInternalServerError, "创建地点失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "地点创建成功", "location": locationToPayload(*location)})
}

// UpdateLocation 更新地点
func (a *API) UpdateLocation(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的地点ID")
		return
	}

	var req locationRequest
	if !bindJSON(c, &req, "请求格式不正确") {
		return
	}

	location, err := a.locations.Update(id, service.LocationInput{
		Name:         req.Name,
		Dong:         req.Dong,
		BuildingCode: req.BuildingCode,
		Phone:        req.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLocationNameRequired):
			respondError(c, http.StatusBadRequest, "地点名称不能为空")
		case errors.Is(err, service.ErrLocationNotFound):
			respondError(c, http.StatusNotFound, "地点不存在")
		default:
			respondError(c, http.StatusInternalServerError, "更新地点失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "地点更新成功", "location": locationToPayload(*location)})
}

// DeleteLocation 停用地点（软删除）
func (a *API) DeleteLocation(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的地点ID")
		return
	}

	if err := a.locations.Deactivate(id); err != nil {
		if errors.Is(err, service.ErrLocationNotFound) {
			respondError(c, http.StatusNotFound, "地点不存在")
		} else {
			respondError(c, http.StatusInternalServerError, "停用地点失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "地点已停用"})
}

func locationToPayload(location db.Location) gin.H {
	return gin.H{
		"id":            location.ID,
		"name":          location.Name,
		"dong":          location.Dong,
		"building_code": location.BuildingCode,
		"phone":         location.Phone,
	}
}
