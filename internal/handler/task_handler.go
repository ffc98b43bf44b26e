package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/worklog/internal/db"
	"github.com/worklog/internal/service"
)

type taskCreateRequest struct {
	ReportID  uint `json:"report_id" binding:"required"`
	DayOfWeek *int `json:"day_of_week" binding:"required"`
}

type taskUpdateRequest struct {
	Description string `json:"description"`
	Note        string `json:"note"`
}

type materialRequest struct {
	TaskID         uint   `json:"task_id" binding:"required"`
	ProductID      uint   `json:"product_id" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required"`
	LocationID     *uint  `json:"location_id"`
	DetailLocation string `json:"detail_location"`
}

// CreateTask 在指定周报的某一天追加作业
func (a *API) CreateTask(c *gin.Context) {
	var req taskCreateRequest
	if !bindJSON(c, &req, "report_id 和 day_of_week(0-4) 必填") {
		return
	}

	task, err := a.reports.AddTask(req.ReportID, *req.DayOfWeek)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDayOfWeek):
			respondError(c, http.StatusBadRequest, "day_of_week 必须在 0-4 之间")
		case errors.Is(err, service.ErrReportNotFound):
			respondError(c, http.StatusNotFound, "周报不存在")
		default:
			respondError(c, http.StatusInternalServerError, "创建作业失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "作业创建成功", "task": taskToPayload(*task)})
}

// UpdateTask 更新作业的描述与备注
func (a *API) UpdateTask(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的作业ID")
		return
	}

	var req taskUpdateRequest
	if !bindJSON(c, &req, "请求格式不正确") {
		return
	}

	task, err := a.reports.UpdateTask(id, req.Description, req.Note)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			respondError(c, http.StatusNotFound, "作业不存在")
		} else {
			respondError(c, http.StatusInternalServerError, "更新作业失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "作业更新成功", "task": taskToPayload(*task)})
}

// DeleteTask 删除作业并级联解绑全部耗材（自动恢复库存）
func (a *API) DeleteTask(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的作业ID")
		return
	}

	if err := a.reports.DeleteTask(id); err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			respondError(c, http.StatusNotFound, "作业不存在")
		case errors.Is(err, service.ErrLedgerIntegrity):
			respondError(c, http.StatusConflict, "删除会破坏台账一致性，已拒绝")
		default:
			respondError(c, http.StatusInternalServerError, "删除作业失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "作业已删除"})
}

// AttachMaterial 向作业添加耗材（事务内自动扣减库存）
func (a *API) AttachMaterial(c *gin.Context) {
	var req materialRequest
	if !bindJSON(c, &req, "task_id, product_id, quantity(1以上) 必填") {
		return
	}

	material, err := a.materials.Attach(service.AttachInput{
		TaskID:         req.TaskID,
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
		LocationID:     req.LocationID,
		DetailLocation: req.DetailLocation,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidQuantity):
			respondError(c, http.StatusBadRequest, "数量必须不小于1")
		case errors.Is(err, service.ErrTaskNotFound):
			respondError(c, http.StatusNotFound, "作业不存在")
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, http.StatusNotFound, "品目不存在")
		case errors.Is(err, service.ErrLocationNotFound):
			respondError(c, http.StatusNotFound, "地点不存在")
		case errors.Is(err, service.ErrProductInactive):
			respondError(c, http.StatusBadRequest, "品目已停用")
		case errors.Is(err, service.ErrInsufficientStock):
			respondError(c, http.StatusBadRequest, "库存不足")
		default:
			respondError(c, http.StatusInternalServerError, "添加耗材失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "耗材添加成功", "material": materialToPayload(*material)})
}

// DetachMaterial 删除作业耗材（事务内自动恢复库存）
func (a *API) DetachMaterial(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的耗材ID")
		return
	}

	if err := a.materials.Detach(id); err != nil {
		switch {
		case errors.Is(err, service.ErrMaterialNotFound):
			respondError(c, http.StatusNotFound, "耗材记录不存在")
		case errors.Is(err, service.ErrLedgerIntegrity):
			respondError(c, http.StatusConflict, "删除会破坏台账一致性，已拒绝")
		default:
			respondError(c, http.StatusInternalServerError, "删除耗材失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "耗材已删除，库存已恢复"})
}

func taskToPayload(task db.DailyTask) gin.H {
	materials := make([]gin.H, 0, len(task.Materials))
	for _, material := range task.Materials {
		materials = append(materials, materialToPayload(material))
	}
	return gin.H{
		"id":          task.ID,
		"report_id":   task.ReportID,
		"day_of_week": task.DayOfWeek,
		"sort_order":  task.SortOrder,
		"description": task.Description,
		"note":        task.Note,
		"materials":   materials,
	}
}

func materialToPayload(material db.TaskMaterial) gin.H {
	payload := gin.H{
		"id":              material.ID,
		"task_id":         material.TaskID,
		"product_id":      material.ProductID,
		"quantity":        material.Quantity,
		"detail_location": material.DetailLocation,
	}
	if material.LocationID != nil {
		payload["location_id"] = *material.LocationID
	}
	if material.Product.ID != 0 {
		payload["product"] = productToPayload(material.Product)
	}
	if material.Location != nil && material.Location.ID != 0 {
		payload["location"] = gin.H{"id": material.Location.ID, "name": material.Location.Name}
	}
	return payload
}
