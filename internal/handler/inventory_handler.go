package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/worklog/internal/db"
	"github.com/worklog/internal/service"
)

type inboundRequest struct {
	ProductID uint            `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Memo      string          `json:"memo"`
}

// ReceiveStock 入库处理
func (a *API) ReceiveStock(c *gin.Context) {
	var req inboundRequest
	if !bindJSON(c, &req, "product_id 和 quantity(1以上) 必填") {
		return
	}

	entry, err := a.inventory.ReceiveStock(service.InboundInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Memo:      req.Memo,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidQuantity):
			respondError(c, http.StatusBadRequest, "数量必须不小于1")
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, http.StatusNotFound, "品目不存在")
		case errors.Is(err, service.ErrProductInactive):
			respondError(c, http.StatusBadRequest, "品目已停用")
		default:
			respondError(c, http.StatusInternalServerError, "入库处理失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "入库成功", "log": logToPayload(*entry)})
}

// GetInventoryLogs 返回出入库明细（分页，最新在前）
func (a *API) GetInventoryLogs(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)

	page, err := a.inventory.Logs(limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取出入库明细失败")
		return
	}

	items := make([]gin.H, 0, len(page.Logs))
	for _, entry := range page.Logs {
		items = append(items, logToPayload(entry))
	}
	c.JSON(http.StatusOK, gin.H{"logs": items, "total": page.Total})
}

// DeleteInventoryLog 删除一条出入库日志并自动反向调整库存
func (a *API) DeleteInventoryLog(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的日志ID")
		return
	}

	if err := a.inventory.RemoveLog(id); err != nil {
		switch {
		case errors.Is(err, service.ErrLogNotFound):
			respondError(c, http.StatusNotFound, "出入库记录不存在")
		case errors.Is(err, service.ErrLedgerIntegrity):
			respondError(c, http.StatusConflict, "删除会破坏台账一致性，已拒绝")
		default:
			respondError(c, http.StatusInternalServerError, "删除出入库记录失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "出入库记录已删除"})
}

// GetInventorySummary 返回区间内每个品目的净变动
func (a *API) GetInventorySummary(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		respondError(c, http.StatusBadRequest, "from 和 to 参数必填")
		return
	}

	changes, err := a.inventory.Summarize(from, to)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDateRange) {
			respondError(c, http.StatusBadRequest, "日期区间格式不正确")
		} else {
			respondError(c, http.StatusInternalServerError, "统计库存变动失败")
		}
		return
	}

	c.JSON(http.StatusOK, changes)
}

func logToPayload(entry db.InventoryLog) gin.H {
	payload := gin.H{
		"id":          entry.ID,
		"product_id":  entry.ProductID,
		"type":        entry.Type,
		"quantity":    entry.Quantity,
		"unit_price":  entry.UnitPrice,
		"total_price": entry.TotalPrice,
		"memo":        entry.Memo,
		"logged_date": entry.LoggedDate.Format("2006-01-02"),
	}
	if entry.TaskMaterialID != nil {
		payload["task_material_id"] = *entry.TaskMaterialID
	}
	if entry.Product.ID != 0 {
		payload["product_code"] = entry.Product.Code
		payload["product_name"] = entry.Product.Name
		payload["product_unit"] = entry.Product.Unit
	}
	return payload
}
