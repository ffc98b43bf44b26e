package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/worklog/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportInventory 导出库存现况，默认 CSV，format=xlsx 时导出工作簿
func (a *API) ExportInventory(c *gin.Context) {
	if c.Query("format") == "xlsx" {
		data, filename, err := a.exports.InventoryXLSX()
		if err != nil {
			respondError(c, http.StatusInternalServerError, "导出库存现况失败")
			return
		}
		sendAttachment(c, data, filename, xlsxContentType)
		return
	}

	data, filename, err := a.exports.InventoryCSV()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "导出库存现况失败")
		return
	}
	sendAttachment(c, data, filename, "text/csv; charset=utf-8")
}

// ExportReport 导出指定周报为工作簿
func (a *API) ExportReport(c *gin.Context) {
	reportID := parseIntQuery(c, "report_id", 0)
	if reportID <= 0 {
		respondError(c, http.StatusBadRequest, "report_id 参数必填")
		return
	}

	data, filename, err := a.exports.ReportXLSX(uint(reportID))
	if err != nil {
		if errors.Is(err, service.ErrReportNotFound) {
			respondError(c, http.StatusNotFound, "周报不存在")
		} else {
			respondError(c, http.StatusInternalServerError, "导出周报失败")
		}
		return
	}
	sendAttachment(c, data, filename, xlsxContentType)
}
