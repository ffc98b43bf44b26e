package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/worklog/internal/db"
	"github.com/worklog/internal/service"
)

// GetReport 读取指定 ISO 周的周报，不存在时自动创建
func (a *API) GetReport(c *gin.Context) {
	year := parseIntQuery(c, "year", 0)
	week := parseIntQuery(c, "week", 0)
	if year == 0 || week == 0 {
		respondError(c, http.StatusBadRequest, "year 和 week 参数必填")
		return
	}

	report, err := a.reports.GetOrCreate(year, week)
	if err != nil {
		if errors.Is(err, service.ErrInvalidWeek) {
			respondError(c, http.StatusBadRequest, "年份或周数不合法")
		} else {
			respondError(c, http.StatusInternalServerError, "获取周报失败")
		}
		return
	}

	c.JSON(http.StatusOK, reportToPayload(*report, true))
}

// GetReportWeeks 返回全部周报概要（按年份与周数倒序）
func (a *API) GetReportWeeks(c *gin.Context) {
	reports, err := a.reports.ListWeeks()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取周报列表失败")
		return
	}

	items := make([]gin.H, 0, len(reports))
	for _, report := range reports {
		items = append(items, reportToPayload(report, false))
	}
	c.JSON(http.StatusOK, gin.H{"reports": items})
}

func reportToPayload(report db.WeeklyReport, withTasks bool) gin.H {
	payload := gin.H{
		"id":          report.ID,
		"year":        report.Year,
		"week_number": report.WeekNumber,
		"start_date":  report.StartDate.Format("2006-01-02"),
		"end_date":    report.EndDate.Format("2006-01-02"),
		"status":      report.Status,
	}
	if withTasks {
		tasks := make([]gin.H, 0, len(report.Tasks))
		for _, task := range report.Tasks {
			tasks = append(tasks, taskToPayload(task))
		}
		payload["tasks"] = tasks
	}
	return payload
}
