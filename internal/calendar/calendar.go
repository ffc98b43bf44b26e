// Package calendar 提供 ISO-8601 周历计算。
// 周从周一开始，周报只覆盖周一到周五的五个工作日。
package calendar

import "time"

// DayNames 为周一到周五的中文名称，下标对应 day_of_week 0-4
var DayNames = [5]string{"周一", "周二", "周三", "周四", "周五"}

// CurrentWeek 返回当前时刻所在的 ISO 年份与周数
func CurrentWeek() (year, week int) {
	return time.Now().ISOWeek()
}

// WeekDates 返回指定 ISO 周的周一与周五日期（UTC 零点）。
// ISO 周数以包含 1 月 4 日的那一周为第一周。
func WeekDates(year, week int) (start, end time.Time) {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)

	// 回退到 1 月 4 日所在周的周一
	offset := int(jan4.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	firstMonday := jan4.AddDate(0, 0, -offset)

	start = firstMonday.AddDate(0, 0, (week-1)*7)
	end = start.AddDate(0, 0, 4)
	return start, end
}

// DayDate 返回某周第 dayOfWeek 天（0=周一）的日期
func DayDate(start time.Time, dayOfWeek int) time.Time {
	return start.AddDate(0, 0, dayOfWeek)
}

// Truncate 将时刻归一化为当天的 UTC 零点，用作日志的日历日期
func Truncate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
