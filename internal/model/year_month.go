package model

import (
	"fmt"
	"time"
)

// YearMonth 日历月（分区键）
type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// YearMonthOf 取时间所在月份
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}

// ParseYearMonth 解析 "2006-01" 格式
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("月份格式无效 %q: %w", s, err)
	}
	return YearMonthOf(t), nil
}

// Valid 月份在 [1,12]
func (ym YearMonth) Valid() bool {
	return ym.Month >= 1 && ym.Month <= 12
}

// index 自公元 0 年起的月序号
func (ym YearMonth) index() int {
	return ym.Year*12 + (ym.Month - 1)
}

// AddMonths 月份偏移（n 可为负）
func (ym YearMonth) AddMonths(n int) YearMonth {
	idx := ym.index() + n
	return YearMonth{Year: idx / 12, Month: idx%12 + 1}
}

// Before 严格早于 other
func (ym YearMonth) Before(other YearMonth) bool {
	return ym.index() < other.index()
}

// MonthsUntil 返回 ym 到 later 相差的月数：12*(later.Year-ym.Year) + (later.Month-ym.Month)
func (ym YearMonth) MonthsUntil(later YearMonth) int {
	return later.index() - ym.index()
}

// FirstDay 当月 1 日零点
func (ym YearMonth) FirstDay(loc *time.Location) time.Time {
	return time.Date(ym.Year, time.Month(ym.Month), 1, 0, 0, 0, 0, loc)
}

// WeekRange 第 week 个日历周（周一开始）在本月内的 [start, end) 区间
// 本月不存在该周时 ok=false
func (ym YearMonth) WeekRange(week int, loc *time.Location) (start, end time.Time, ok bool) {
	if week < MinWeekInMonth || week > MaxWeekInMonth {
		return time.Time{}, time.Time{}, false
	}
	first := ym.FirstDay(loc)
	next := first.AddDate(0, 1, 0)

	// 周一为 0
	offset := (int(first.Weekday()) + 6) % 7
	monday := first.AddDate(0, 0, -offset+7*(week-1))

	start, end = monday, monday.AddDate(0, 0, 7)
	if start.Before(first) {
		start = first
	}
	if end.After(next) {
		end = next
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// String "2006-01"
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}
