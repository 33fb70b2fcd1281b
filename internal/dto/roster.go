package dto

import "sharedhome/backend/internal/model"

// ── 值班表模块 DTO ──

// MonthQuery 单月查询参数
type MonthQuery struct {
	Year  int `form:"year"  binding:"required,min=2000,max=2100"`
	Month int `form:"month" binding:"required,min=1,max=12"`
}

// Period 转为 YearMonth
func (q *MonthQuery) Period() model.YearMonth {
	return model.YearMonth{Year: q.Year, Month: q.Month}
}

// RepairMonthRequest 强制重建单月请求
type RepairMonthRequest struct {
	Year  int `json:"year"  binding:"required,min=2000,max=2100"`
	Month int `json:"month" binding:"required,min=1,max=12"`
}

// Period 转为 YearMonth
func (r *RepairMonthRequest) Period() model.YearMonth {
	return model.YearMonth{Year: r.Year, Month: r.Month}
}

// ExtendQuery 续排参数
type ExtendQuery struct {
	Force bool `form:"force"`
}

// RangeQuery 导出范围参数
type RangeQuery struct {
	From   string `form:"from"   binding:"omitempty,datetime=2006-01"`
	Months int    `form:"months" binding:"omitempty,min=1,max=24"`
}

// GetMonths 获取月数（含默认值）
func (q *RangeQuery) GetMonths(def int) int {
	if q.Months <= 0 {
		return def
	}
	return q.Months
}
