package dto

import (
	"sharedhome/backend/internal/model"
	"sharedhome/backend/internal/service"
)

// ── 值班表模块响应 ──

// ExtendResponse 续排结果
type ExtendResponse struct {
	Now        string                    `json:"now"`
	Skipped    bool                      `json:"skipped"`
	Anchor     *service.AnchorCheck      `json:"anchor,omitempty"`
	Months     []MonthOutcomeResponse    `json:"months"`
	Failed     []string                  `json:"failed"`
	Validation []service.MonthValidation `json:"validation"`
	Issues     int                       `json:"issues"`
	DurationMs int64                     `json:"duration_ms"`
}

// MonthOutcomeResponse 单月结果
type MonthOutcomeResponse struct {
	Period   string               `json:"period"`
	Action   string               `json:"action"`
	Quality  service.QualityScore `json:"quality"`
	Source   string               `json:"source,omitempty"`
	Inserted int                  `json:"inserted"`
	Observed int                  `json:"observed"`
	Mismatch bool                 `json:"partial_insert_mismatch,omitempty"`
	Repaired bool                 `json:"repaired,omitempty"`
	Retried  bool                 `json:"retried,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// MonthResponse 单月分配
type MonthResponse struct {
	Period      string                 `json:"period"`
	Quality     service.QualityScore   `json:"quality"`
	Assignments []model.DutyAssignment `json:"assignments"`
}

// NewMonthOutcomeResponse 转换单月结果
func NewMonthOutcomeResponse(o *service.MonthOutcome) MonthOutcomeResponse {
	resp := MonthOutcomeResponse{
		Period:   o.Period.String(),
		Action:   string(o.Action),
		Quality:  o.Quality,
		Inserted: o.Inserted,
		Observed: o.Observed,
		Mismatch: o.Mismatch,
		Repaired: o.Repaired,
		Retried:  o.Retried,
		Error:    o.Error,
	}
	if o.Source != nil {
		resp.Source = o.Source.String()
	}
	return resp
}

// NewExtendResponse 转换续排汇总
func NewExtendResponse(r *service.ExtendReport) *ExtendResponse {
	resp := &ExtendResponse{
		Now:        r.Now.String(),
		Skipped:    r.Skipped,
		Anchor:     r.Anchor,
		Months:     make([]MonthOutcomeResponse, 0, len(r.Months)),
		Failed:     make([]string, 0, len(r.Failed)),
		Validation: r.Validation,
		Issues:     r.Issues,
		DurationMs: r.Duration.Milliseconds(),
	}
	for i := range r.Months {
		resp.Months = append(resp.Months, NewMonthOutcomeResponse(&r.Months[i]))
	}
	for _, ym := range r.Failed {
		resp.Failed = append(resp.Failed, ym.String())
	}
	return resp
}

// NewMonthResponse 转换单月视图
func NewMonthResponse(v *service.MonthView) *MonthResponse {
	items := v.Assignments
	if items == nil {
		items = []model.DutyAssignment{}
	}
	return &MonthResponse{
		Period:      v.Period.String(),
		Quality:     v.Quality,
		Assignments: items,
	}
}
