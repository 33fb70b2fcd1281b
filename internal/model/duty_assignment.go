package model

// 周次合法范围：一个月最多跨 6 个日历周
const (
	MinWeekInMonth = 1
	MaxWeekInMonth = 6
)

// DutyAssignment 月度值班分配表：对应 duty_assignments
// 唯一约束 (member_id, year, month)；WeekInMonth 为 nil 表示“本月尚未排定”
type DutyAssignment struct {
	AssignmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id,omitempty"`
	MemberID     string `gorm:"type:uuid;not null"                             json:"member_id"`
	Year         int    `gorm:"type:smallint;not null"                         json:"year"`
	Month        int    `gorm:"type:smallint;not null"                         json:"month"`
	WeekInMonth  *int   `gorm:"type:smallint"                                  json:"week_in_month"`
	BaseModel
}

// TableName 指定表名
func (DutyAssignment) TableName() string { return "duty_assignments" }

// Period 所属月份
func (a DutyAssignment) Period() YearMonth {
	return YearMonth{Year: a.Year, Month: a.Month}
}

// IsValid 成员非空，且周次为空或落在 [1,6]
func (a DutyAssignment) IsValid() bool {
	if a.MemberID == "" {
		return false
	}
	if a.WeekInMonth == nil {
		return true
	}
	w := *a.WeekInMonth
	return w >= MinWeekInMonth && w <= MaxWeekInMonth
}

// RebindTo 复制成员与周次到目标月份（不带主键与审计字段）
func (a DutyAssignment) RebindTo(ym YearMonth) DutyAssignment {
	out := DutyAssignment{
		MemberID: a.MemberID,
		Year:     ym.Year,
		Month:    ym.Month,
	}
	if a.WeekInMonth != nil {
		w := *a.WeekInMonth
		out.WeekInMonth = &w
	}
	return out
}

// IntPtr 便捷构造周次指针
func IntPtr(v int) *int { return &v }
