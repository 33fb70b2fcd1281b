package model

// Member 住户成员表：对应 members（值班引擎只读）
type Member struct {
	MemberID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"member_id"`
	Name     string `gorm:"type:varchar(100);not null"                     json:"name"`
	IsActive bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Member) TableName() string { return "members" }
