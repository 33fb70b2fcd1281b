package repository

import (
	"context"
	"sort"

	"sharedhome/backend/internal/model"
)

// MemberRepository 住户成员数据访问接口（只读）
type MemberRepository interface {
	CountActive(ctx context.Context) (int, error)
	ListActive(ctx context.Context) ([]model.Member, error)
	ListAll(ctx context.Context) ([]model.Member, error)
}

type memberRepo struct {
	store Store
}

// NewMemberRepo 创建 MemberRepository 实例
func NewMemberRepo(store Store) MemberRepository {
	return &memberRepo{store: store}
}

func (r *memberRepo) CountActive(ctx context.Context) (int, error) {
	members, err := r.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	return len(members), nil
}

func (r *memberRepo) ListActive(ctx context.Context) ([]model.Member, error) {
	return r.list(ctx, Filters{"is_active": true})
}

func (r *memberRepo) ListAll(ctx context.Context) ([]model.Member, error) {
	return r.list(ctx, nil)
}

func (r *memberRepo) list(ctx context.Context, filters Filters) ([]model.Member, error) {
	rows, err := r.store.Select(ctx, TableMembers, filters)
	if err != nil {
		return nil, err
	}

	members := make([]model.Member, 0, len(rows))
	for _, row := range rows {
		active, _ := row["is_active"].(bool)
		members = append(members, model.Member{
			MemberID: asString(row["member_id"]),
			Name:     asString(row["name"]),
			IsActive: active,
		})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
	return members, nil
}
