package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ── 数据存储层错误分类 ──

var (
	// ErrRelationNotFound 表（relation）不存在，区别于“查询结果为空”
	ErrRelationNotFound = errors.New("数据表不存在")
	// ErrUniqueViolation 唯一约束冲突：通常意味着并发写入方已先行插入
	ErrUniqueViolation = errors.New("违反唯一约束")
	// ErrStoreTimeout 存储调用超时
	ErrStoreTimeout = errors.New("存储调用超时")
)

// PostgreSQL SQLSTATE
const (
	pgUndefinedTable  = "42P01"
	pgUniqueViolation = "23505"
)

// Classify 将驱动层错误归一为存储层哨兵错误（保留原始错误链）
// 无法识别的错误原样返回
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrRelationNotFound) || errors.Is(err, ErrUniqueViolation) || errors.Is(err, ErrStoreTimeout) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUndefinedTable:
			return fmt.Errorf("%w: %s", ErrRelationNotFound, pgErr.Message)
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrUniqueViolation, pgErr.ConstraintName)
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrUniqueViolation, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrStoreTimeout, err)
	}
	return err
}

// IsUniqueViolation 判断是否为唯一约束冲突
func IsUniqueViolation(err error) bool {
	return errors.Is(Classify(err), ErrUniqueViolation)
}

// IsRelationNotFound 判断是否为表不存在
func IsRelationNotFound(err error) bool {
	return errors.Is(Classify(err), ErrRelationNotFound)
}
