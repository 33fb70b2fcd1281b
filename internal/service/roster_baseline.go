package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"sharedhome/backend/internal/model"
	pkgerrors "sharedhome/backend/pkg/errors"
)

// baseline 复制来源
type baseline struct {
	Source  model.YearMonth
	Items   []model.DutyAssignment
	Quality QualityScore
}

// locateBaseline 为 target 寻找复制来源
//
// 搜索顺序：
//  1. target 之前的 lookback 个月（从近到远），跳过当前月及以后的月份
//  2. 首个 excellent/good 立即返回
//  3. acceptable 先记下：锚定月已尝试过（或策略要求立即接受）时直接采用，否则继续搜索
//  4. 窗口耗尽后直接读取锚定月：good 以上优先，其次已记下的 acceptable，再次任意非空锚定月
//  5. 仍无结果返回 ErrNoBaseline
func (s *rosterService) locateBaseline(ctx context.Context, target, now model.YearMonth, expected int) (*baseline, error) {
	anchor := s.opts.Anchor
	log := s.logger.With(zap.String("target", target.String()))

	var (
		fallback    *baseline
		anchorSeen  *baseline
		anchorTried bool
		lastErr     error
	)

	for i := 1; i <= s.opts.LookbackMonths; i++ {
		cand := target.AddMonths(-i)
		if !cand.Before(now) {
			continue
		}

		items, err := s.repo.DutyAssignment.ListByMonth(ctx, cand)
		if err != nil {
			if errors.Is(err, pkgerrors.ErrRelationNotFound) || ctx.Err() != nil {
				return nil, fmt.Errorf("读取候选月 %s 失败: %w", cand, err)
			}
			log.Warn("读取候选月失败，跳过", zap.String("candidate", cand.String()), zap.Error(err))
			lastErr = err
			continue
		}

		q := s.evaluate(items, cand, now, expected)
		log.Debug("候选月评分",
			zap.String("candidate", cand.String()),
			zap.Int("rows", q.Rows),
			zap.Int("score", q.Score),
			zap.String("tier", string(q.Tier)),
		)

		b := &baseline{Source: cand, Items: items, Quality: q}
		if cand == anchor {
			anchorTried = true
			anchorSeen = b
		}

		if q.Tier.Usable() {
			return b, nil
		}
		if q.Tier == TierAcceptable && fallback == nil {
			fallback = b
		}
		if fallback != nil && (s.opts.AcceptFirstAcceptable || anchorTried) {
			return fallback, nil
		}
	}

	// 锚定月必须早于目标月与当前月
	if !anchorTried && anchor.Before(target) && anchor.Before(now) {
		items, err := s.repo.DutyAssignment.ListByMonth(ctx, anchor)
		if err != nil {
			if fallback != nil {
				log.Warn("读取锚定月失败，采用 acceptable 候选", zap.Error(err))
				return fallback, nil
			}
			return nil, fmt.Errorf("读取锚定月 %s 失败: %w", anchor, err)
		}
		q := s.evaluate(items, anchor, now, expected)
		anchorSeen = &baseline{Source: anchor, Items: items, Quality: q}
		if q.Tier.Usable() {
			return anchorSeen, nil
		}
	}

	if fallback != nil {
		return fallback, nil
	}
	if anchorSeen != nil && len(anchorSeen.Items) > 0 {
		return anchorSeen, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %s（部分候选月读取失败: %v）", ErrNoBaseline, target, lastErr)
	}
	return nil, fmt.Errorf("%w: %s", ErrNoBaseline, target)
}
