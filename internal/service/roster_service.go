package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sharedhome/backend/config"
	"sharedhome/backend/internal/model"
	"sharedhome/backend/internal/repository"
	pkgerrors "sharedhome/backend/pkg/errors"
)

// ── 值班表模块业务错误 ──

var (
	ErrInvalidMonth     = errors.New("月份无效")
	ErrNoBaseline       = errors.New("没有可用的值班基线")
	ErrEmptyAfterInsert = errors.New("写入后目标月仍为空")
	ErrAnchorUnhealthy  = errors.New("锚定月数据不可用")
)

// MonthAction 单月处理结果
type MonthAction string

const (
	ActionKept        MonthAction = "kept"        // 现有数据质量足够，未改动
	ActionRegenerated MonthAction = "regenerated" // 已从基线复制
	ActionConcurrent  MonthAction = "concurrent"  // 并发写入方已先行填充
	ActionFailed      MonthAction = "failed"
)

// MonthOutcome 单月确保结果
type MonthOutcome struct {
	Period   model.YearMonth  `json:"period"`
	Action   MonthAction      `json:"action"`
	Quality  QualityScore     `json:"quality"` // 处理前
	Source   *model.YearMonth `json:"source,omitempty"`
	Inserted int              `json:"inserted"`
	Observed int              `json:"observed"`
	Mismatch bool             `json:"partial_insert_mismatch,omitempty"`
	Repaired bool             `json:"repaired,omitempty"`
	Retried  bool             `json:"retried,omitempty"`
	Error    string           `json:"error,omitempty"`
	Err      error            `json:"-"`
}

// OK 本月处理成功
func (o *MonthOutcome) OK() bool { return o.Err == nil }

// AnchorCheck 锚定月完整性检查结果（仅报告，不自动修复）
type AnchorCheck struct {
	Period  model.YearMonth `json:"period"`
	Quality QualityScore    `json:"quality"`
	Healthy bool            `json:"healthy"`
	Error   string          `json:"error,omitempty"`
}

// MonthValidation 续排后的复核结果
type MonthValidation struct {
	Period  model.YearMonth `json:"period"`
	Quality QualityScore    `json:"quality"`
	Error   string          `json:"error,omitempty"`
}

// ExtendReport 续排汇总
type ExtendReport struct {
	Now        model.YearMonth   `json:"now"`
	Skipped    bool              `json:"skipped,omitempty"` // 冷却期内被节流
	Anchor     *AnchorCheck      `json:"anchor,omitempty"`
	Months     []MonthOutcome    `json:"months"`
	Failed     []model.YearMonth `json:"failed"`
	Validation []MonthValidation `json:"validation"`
	Issues     int               `json:"issues"`
	Duration   time.Duration     `json:"duration_ns"`
}

// MonthView 单月分配与质量
type MonthView struct {
	Period      model.YearMonth        `json:"period"`
	Assignments []model.DutyAssignment `json:"assignments"`
	Quality     QualityScore           `json:"quality"`
}

// ExtendThrottle 续排节流（Redis 实现见 pkg/redis）
type ExtendThrottle interface {
	Allow(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Reset(ctx context.Context, key string) error
}

// RosterOptions 续排引擎参数
type RosterOptions struct {
	Anchor                model.YearMonth
	ExpectedMembers       int
	HorizonMonths         int
	LookbackMonths        int
	AcceptFirstAcceptable bool
	ExtendCooldown        time.Duration
	Location              *time.Location
}

// RosterOptionsFromConfig 从配置构建引擎参数
func RosterOptionsFromConfig(cfg *config.RosterConfig) RosterOptions {
	return RosterOptions{
		Anchor:                model.YearMonth{Year: cfg.AnchorYear, Month: cfg.AnchorMonth},
		ExpectedMembers:       cfg.ExpectedMembers,
		HorizonMonths:         cfg.HorizonMonths,
		LookbackMonths:        cfg.LookbackMonths,
		AcceptFirstAcceptable: cfg.AcceptFirstAcceptable,
		ExtendCooldown:        cfg.ExtendCooldown,
		Location:              cfg.Location(),
	}
}

// RosterService 值班表自动续排业务接口
type RosterService interface {
	// 确保单月有可用的分配数据
	EnsureMonth(ctx context.Context, target model.YearMonth) (*MonthOutcome, error)
	// 当前月 + 后续月份续排（尽力而为，不返回错误）
	ExtendRange(ctx context.Context, force bool) *ExtendReport
	// 删除并重建单月
	RepairMonth(ctx context.Context, target model.YearMonth) (*MonthOutcome, error)
	// 锚定月完整性校验（启动时调用）
	ValidateAnchor(ctx context.Context) (*AnchorCheck, error)
	// 查询单月分配与质量
	GetMonth(ctx context.Context, target model.YearMonth) (*MonthView, error)
	// 按配置时区计算的当前月
	CurrentMonth() model.YearMonth
}

type rosterService struct {
	repo     *repository.Repository
	opts     RosterOptions
	throttle ExtendThrottle
	logger   *zap.Logger
	now      func() time.Time
}

// NewRosterService 创建 RosterService 实例；throttle 可为 nil（不节流）
func NewRosterService(repo *repository.Repository, opts RosterOptions, throttle ExtendThrottle, logger *zap.Logger) RosterService {
	if opts.ExpectedMembers <= 0 {
		opts.ExpectedMembers = DefaultExpectedMembers
	}
	if opts.HorizonMonths <= 0 {
		opts.HorizonMonths = 6
	}
	if opts.LookbackMonths <= 0 {
		opts.LookbackMonths = 6
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &rosterService{
		repo:     repo,
		opts:     opts,
		throttle: throttle,
		logger:   logger.Named("roster"),
		now:      time.Now,
	}
}

// ════════════════════════════════════════════════════════════
// EnsureMonth 单月确保
// ════════════════════════════════════════════════════════════

func (s *rosterService) EnsureMonth(ctx context.Context, target model.YearMonth) (*MonthOutcome, error) {
	out := &MonthOutcome{Period: target, Action: ActionFailed}
	if !target.Valid() {
		return out.fail(fmt.Errorf("%w: %s", ErrInvalidMonth, target))
	}

	now := s.currentMonth()
	expected := s.expectedMembers(ctx)
	log := s.logger.With(zap.Int("year", target.Year), zap.Int("month", target.Month))

	// 1. 评估现有数据
	existing, err := s.repo.DutyAssignment.ListByMonth(ctx, target)
	if err != nil {
		log.Error("读取目标月失败", zap.Error(err))
		return out.fail(fmt.Errorf("读取目标月 %s 失败: %w", target, err))
	}
	q := s.evaluate(existing, target, now, expected)
	out.Quality = q
	out.Observed = len(existing)

	// 2/3. excellent / good / acceptable 保留
	if q.Tier != TierPoor {
		log.Info("现有数据质量足够，保留",
			zap.Int("rows", q.Rows),
			zap.Int("score", q.Score),
			zap.String("tier", string(q.Tier)),
		)
		out.Action = ActionKept
		return out, nil
	}

	// 4. poor：先找基线再删除（与“删除→找基线→写入”的顺序不同）
	// 找不到基线时保留现有数据，不把目标月清空；空分区不删除，并发双方只在唯一约束上竞争
	base, err := s.locateBaseline(ctx, target, now, expected)
	if err != nil {
		log.Error("未找到可用基线", zap.Int("rows", q.Rows), zap.Int("score", q.Score), zap.Error(err))
		return out.fail(err)
	}
	out.Source = &base.Source

	if len(existing) > 0 {
		if err := s.repo.DutyAssignment.DeleteByMonth(ctx, target); err != nil {
			log.Error("清理目标月失败", zap.Error(err))
			return out.fail(fmt.Errorf("清理目标月 %s 失败: %w", target, err))
		}
	}

	rows := make([]model.DutyAssignment, 0, len(base.Items))
	for _, a := range base.Items {
		rows = append(rows, a.RebindTo(target))
	}

	if err := s.repo.DutyAssignment.BatchCreate(ctx, rows); err != nil {
		// 5. 唯一约束冲突：并发写入方已填充
		if pkgerrors.IsUniqueViolation(err) {
			current, qerr := s.repo.DutyAssignment.ListByMonth(ctx, target)
			if qerr == nil && len(current) > 0 {
				log.Info("并发写入方已填充目标月", zap.Int("observed", len(current)))
				out.Action = ActionConcurrent
				out.Observed = len(current)
				return out, nil
			}
		}
		// 6. 其他写入失败
		log.Error("写入目标月失败", zap.Int("rows", len(rows)), zap.Error(err))
		return out.fail(fmt.Errorf("写入目标月 %s 失败: %w", target, err))
	}
	out.Inserted = len(rows)

	// 7. 回读核对
	observed, err := s.repo.DutyAssignment.ListByMonth(ctx, target)
	if err != nil {
		log.Warn("写入后回读失败，按写入结果计", zap.Error(err))
		out.Observed = out.Inserted
	} else {
		out.Observed = len(observed)
	}
	if out.Observed != out.Inserted {
		out.Mismatch = true
		log.Warn("写入行数与回读行数不一致",
			zap.Bool("partial_insert_mismatch", true),
			zap.Int("inserted", out.Inserted),
			zap.Int("observed", out.Observed),
		)
		if out.Observed == 0 {
			return out.fail(fmt.Errorf("%w: %s", ErrEmptyAfterInsert, target))
		}
	}

	out.Action = ActionRegenerated
	log.Info("已从基线生成目标月",
		zap.Int("source_year", base.Source.Year),
		zap.Int("source_month", base.Source.Month),
		zap.Int("source_score", base.Quality.Score),
		zap.String("source_tier", string(base.Quality.Tier)),
		zap.Int("inserted", out.Inserted),
		zap.Int("observed", out.Observed),
	)
	return out, nil
}

// ════════════════════════════════════════════════════════════
// ExtendRange 当前月 + 后续月份续排
// ════════════════════════════════════════════════════════════

func (s *rosterService) ExtendRange(ctx context.Context, force bool) *ExtendReport {
	start := time.Now()
	now := s.currentMonth()
	report := &ExtendReport{Now: now, Failed: []model.YearMonth{}}

	if !force && s.throttle != nil {
		allowed, err := s.throttle.Allow(ctx, throttleKey(now), s.opts.ExtendCooldown)
		switch {
		case err != nil:
			s.logger.Warn("节流检查失败，继续续排", zap.Error(err))
		case !allowed:
			s.logger.Debug("冷却期内，跳过续排", zap.String("now", now.String()))
			report.Skipped = true
			return report
		}
	}

	// 1. 锚定月完整性检查（仅报告）
	anchor, _ := s.ValidateAnchor(ctx)
	report.Anchor = anchor

	// 2. 逐月确保，单月失败不影响其他月份
	for i := 0; i < s.opts.HorizonMonths; i++ {
		out, _ := s.EnsureMonth(ctx, now.AddMonths(i))
		report.Months = append(report.Months, *out)
	}

	// 3. 当月失败时直接重试一次
	if len(report.Months) > 0 && !report.Months[0].OK() {
		s.logger.Warn("当月续排失败，重试一次", zap.String("error", report.Months[0].Error))
		out, _ := s.EnsureMonth(ctx, now)
		out.Retried = true
		report.Months[0] = *out
	}

	for _, m := range report.Months {
		if !m.OK() {
			report.Failed = append(report.Failed, m.Period)
		}
	}

	// 4. 复核
	report.Validation = s.validateRange(ctx, now, s.opts.HorizonMonths)
	for _, v := range report.Validation {
		if v.Error != "" || v.Quality.Tier == TierPoor {
			report.Issues++
		}
	}

	// 有失败月份时清除冷却标记，下一次页面加载即可重试
	if len(report.Failed) > 0 && s.throttle != nil {
		if err := s.throttle.Reset(ctx, throttleKey(now)); err != nil {
			s.logger.Warn("清除续排冷却标记失败", zap.Error(err))
		}
	}

	report.Duration = time.Since(start)
	s.logger.Info("续排完成",
		zap.String("now", now.String()),
		zap.Int("months", len(report.Months)),
		zap.Int("failed", len(report.Failed)),
		zap.Int("issues", report.Issues),
		zap.Duration("duration", report.Duration),
	)
	return report
}

// validateRange 并发复核各月（只读，分区互不相关）
func (s *rosterService) validateRange(ctx context.Context, from model.YearMonth, months int) []MonthValidation {
	now := s.currentMonth()
	expected := s.expectedMembers(ctx)
	results := make([]MonthValidation, months)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	for i := 0; i < months; i++ {
		ym := from.AddMonths(i)
		g.Go(func() error {
			results[i].Period = ym
			items, err := s.repo.DutyAssignment.ListByMonth(gctx, ym)
			if err != nil {
				results[i].Error = err.Error()
				results[i].Quality = QualityScore{Tier: TierPoor}
				return nil
			}
			results[i].Quality = s.evaluate(items, ym, now, expected)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ════════════════════════════════════════════════════════════
// RepairMonth 强制重建
// ════════════════════════════════════════════════════════════

func (s *rosterService) RepairMonth(ctx context.Context, target model.YearMonth) (*MonthOutcome, error) {
	if !target.Valid() {
		out := &MonthOutcome{Period: target, Action: ActionFailed, Repaired: true}
		return out.fail(fmt.Errorf("%w: %s", ErrInvalidMonth, target))
	}

	s.logger.Warn("强制重建目标月", zap.Int("year", target.Year), zap.Int("month", target.Month))
	if err := s.repo.DutyAssignment.DeleteByMonth(ctx, target); err != nil {
		out := &MonthOutcome{Period: target, Action: ActionFailed, Repaired: true}
		return out.fail(fmt.Errorf("清理目标月 %s 失败: %w", target, err))
	}

	out, err := s.EnsureMonth(ctx, target)
	out.Repaired = true
	return out, err
}

// ════════════════════════════════════════════════════════════
// ValidateAnchor / GetMonth
// ════════════════════════════════════════════════════════════

func (s *rosterService) ValidateAnchor(ctx context.Context) (*AnchorCheck, error) {
	anchor := s.opts.Anchor
	check := &AnchorCheck{Period: anchor}

	items, err := s.repo.DutyAssignment.ListByMonth(ctx, anchor)
	if err != nil {
		check.Error = err.Error()
		s.logger.Error("读取锚定月失败", zap.String("anchor", anchor.String()), zap.Error(err))
		return check, fmt.Errorf("读取锚定月 %s 失败: %w", anchor, err)
	}

	check.Quality = s.evaluate(items, anchor, s.currentMonth(), s.expectedMembers(ctx))
	check.Healthy = len(items) > 0 && check.Quality.Tier != TierPoor

	fields := []zap.Field{
		zap.String("anchor", anchor.String()),
		zap.Int("rows", check.Quality.Rows),
		zap.Int("score", check.Quality.Score),
		zap.String("tier", string(check.Quality.Tier)),
	}
	if !check.Healthy {
		check.Error = ErrAnchorUnhealthy.Error()
		s.logger.Warn("锚定月数据不可用", fields...)
		return check, fmt.Errorf("%w: %s", ErrAnchorUnhealthy, anchor)
	}
	s.logger.Info("锚定月检查通过", fields...)
	return check, nil
}

func (s *rosterService) GetMonth(ctx context.Context, target model.YearMonth) (*MonthView, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMonth, target)
	}
	items, err := s.repo.DutyAssignment.ListByMonth(ctx, target)
	if err != nil {
		s.logger.Error("查询值班分配失败", zap.String("period", target.String()), zap.Error(err))
		return nil, err
	}
	return &MonthView{
		Period:      target,
		Assignments: items,
		Quality:     s.evaluate(items, target, s.currentMonth(), s.expectedMembers(ctx)),
	}, nil
}

// ════════════════════════════════════════════════════════════
// 内部辅助方法
// ════════════════════════════════════════════════════════════

func (s *rosterService) CurrentMonth() model.YearMonth {
	return s.currentMonth()
}

func (s *rosterService) currentMonth() model.YearMonth {
	return model.YearMonthOf(s.now().In(s.opts.Location))
}

// expectedMembers 活跃成员数；成员表为空或不可用时使用配置的参考值
func (s *rosterService) expectedMembers(ctx context.Context) int {
	n, err := s.repo.Member.CountActive(ctx)
	if err != nil {
		s.logger.Debug("读取成员数失败，使用参考值", zap.Int("expected", s.opts.ExpectedMembers), zap.Error(err))
		return s.opts.ExpectedMembers
	}
	if n <= 0 {
		return s.opts.ExpectedMembers
	}
	return n
}

func (s *rosterService) evaluate(items []model.DutyAssignment, period, now model.YearMonth, expected int) QualityScore {
	return EvaluateQuality(items, QualityContext{
		Period:   period,
		Now:      now,
		Anchor:   s.opts.Anchor,
		Expected: expected,
	})
}

func throttleKey(now model.YearMonth) string {
	return "extend:" + now.String()
}

func (o *MonthOutcome) fail(err error) (*MonthOutcome, error) {
	o.Action = ActionFailed
	o.Err = err
	o.Error = err.Error()
	return o, err
}
