package service

import "sharedhome/backend/internal/model"

// QualityTier 值班数据质量等级
type QualityTier string

const (
	TierExcellent  QualityTier = "excellent"
	TierGood       QualityTier = "good"
	TierAcceptable QualityTier = "acceptable"
	TierPoor       QualityTier = "poor"
)

// DefaultExpectedMembers 住户参考人数（成员表不可用时使用）
const DefaultExpectedMembers = 8

// Usable excellent / good 可直接作为复制来源
func (t QualityTier) Usable() bool {
	return t == TierExcellent || t == TierGood
}

// QualityScore 质量评分（派生值，不落库）
type QualityScore struct {
	Score        int         `json:"score"`
	Tier         QualityTier `json:"tier"`
	Completeness int         `json:"completeness"`
	Validity     int         `json:"validity"`
	Recency      int         `json:"recency"`
	AnchorBonus  int         `json:"anchor_bonus"`
	Rows         int         `json:"rows"`
	ValidRows    int         `json:"valid_rows"`
	Expected     int         `json:"expected"`
}

// QualityContext 评分所需的外部参数
type QualityContext struct {
	Period   model.YearMonth // 被评估的月份
	Now      model.YearMonth // 当前真实月份
	Anchor   model.YearMonth // 人工核验过的锚定月
	Expected int             // 期望成员数 K
}

// TierFor 分数 → 等级
func TierFor(score int) QualityTier {
	switch {
	case score >= 90:
		return TierExcellent
	case score >= 70:
		return TierGood
	case score >= 50:
		return TierAcceptable
	default:
		return TierPoor
	}
}

// EvaluateQuality 对一个月的分配集合打分（0-100），纯函数
//
//	完整度 40：|set| ≥ K → 40；≥ 0.75K → 30；≥ 0.5K → 20；否则 10
//	有效性 30：全部有效 → 30；≥ 80% → 20；否则 10
//	时效性 20：距今 ≤1 月 → 20；≤3 → 15；≤6 → 10；否则 5
//	锚定月 +10
//
// 空集合恒为 0 分（poor）。
func EvaluateQuality(set []model.DutyAssignment, qc QualityContext) QualityScore {
	k := qc.Expected
	if k <= 0 {
		k = DefaultExpectedMembers
	}
	q := QualityScore{Rows: len(set), Expected: k}
	if len(set) == 0 {
		q.Tier = TierPoor
		return q
	}

	n := float64(len(set))
	switch {
	case n >= float64(k):
		q.Completeness = 40
	case n >= 0.75*float64(k):
		q.Completeness = 30
	case n >= 0.5*float64(k):
		q.Completeness = 20
	default:
		q.Completeness = 10
	}

	for _, a := range set {
		if a.IsValid() {
			q.ValidRows++
		}
	}
	switch {
	case q.ValidRows == len(set):
		q.Validity = 30
	case q.ValidRows*5 >= len(set)*4:
		q.Validity = 20
	default:
		q.Validity = 10
	}

	monthsAgo := qc.Period.MonthsUntil(qc.Now)
	switch {
	case monthsAgo <= 1:
		q.Recency = 20
	case monthsAgo <= 3:
		q.Recency = 15
	case monthsAgo <= 6:
		q.Recency = 10
	default:
		q.Recency = 5
	}

	if qc.Period == qc.Anchor {
		q.AnchorBonus = 10
	}

	q.Score = q.Completeness + q.Validity + q.Recency + q.AnchorBonus
	q.Tier = TierFor(q.Score)
	return q
}
