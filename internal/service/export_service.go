package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"sharedhome/backend/internal/model"
	"sharedhome/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportInvalidRange  = errors.New("导出月份范围无效")
	ErrExportNoAssignments = errors.New("所选月份暂无值班分配")
	ErrExportGenerateFail  = errors.New("生成 Excel 文件失败")
)

// MaxExportMonths 单次导出的最大月数
const MaxExportMonths = 24

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Excel 格式：成员为行、月份为列，单元格为周次
//   - 日历导出见 calendar_service.go
type ExportService interface {
	// ExportRoster 导出 [from, from+months) 的值班表为 Excel
	ExportRoster(ctx context.Context, from model.YearMonth, months int) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportRoster 导出值班表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "值班表"
//   - 行头：成员姓名（成员表缺失时用 member_id）
//   - 列头：2025-09 / 2025-10 ...
//   - 单元格："第N周" / "未排定" / "-"（本月无分配）
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportRoster(ctx context.Context, from model.YearMonth, months int) (*bytes.Buffer, string, error) {
	if !from.Valid() || months < 1 || months > MaxExportMonths {
		return nil, "", ErrExportInvalidRange
	}

	// 1. 查询分配
	items, err := s.repo.DutyAssignment.ListRange(ctx, from, months)
	if err != nil {
		s.logger.Error("查询值班分配失败", zap.String("from", from.String()), zap.Error(err))
		return nil, "", err
	}
	if len(items) == 0 {
		return nil, "", ErrExportNoAssignments
	}

	// 2. 成员姓名（读取失败不影响导出）
	names := make(map[string]string)
	if members, err := s.repo.Member.ListAll(ctx); err != nil {
		s.logger.Warn("读取成员列表失败，使用 member_id", zap.Error(err))
	} else {
		for _, m := range members {
			names[m.MemberID] = m.Name
		}
	}

	// 3. 构建索引: "memberID:YYYY-MM" → cellText
	index := make(map[string]string, len(items))
	memberSet := make(map[string]bool)
	for _, a := range items {
		memberSet[a.MemberID] = true
		text := "未排定"
		if a.WeekInMonth != nil {
			text = fmt.Sprintf("第%d周", *a.WeekInMonth)
		}
		index[a.MemberID+":"+a.Period().String()] = text
	}

	memberIDs := make([]string, 0, len(memberSet))
	for id := range memberSet {
		memberIDs = append(memberIDs, id)
	}
	sort.Slice(memberIDs, func(i, j int) bool {
		return displayName(names, memberIDs[i]) < displayName(names, memberIDs[j])
	})

	// 4. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "值班表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 16)
	for i := 0; i < months; i++ {
		col := colName(1 + i)
		f.SetColWidth(sheetName, col, col, 12)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	last := from.AddMonths(months - 1)

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("值班表 %s ~ %s", from, last))
	f.MergeCell(sheetName, "A1", cell(colName(months), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "成员")
	for i := 0; i < months; i++ {
		f.SetCellValue(sheetName, cell(colName(1+i), row), from.AddMonths(i).String())
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(months), row), headerStyle)

	// 数据行
	row = 3
	for _, id := range memberIDs {
		f.SetCellValue(sheetName, cell("A", row), displayName(names, id))
		for i := 0; i < months; i++ {
			text, ok := index[id+":"+from.AddMonths(i).String()]
			if !ok {
				text = "-"
			}
			f.SetCellValue(sheetName, cell(colName(1+i), row), text)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("值班表_%s_%s.xlsx", from, last)
	return buf, filename, nil
}

// ── 辅助函数 ──

func displayName(names map[string]string, memberID string) string {
	if n, ok := names[memberID]; ok && n != "" {
		return n
	}
	return memberID
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
