package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sharedhome/backend/internal/dto"
)

var extendCmd = &cobra.Command{
	Use:   "extend",
	Short: "续排当前月及后续月份",
	Long: `对当前月及后续 roster.horizon_months-1 个月执行自动续排。

质量为 excellent / good / acceptable 的月份保持不变，poor 的月份从最近
的可用基线复制。单月失败不影响其他月份，命令以失败月份数作为退出状态。

Examples:
  # 遵守冷却期
  rosterctl extend

  # 跳过冷却期
  rosterctl extend --force`,
	RunE: runExtend,
}

func init() {
	extendCmd.Flags().Bool("force", false, "跳过续排冷却期")
}

func runExtend(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	report := application.Service.Roster.ExtendRange(cmd.Context(), force)
	if err := printJSON(cmd, dto.NewExtendResponse(report)); err != nil {
		return err
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d 个月续排失败", len(report.Failed))
	}
	return nil
}
