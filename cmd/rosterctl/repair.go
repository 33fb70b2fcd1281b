package main

import (
	"github.com/spf13/cobra"

	"sharedhome/backend/internal/dto"
	"sharedhome/backend/internal/model"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "删除并重建单月分配",
	Long: `无条件删除目标月的全部分配，再从最近的可用基线重建。

Examples:
  rosterctl repair --year 2025 --month 10`,
	RunE: runRepair,
}

func init() {
	f := repairCmd.Flags()
	f.Int("year", 0, "目标年份")
	f.Int("month", 0, "目标月份 (1-12)")
	_ = repairCmd.MarkFlagRequired("year")
	_ = repairCmd.MarkFlagRequired("month")
}

func runRepair(cmd *cobra.Command, args []string) error {
	year, _ := cmd.Flags().GetInt("year")
	month, _ := cmd.Flags().GetInt("month")

	out, err := application.Service.Roster.RepairMonth(cmd.Context(), model.YearMonth{Year: year, Month: month})
	if perr := printJSON(cmd, dto.NewMonthOutcomeResponse(out)); perr != nil {
		return perr
	}
	return err
}
