package main

import (
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "检查锚定月数据",
	Long:  "读取 roster.anchor_year / roster.anchor_month 指定的锚定月并打分；锚定月为空或质量为 poor 时返回非零状态。",
	RunE: func(cmd *cobra.Command, args []string) error {
		check, err := application.Service.Roster.ValidateAnchor(cmd.Context())
		if check != nil {
			if perr := printJSON(cmd, check); perr != nil {
				return perr
			}
		}
		return err
	},
}
