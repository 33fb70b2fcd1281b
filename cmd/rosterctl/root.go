package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sharedhome/backend/config"
	"sharedhome/backend/internal/app"
	applogger "sharedhome/backend/pkg/logger"
)

var (
	configPath  string
	cfg         *config.Config
	logger      *zap.Logger
	application *app.App
)

var rootCmd = &cobra.Command{
	Use:           "rosterctl",
	Short:         "值班表运维工具",
	Long:          "手动触发值班表续排、重建单月、检查锚定月。与 HTTP 服务共用配置与存储。",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		cfg = c

		l, err := applogger.NewLogger(&cfg.Log)
		if err != nil {
			return fmt.Errorf("初始化日志失败: %w", err)
		}
		logger = l

		a, err := app.New(cfg, logger)
		if err != nil {
			return err
		}
		application = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if application != nil {
			application.Close()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	rootCmd.AddCommand(extendCmd, repairCmd, checkCmd)
}

// printJSON 结果以缩进 JSON 写到标准输出
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}
