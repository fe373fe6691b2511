// Package cli 图书管理命令行工具shelf
//
// 直接操作本地配置的图书存储(默认data/books.json),不经过HTTP服务:
//
//	shelf add -t 三体 -a 刘慈欣 -i 9787536692930 -c 文学
//	shelf add -i 9787536692930 --lookup     # 联网补全书名、作者、分类
//	shelf list --search 刘 --sort title --format yaml
//	shelf borrow 1700000000000 张三
//	shelf export -o backup.json
//	shelf scan cover.jpg
//	shelf watch                            # 订阅目录变更事件
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions 全局参数
type RootOptions struct {
	ConfigPath string
	Format     string // text | json | yaml
	Verbose    bool
}

// ValidFormats 支持的输出格式
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand 创建根命令
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "shelf",
		Short:         "企业图书管理",
		Long:          "管理企业图书目录:增删改查、借阅归还、导入导出、ISBN查询和扫码录入。",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("无效的输出格式 %q,可选 %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "配置文件路径(默认查找./config/config.yaml、./config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "输出格式(text|json|yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "输出调试日志")

	cmd.AddCommand(
		newAddCommand(opts),
		newEditCommand(opts),
		newRemoveCommand(opts),
		newBorrowCommand(opts),
		newReturnCommand(opts),
		newListCommand(opts),
		newStatsCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
		newLookupCommand(opts),
		newScanCommand(opts),
		newWatchCommand(opts),
	)
	return cmd
}
