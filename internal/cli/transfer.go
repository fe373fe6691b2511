package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
)

func newExportCommand(opts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "导出全部图书为JSON备份",
		Long: `导出全部图书为JSON数组。

默认写入当前目录的"图书备份_YYYY-MM-DD.json",-o - 输出到标准输出。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithCatalog(cmd, opts, func(_ context.Context, a *app) error {
				name, data, err := appbook.NewTransferUseCase(a.catalog).Export()
				if err != nil {
					return err
				}

				if output == "-" {
					_, err := cmd.OutOrStdout().Write(append(data, '\n'))
					return err
				}
				if output == "" {
					output = name
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("写入备份文件失败: %w", err)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "已导出%d本到 %s\n", a.catalog.Metrics().Total, output)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "输出文件路径(-表示标准输出)")
	return cmd
}

func newImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "从JSON备份导入(整体替换当前目录)",
		Long: `从JSON数组导入图书,整体替换当前目录。

文件不是JSON数组时导入失败,当前目录保持不变。<file>为-时从标准输入读取。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			return runWithCatalog(cmd, opts, func(ctx context.Context, a *app) error {
				n, err := appbook.NewTransferUseCase(a.catalog).Import(ctx, data)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "导入成功，共%d本\n", n)
				return err
			})
		},
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}
	return data, nil
}
