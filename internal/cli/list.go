package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
)

func newListCommand(opts *RootOptions) *cobra.Command {
	var req appbook.ListBooksRequest

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "列出图书",
		Long: `列出图书,可按关键词和分类筛选。

--search 匹配书名、作者(不区分大小写)和ISBN
--sort   newest(默认,最新在前) | title(按书名) | category(按分类)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithCatalog(cmd, opts, func(_ context.Context, a *app) error {
				resp := appbook.NewListBooksUseCase(a.catalog).Execute(req)
				return newPrinter(opts, cmd.OutOrStdout()).print(resp.List, func(w io.Writer) error {
					if err := writeBookTable(w, resp.List); err != nil {
						return err
					}
					_, err := fmt.Fprintf(w, "\n共%d本(全部%d本,借出%d本)\n", resp.Total, resp.Stats.Total, resp.Stats.Borrowed)
					return err
				})
			})
		},
	}

	cmd.Flags().StringVarP(&req.Search, "search", "s", "", "关键词")
	cmd.Flags().StringVar(&req.Category, "category", "", "分类(all表示全部)")
	cmd.Flags().StringVar(&req.Sort, "sort", "newest", "排序方式(newest|title|category)")
	return cmd
}

func newStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "藏书统计",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithCatalog(cmd, opts, func(_ context.Context, a *app) error {
				stats := a.catalog.Metrics()
				return newPrinter(opts, cmd.OutOrStdout()).print(stats, func(w io.Writer) error {
					return writeStats(w, stats)
				})
			})
		},
	}
}
