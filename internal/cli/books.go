package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/infrastructure/enrich"
)

// bookFlags add/edit共用的字段参数
type bookFlags struct {
	title    string
	author   string
	isbn     string
	category string
}

func (f *bookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "书名")
	cmd.Flags().StringVarP(&f.author, "author", "a", "", "作者")
	cmd.Flags().StringVarP(&f.isbn, "isbn", "i", "", "ISBN")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "分类")
}

func newAddCommand(opts *RootOptions) *cobra.Command {
	var (
		f      bookFlags
		lookup bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "新增图书",
		Long: `新增图书,书名、作者、ISBN和分类均为必填。

使用--lookup时按ISBN联网查询,只补全未填写的字段。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithCatalog(cmd, opts, func(ctx context.Context, a *app) error {
				if lookup {
					if err := fillFromLookup(ctx, enrich.New(a.cfg.Enrich, a.logger), &f, cmd.ErrOrStderr()); err != nil {
						return err
					}
				}

				b, err := appbook.NewSaveBookUseCase(a.catalog).Execute(ctx, appbook.SaveBookRequest{
					Title:    f.title,
					Author:   f.author,
					ISBN:     f.isbn,
					Category: f.category,
				})
				if err != nil {
					return err
				}
				return newPrinter(opts, cmd.OutOrStdout()).print(b, func(w io.Writer) error {
					return writeBookLine(w, "已添加", b)
				})
			})
		},
	}

	f.register(cmd)
	cmd.Flags().BoolVar(&lookup, "lookup", false, "按ISBN联网补全书名、作者和分类")
	return cmd
}

// fillFromLookup 用查询结果补全空字段;查不到时提示手动填写,不算错误
func fillFromLookup(ctx context.Context, lookuper enrich.Lookuper, f *bookFlags, errOut io.Writer) error {
	if f.isbn == "" {
		return fmt.Errorf("--lookup需要同时指定--isbn")
	}

	res, err := lookuper.Lookup(ctx, f.isbn)
	if err != nil {
		return err
	}
	if !res.Found {
		fmt.Fprintf(errOut, "未找到ISBN %s 的图书信息，请手动填写\n", f.isbn)
		return nil
	}

	if f.title == "" {
		f.title = res.Title
	}
	if f.author == "" {
		f.author = res.Author
	}
	if f.category == "" {
		f.category = res.Category
	}
	return nil
}

func newEditCommand(opts *RootOptions) *cobra.Command {
	var f bookFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "编辑图书(只修改指定的字段,借阅状态不变)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithCatalog(cmd, opts, func(ctx context.Context, a *app) error {
				current, err := a.catalog.Get(args[0])
				if err != nil {
					return err
				}

				req := appbook.SaveBookRequest{
					ID:       current.ID,
					Title:    pick(cmd, "title", f.title, current.Title),
					Author:   pick(cmd, "author", f.author, current.Author),
					ISBN:     pick(cmd, "isbn", f.isbn, current.ISBN),
					Category: pick(cmd, "category", f.category, current.Category),
				}
				b, err := appbook.NewSaveBookUseCase(a.catalog).Execute(ctx, req)
				if err != nil {
					return err
				}
				return newPrinter(opts, cmd.OutOrStdout()).print(b, func(w io.Writer) error {
					return writeBookLine(w, "已更新", b)
				})
			})
		},
	}

	f.register(cmd)
	return cmd
}

func pick(cmd *cobra.Command, flag, value, current string) string {
	if cmd.Flags().Changed(flag) {
		return value
	}
	return current
}

func newRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "删除图书",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithCatalog(cmd, opts, func(ctx context.Context, a *app) error {
				if err := appbook.NewSaveBookUseCase(a.catalog).Delete(ctx, args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "已删除 [%s]\n", args[0])
				return err
			})
		},
	}
}

func newBorrowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "borrow <id> <借阅人>",
		Short: "借阅图书",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithCatalog(cmd, opts, func(ctx context.Context, a *app) error {
				b, err := appbook.NewBorrowBookUseCase(a.catalog).Borrow(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return newPrinter(opts, cmd.OutOrStdout()).print(b, func(w io.Writer) error {
					return writeBookLine(w, "已借出", b)
				})
			})
		},
	}
}

// returnResult return命令的输出
type returnResult struct {
	Book             book.Book `json:"book" yaml:"book"`
	PreviousBorrower string    `json:"previous_borrower" yaml:"previous_borrower"`
}

func newReturnCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "return <id>",
		Short: "归还图书",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithCatalog(cmd, opts, func(ctx context.Context, a *app) error {
				b, previous, err := appbook.NewBorrowBookUseCase(a.catalog).Return(ctx, args[0])
				if err != nil {
					return err
				}
				out := returnResult{Book: b, PreviousBorrower: previous}
				return newPrinter(opts, cmd.OutOrStdout()).print(out, func(w io.Writer) error {
					if previous == "" {
						return writeBookLine(w, "未借出", b)
					}
					return writeBookLine(w, "已归还("+previous+")", b)
				})
			})
		},
	}
}
