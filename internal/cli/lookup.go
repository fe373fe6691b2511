package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	"github.com/xiebiao/bookshelf/internal/infrastructure/enrich"
	"github.com/xiebiao/bookshelf/internal/infrastructure/scan"
)

func newLookupCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <isbn>",
		Short: "按ISBN联网查询图书信息",
		Long: `按ISBN联网查询书名、作者和分类。

先查Open Library,没有结果时再查Google Books;ISBN去掉空格和连字符后不足10位时不查询。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := enrich.New(a.cfg.Enrich, a.logger).Lookup(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			return newPrinter(opts, cmd.OutOrStdout()).print(res, func(w io.Writer) error {
				return writeLookup(w, res)
			})
		},
	}
}

func newScanCommand(opts *RootOptions) *cobra.Command {
	var (
		frames []string
		origin string
	)

	cmd := &cobra.Command{
		Use:   "scan [image]",
		Short: "识别图片中的条形码并查询图书信息",
		Long: `识别图片(PNG/JPEG/GIF)中的ISBN条形码或二维码,再按识别结果联网查询。

--frames 依次识别多张图片,第一次识别成功即停止(模拟摄像头连续取帧)
--origin 页面来源,非HTTPS且非localhost时附带摄像头权限提示`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(frames) > 0 {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			decoder, err := scan.NewDecoder(a.cfg.Scan.Formats, a.cfg.Scan.TryHarder)
			if err != nil {
				return err
			}
			live := scan.NewLiveScanner(decoder,
				scan.WithFrameInterval(0),
				scan.WithOrigin(origin),
				scan.WithLiveLogger(a.logger),
			)
			uc := appbook.NewLookupBookUseCase(enrich.New(a.cfg.Enrich, a.logger), decoder, live, a.logger)

			ctx := commandContext(cmd)
			var resp *appbook.ScanResponse
			if len(frames) > 0 {
				if a.cfg.Scan.Timeout > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, a.cfg.Scan.Timeout)
					defer cancel()
				}
				resp, err = uc.Live(ctx, scan.NewImageSequence(frames))
			} else {
				resp, err = scanFile(ctx, uc, args[0])
			}
			if resp == nil {
				return err
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "识别成功，但联网查询失败: %v\n", err)
			}

			return newPrinter(opts, cmd.OutOrStdout()).print(resp, func(w io.Writer) error {
				if _, err := fmt.Fprintf(w, "识别结果: %s\n", resp.Text); err != nil {
					return err
				}
				return writeLookup(w, resp.Lookup)
			})
		},
	}

	cmd.Flags().StringSliceVar(&frames, "frames", nil, "按顺序识别的图片列表")
	cmd.Flags().StringVar(&origin, "origin", "", "页面来源(如http://192.168.1.10:8080)")
	return cmd
}

func scanFile(ctx context.Context, uc *appbook.LookupBookUseCase, path string) (*appbook.ScanResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开图片失败: %w", err)
	}
	defer f.Close()
	return uc.ByImage(ctx, f)
}
