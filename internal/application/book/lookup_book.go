package book

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/xiebiao/bookshelf/internal/infrastructure/enrich"
	"github.com/xiebiao/bookshelf/internal/infrastructure/scan"
	"github.com/xiebiao/bookshelf/pkg/metrics"
)

// LookupBookUseCase 按ISBN或条形码图片查询图书信息,用于填充表单
// 设计说明:
// 1. 扫码成功后把识别出的文本当作ISBN继续联网查询
// 2. 查询结果只用于填充表单,不写入目录
type LookupBookUseCase struct {
	lookuper enrich.Lookuper
	decoder  *scan.Decoder
	live     *scan.LiveScanner
	logger   *zap.Logger
}

// NewLookupBookUseCase 创建查询用例
func NewLookupBookUseCase(lookuper enrich.Lookuper, decoder *scan.Decoder, live *scan.LiveScanner, logger *zap.Logger) *LookupBookUseCase {
	return &LookupBookUseCase{lookuper: lookuper, decoder: decoder, live: live, logger: logger}
}

// ScanResponse 扫码结果
type ScanResponse struct {
	Text   string        `json:"text"`   // 识别出的原始文本
	Lookup enrich.Result `json:"lookup"` // 联网查询结果
}

// ByISBN 按ISBN查询
func (uc *LookupBookUseCase) ByISBN(ctx context.Context, isbn string) (enrich.Result, error) {
	return uc.lookuper.Lookup(ctx, isbn)
}

// ByImage 识别图片中的条形码并查询
func (uc *LookupBookUseCase) ByImage(ctx context.Context, r io.Reader) (*ScanResponse, error) {
	text, err := uc.decoder.DecodeReader(r)
	recordScan("image", err)
	if err != nil {
		return nil, err
	}
	return uc.enrichScanned(ctx, text)
}

// Live 从图像源实时扫码并查询
func (uc *LookupBookUseCase) Live(ctx context.Context, src scan.FrameSource) (*ScanResponse, error) {
	text, err := uc.live.Scan(ctx, src)
	recordScan("live", err)
	if err != nil {
		return nil, err
	}
	return uc.enrichScanned(ctx, text)
}

// enrichScanned 扫码已成功,查询失败时仍返回识别出的文本
func (uc *LookupBookUseCase) enrichScanned(ctx context.Context, text string) (*ScanResponse, error) {
	res, err := uc.lookuper.Lookup(ctx, text)
	if err != nil {
		uc.logger.Warn("扫码成功但查询失败", zap.String("text", text), zap.Error(err))
		return &ScanResponse{Text: text, Lookup: res}, err
	}
	return &ScanResponse{Text: text, Lookup: res}, nil
}

func recordScan(mode string, err error) {
	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, scan.ErrNoBarcodeFound),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		result = "no_barcode"
	case errors.Is(err, scan.ErrCameraUnavailable):
		result = "camera_unavailable"
	default:
		result = "decode_failed"
	}
	metrics.IncCounterVec(metrics.ScansTotal, map[string]string{"mode": mode, "result": result})
}
