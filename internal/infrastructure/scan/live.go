package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

// failedFrameBackoff 读取帧失败后的最短等待时间
const failedFrameBackoff = 10 * time.Millisecond

// FrameSource 实时图像源(摄像头或图片序列)
type FrameSource interface {
	// Start 启动图像源,失败时扫码不会开始
	Start(ctx context.Context) error

	// Next 返回下一帧;没有更多帧时返回io.EOF
	Next(ctx context.Context) (image.Image, error)

	// Stop 停止图像源,可重复调用
	Stop() error
}

// LiveScanner 实时扫码
type LiveScanner struct {
	decoder  *Decoder
	interval time.Duration
	origin   string
	logger   *zap.Logger
}

// LiveOption 实时扫码可选配置
type LiveOption func(*LiveScanner)

// WithFrameInterval 两帧之间的间隔(0表示不等待)
func WithFrameInterval(d time.Duration) LiveOption {
	return func(s *LiveScanner) { s.interval = d }
}

// WithOrigin 页面访问地址,用于判断摄像头启动失败是否由安全限制导致
func WithOrigin(origin string) LiveOption {
	return func(s *LiveScanner) { s.origin = origin }
}

// WithLiveLogger 日志
func WithLiveLogger(logger *zap.Logger) LiveOption {
	return func(s *LiveScanner) { s.logger = logger }
}

// NewLiveScanner 创建实时扫码器
func NewLiveScanner(decoder *Decoder, opts ...LiveOption) *LiveScanner {
	s := &LiveScanner{decoder: decoder, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan 启动图像源并逐帧解码,直到第一次成功
// 返回:
//   - 启动失败:*CameraUnavailableError
//   - 图像源耗尽仍未识别:ErrNoBarcodeFound
//   - ctx取消或超时:ctx.Err()
func (s *LiveScanner) Scan(ctx context.Context, src FrameSource) (string, error) {
	if err := src.Start(ctx); err != nil {
		return "", &CameraUnavailableError{Hint: SecureContextHint(s.origin), Err: err}
	}
	defer func() {
		if err := src.Stop(); err != nil {
			s.logger.Warn("停止图像源失败", zap.Error(err))
		}
	}()

	var wait time.Duration
	for frame := 0; ; frame++ {
		if wait > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		img, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return "", ErrNoBarcodeFound
		}
		if err != nil {
			// 单帧读取失败不终止扫码
			// 图像源持续出错时至少间隔failedFrameBackoff再读
			s.logger.Debug("读取帧失败", zap.Int("frame", frame), zap.Error(err))
			wait = max(s.interval, failedFrameBackoff)
			continue
		}

		text, err := s.decoder.Decode(img)
		if err == nil {
			s.logger.Info("扫码成功", zap.Int("frame", frame), zap.String("text", text))
			return text, nil
		}
		wait = s.interval
	}
}

// ImageSequence 由一组图片文件组成的图像源(命令行模拟摄像头)
type ImageSequence struct {
	paths []string
	next  int
}

// NewImageSequence 创建图片序列
func NewImageSequence(paths []string) *ImageSequence {
	return &ImageSequence{paths: paths}
}

// Start 检查所有文件都存在
func (s *ImageSequence) Start(context.Context) error {
	if len(s.paths) == 0 {
		return errors.New("没有可用的图像帧")
	}
	for _, p := range s.paths {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("无法打开图像帧: %w", err)
		}
	}
	s.next = 0
	return nil
}

func (s *ImageSequence) Next(context.Context) (image.Image, error) {
	if s.next >= len(s.paths) {
		return nil, io.EOF
	}
	path := s.paths[s.next]
	s.next++

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

func (s *ImageSequence) Stop() error {
	s.next = len(s.paths)
	return nil
}
