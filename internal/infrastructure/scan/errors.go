package scan

import (
	"net/url"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

var (
	// ErrNoBarcodeFound 图片中没有条形码
	ErrNoBarcodeFound = apperrors.New(apperrors.ErrCodeNoBarcodeFound, "图片中未发现条形码，请确保条形码清晰可见")

	// ErrDecodeFailed 找到了条形码但无法解码(校验失败、格式错误、图片无法读取)
	ErrDecodeFailed = apperrors.New(apperrors.ErrCodeDecodeFailed, "条形码无法解码，请尝试更清晰的图片")

	// ErrCameraUnavailable 摄像头无法启动,具体原因见CameraUnavailableError
	ErrCameraUnavailable = apperrors.New(apperrors.ErrCodeCameraUnavailable, "无法启动摄像头。")
)

// CameraUnavailableError 实时扫码的图像源启动失败
// Hint非空时说明是安全限制导致的(非HTTPS且非本机访问)
type CameraUnavailableError struct {
	Hint string
	Err  error
}

func (e *CameraUnavailableError) Error() string {
	msg := ErrCameraUnavailable.Message
	if e.Hint != "" {
		msg = e.Hint
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap 使errors.Is(err, ErrCameraUnavailable)成立
func (e *CameraUnavailableError) Unwrap() error {
	return ErrCameraUnavailable.WithCause(e.Err)
}

const insecureContextHint = "由于安全限制，非 HTTPS 环境无法在手机上调用摄像头。请使用电脑访问或开启 HTTPS。"

// SecureContextHint 访问地址不是HTTPS且不是本机时返回提示,否则返回空串
func SecureContextHint(origin string) string {
	if origin == "" {
		return ""
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return insecureContextHint
	}
	if u.Scheme == "https" {
		return ""
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1":
		return ""
	}
	return insecureContextHint
}
