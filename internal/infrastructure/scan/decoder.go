// Package scan 条形码/二维码识别
//
// 两种方式:
//   - 静态图片:解码一次,成功返回文本
//   - 实时扫码:从图像源逐帧解码,忽略单帧失败,第一次成功后停止图像源
package scan

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// 支持的码制(配置文件中的名称)
var formats = map[string]struct {
	format    gozxing.BarcodeFormat
	newReader func() gozxing.Reader
}{
	"ean13":   {gozxing.BarcodeFormat_EAN_13, func() gozxing.Reader { return oned.NewEAN13Reader() }},
	"ean8":    {gozxing.BarcodeFormat_EAN_8, func() gozxing.Reader { return oned.NewEAN8Reader() }},
	"upca":    {gozxing.BarcodeFormat_UPC_A, func() gozxing.Reader { return oned.NewUPCAReader() }},
	"code128": {gozxing.BarcodeFormat_CODE_128, func() gozxing.Reader { return oned.NewCode128Reader() }},
	"qrcode":  {gozxing.BarcodeFormat_QR_CODE, func() gozxing.Reader { return qrcode.NewQRCodeReader() }},
}

// DefaultFormats 默认识别的码制(ISBN是EAN-13)
var DefaultFormats = []string{"ean13", "ean8", "upca", "code128", "qrcode"}

// Decoder 图片解码器
// gozxing的Reader带内部状态,Decoder每次解码都新建Reader,可以并发使用
type Decoder struct {
	names     []string
	tryHarder bool
}

// NewDecoder 按码制名称创建解码器,names为空时使用DefaultFormats
func NewDecoder(names []string, tryHarder bool) (*Decoder, error) {
	if len(names) == 0 {
		names = DefaultFormats
	}
	for _, name := range names {
		if _, ok := formats[name]; !ok {
			return nil, fmt.Errorf("不支持的码制: %s", name)
		}
	}
	return &Decoder{names: names, tryHarder: tryHarder}, nil
}

// DecodeReader 读取并解码图片(PNG/JPEG/GIF)
func (d *Decoder) DecodeReader(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", ErrDecodeFailed.WithCause(fmt.Errorf("无法读取图片: %w", err))
	}
	return d.Decode(img)
}

// DecodeBytes 解码图片数据
func (d *Decoder) DecodeBytes(data []byte) (string, error) {
	return d.DecodeReader(bytes.NewReader(data))
}

// Decode 依次尝试每种码制
// 任一码制成功即返回;都失败时,若有码制定位到了条形码但校验/格式错误返回ErrDecodeFailed,
// 否则返回ErrNoBarcodeFound
func (d *Decoder) Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", ErrDecodeFailed.WithCause(err)
	}

	var located error
	for _, name := range d.names {
		f := formats[name]
		hints := map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_POSSIBLE_FORMATS: []gozxing.BarcodeFormat{f.format},
		}
		if d.tryHarder {
			hints[gozxing.DecodeHintType_TRY_HARDER] = true
		}

		result, err := f.newReader().Decode(bmp, hints)
		if err == nil {
			return result.GetText(), nil
		}
		if located == nil && isLocatedButInvalid(err) {
			located = err
		}
	}

	if located != nil {
		return "", ErrDecodeFailed.WithCause(located)
	}
	return "", ErrNoBarcodeFound
}

// isLocatedButInvalid 找到了条形码但内容无效
func isLocatedButInvalid(err error) bool {
	var checksum gozxing.ChecksumException
	var format gozxing.FormatException
	return errors.As(err, &checksum) || errors.As(err, &format)
}
