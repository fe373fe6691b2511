package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	"github.com/xiebiao/bookshelf/internal/interface/http/dto"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/response"
)

// LookupHandler ISBN查询与条形码识别HTTP处理器
type LookupHandler struct {
	lookupUseCase *appbook.LookupBookUseCase
	maxUploadSize int64
}

// NewLookupHandler 创建查询处理器,maxUploadSize<=0时不限制上传图片大小
func NewLookupHandler(lookupUseCase *appbook.LookupBookUseCase, maxUploadSize int64) *LookupHandler {
	return &LookupHandler{lookupUseCase: lookupUseCase, maxUploadSize: maxUploadSize}
}

// Lookup 按ISBN联网查询图书信息
// found为false表示两个查询源都没有该ISBN(或ISBN不足10位),前端提示手动填写
// @Summary      ISBN查询
// @Tags         图书
// @Produce      json
// @Security     BearerAuth
// @Param        isbn path string true "ISBN"
// @Success      200 {object} response.Response{data=enrich.Result}
// @Failure      200 {object} response.Response "联网查询失败"
// @Router       /api/books/lookup/{isbn} [get]
func (h *LookupHandler) Lookup(c *gin.Context) {
	res, err := h.lookupUseCase.ByISBN(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Scan 上传条形码图片,识别后按ISBN查询
// @Summary      扫码查询
// @Tags         图书
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        image formData file true "条形码图片(PNG/JPEG/GIF)"
// @Success      200 {object} response.Response{data=dto.ScanResponse}
// @Failure      200 {object} response.Response "未发现条形码或无法解码"
// @Router       /api/books/scan [post]
func (h *LookupHandler) Scan(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		bindError(c, err)
		return
	}
	if h.maxUploadSize > 0 && fh.Size > h.maxUploadSize {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams,
			fmt.Sprintf("图片不能超过%dKB", h.maxUploadSize>>10))
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "读取上传图片失败"))
		return
	}
	defer f.Close()

	res, err := h.lookupUseCase.ByImage(c.Request.Context(), f)
	if res == nil {
		response.Error(c, err)
		return
	}

	out := dto.ScanResponse{Text: res.Text, Lookup: res.Lookup}
	if err != nil {
		out.LookupError = apperrors.GetAppError(err).Message
	}
	response.Success(c, out)
}
