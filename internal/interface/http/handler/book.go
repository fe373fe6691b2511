package handler

import (
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	"github.com/xiebiao/bookshelf/internal/interface/http/dto"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/response"
)

// maxImportSize 导入文件大小上限
const maxImportSize = 8 << 20

// BookHandler 图书HTTP处理器
type BookHandler struct {
	listUseCase     *appbook.ListBooksUseCase
	saveUseCase     *appbook.SaveBookUseCase
	transferUseCase *appbook.TransferUseCase
}

// NewBookHandler 创建图书处理器
func NewBookHandler(
	listUseCase *appbook.ListBooksUseCase,
	saveUseCase *appbook.SaveBookUseCase,
	transferUseCase *appbook.TransferUseCase,
) *BookHandler {
	return &BookHandler{
		listUseCase:     listUseCase,
		saveUseCase:     saveUseCase,
		transferUseCase: transferUseCase,
	}
}

// List 图书列表
// @Summary      图书列表
// @Description  按关键词(书名、作者、ISBN)和分类筛选,按最新、书名或分类排序;同时返回分类列表和统计
// @Tags         图书
// @Produce      json
// @Security     BearerAuth
// @Param        q        query string false "关键词"
// @Param        category query string false "分类,all表示全部"
// @Param        sort     query string false "newest | title | category"
// @Success      200 {object} response.Response{data=appbook.ListBooksResponse}
// @Router       /api/books [get]
func (h *BookHandler) List(c *gin.Context) {
	var q dto.ListBooksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	response.Success(c, h.listUseCase.Execute(appbook.ListBooksRequest{
		Search:   q.Q,
		Category: q.Category,
		Sort:     q.Sort,
	}))
}

// Get 图书详情
// @Summary      图书详情
// @Tags         图书
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "图书ID"
// @Success      200 {object} response.Response{data=book.Book}
// @Router       /api/books/{id} [get]
func (h *BookHandler) Get(c *gin.Context) {
	b, err := h.listUseCase.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, b)
}

// Categories 当前出现过的分类
// @Summary      分类列表
// @Tags         图书
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=[]string}
// @Router       /api/books/categories [get]
func (h *BookHandler) Categories(c *gin.Context) {
	response.Success(c, h.listUseCase.Categories())
}

// Stats 藏书统计
// @Summary      藏书统计
// @Tags         图书
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=book.Stats}
// @Router       /api/books/stats [get]
func (h *BookHandler) Stats(c *gin.Context) {
	response.Success(c, h.listUseCase.Stats())
}

// Create 新增图书
// @Summary      新增图书
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.BookRequest true "图书信息"
// @Success      200 {object} response.Response{data=book.Book}
// @Failure      403 {object} response.Response "需要管理员权限"
// @Router       /api/books [post]
func (h *BookHandler) Create(c *gin.Context) {
	h.save(c, "")
}

// Update 编辑图书
// @Summary      编辑图书
// @Description  借阅状态不受编辑影响
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string          true "图书ID"
// @Param        request body dto.BookRequest true "图书信息"
// @Success      200 {object} response.Response{data=book.Book}
// @Router       /api/books/{id} [put]
func (h *BookHandler) Update(c *gin.Context) {
	h.save(c, c.Param("id"))
}

func (h *BookHandler) save(c *gin.Context, id string) {
	var req dto.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	b, err := h.saveUseCase.Execute(c.Request.Context(), appbook.SaveBookRequest{
		ID:       id,
		Title:    req.Title,
		Author:   req.Author,
		ISBN:     req.ISBN,
		Category: req.Category,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, b)
}

// Delete 删除图书,ID不存在时也返回成功
// @Summary      删除图书
// @Tags         图书
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "图书ID"
// @Success      200 {object} response.Response
// @Router       /api/books/{id} [delete]
func (h *BookHandler) Delete(c *gin.Context) {
	if err := h.saveUseCase.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Export 导出全部图书为JSON文件
// @Summary      导出备份
// @Tags         图书
// @Produce      application/json
// @Security     BearerAuth
// @Success      200 {file} file "图书备份_YYYY-MM-DD.json"
// @Router       /api/books/export [get]
func (h *BookHandler) Export(c *gin.Context) {
	name, data, err := h.transferUseCase.Export()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(name))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// Import 导入备份,整体替换当前目录
// 支持multipart上传(字段名file)或直接以请求体发送JSON数组
// @Summary      导入备份
// @Tags         图书
// @Accept       json
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file false "备份文件"
// @Success      200 {object} response.Response{data=dto.ImportResponse}
// @Failure      200 {object} response.Response "导入失败：无效的文件格式"
// @Router       /api/books/import [post]
func (h *BookHandler) Import(c *gin.Context) {
	data, err := readImport(c)
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "读取导入文件失败: "+err.Error())
		return
	}

	n, err := h.transferUseCase.Import(c.Request.Context(), data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ImportResponse{Count: n})
}

func readImport(c *gin.Context) ([]byte, error) {
	if c.ContentType() == "multipart/form-data" {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, err
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxImportSize))
	}
	return io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize))
}
