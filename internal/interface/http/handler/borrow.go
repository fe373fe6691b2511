package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	"github.com/xiebiao/bookshelf/internal/interface/http/dto"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/response"
)

// BorrowHandler 借阅归还HTTP处理器
type BorrowHandler struct {
	borrowUseCase *appbook.BorrowBookUseCase
}

// NewBorrowHandler 创建借阅处理器
func NewBorrowHandler(borrowUseCase *appbook.BorrowBookUseCase) *BorrowHandler {
	return &BorrowHandler{borrowUseCase: borrowUseCase}
}

// Borrow 借阅图书
// 学生只能以自己的姓名借阅;管理员可以代他人登记借阅人
// @Summary      借阅图书
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string            true  "图书ID"
// @Param        request body dto.BorrowRequest false "借阅人"
// @Success      200 {object} response.Response{data=book.Book}
// @Router       /api/borrow/{id} [post]
func (h *BorrowHandler) Borrow(c *gin.Context) {
	var req dto.BorrowRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	borrower := strings.TrimSpace(req.Borrower)
	caller := middleware.GetName(c)
	if borrower == "" {
		borrower = caller
	} else if borrower != caller && !middleware.IsAdmin(c) {
		response.ErrorWithCode(c, apperrors.ErrCodeForbidden, "只能以本人姓名借阅")
		return
	}

	b, err := h.borrowUseCase.Borrow(c.Request.Context(), c.Param("id"), borrower)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, b)
}

// Return 归还图书
// @Summary      归还图书
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "图书ID"
// @Success      200 {object} response.Response{data=dto.ReturnResponse}
// @Router       /api/borrow/return/{id} [post]
func (h *BorrowHandler) Return(c *gin.Context) {
	b, previous, err := h.borrowUseCase.Return(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ReturnResponse{Book: b, PreviousBorrower: previous})
}

// Records 借阅记录(管理员)
// @Summary      借阅记录
// @Description  当前借出的图书,borrower为空时返回全部
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        borrower query string false "借阅人"
// @Success      200 {object} response.Response{data=[]book.Book}
// @Router       /api/borrow/records [get]
func (h *BorrowHandler) Records(c *gin.Context) {
	response.Success(c, h.borrowUseCase.Records(c.Query("borrower")))
}

// My 我的借阅
// @Summary      我的借阅
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=[]book.Book}
// @Router       /api/borrow/my [get]
func (h *BorrowHandler) My(c *gin.Context) {
	response.Success(c, h.borrowUseCase.Records(middleware.GetName(c)))
}
