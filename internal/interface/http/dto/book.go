package dto

import (
	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/infrastructure/enrich"
)

// BookRequest 新建或编辑图书
// 四个字段都是必填项,首尾空白在应用层去除
type BookRequest struct {
	Title    string `json:"title" binding:"required,max=200" example:"三体"`
	Author   string `json:"author" binding:"required,max=100" example:"刘慈欣"`
	ISBN     string `json:"isbn" binding:"required,max=32" example:"9787536692930"`
	Category string `json:"category" binding:"required,max=50" example:"文学"`
}

// ListBooksQuery 图书列表查询参数
type ListBooksQuery struct {
	Q        string `form:"q"`
	Category string `form:"category"`
	Sort     string `form:"sort" example:"newest"` // newest | title | category
}

// BorrowRequest 借阅请求
// Borrower为空时使用当前登录用户的姓名
type BorrowRequest struct {
	Borrower string `json:"borrower" binding:"max=50" example:"张三"`
}

// ReturnResponse 归还响应
type ReturnResponse struct {
	Book             book.Book `json:"book"`
	PreviousBorrower string    `json:"previous_borrower"`
}

// ImportResponse 导入响应
type ImportResponse struct {
	Count int `json:"count"`
}

// ScanResponse 扫码响应
// 识别成功但联网查询失败时LookupError非空,Text仍可用于填写ISBN
type ScanResponse struct {
	Text        string        `json:"text"`
	Lookup      enrich.Result `json:"lookup"`
	LookupError string        `json:"lookup_error,omitempty"`
}
