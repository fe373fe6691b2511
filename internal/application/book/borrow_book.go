package book

import (
	"context"
	"strings"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/metrics"
)

// ErrBorrowerRequired 借阅人为空
var ErrBorrowerRequired = apperrors.New(apperrors.ErrCodeInvalidParams, "请填写借阅人姓名")

// BorrowBookUseCase 借阅与归还
type BorrowBookUseCase struct {
	catalog *book.Catalog
}

// NewBorrowBookUseCase 创建借阅用例
func NewBorrowBookUseCase(catalog *book.Catalog) *BorrowBookUseCase {
	return &BorrowBookUseCase{catalog: catalog}
}

// Borrow 借出图书,已借出的图书会改为新的借阅人
func (uc *BorrowBookUseCase) Borrow(ctx context.Context, id, borrower string) (book.Book, error) {
	borrower = strings.TrimSpace(borrower)
	if borrower == "" {
		return book.Book{}, ErrBorrowerRequired
	}

	b, err := uc.catalog.Borrow(ctx, id, borrower)
	metrics.RecordMutation("borrow", err)
	return b, err
}

// Return 归还图书,返回归还前的借阅人
func (uc *BorrowBookUseCase) Return(ctx context.Context, id string) (book.Book, string, error) {
	before, err := uc.catalog.Get(id)
	if err != nil {
		return book.Book{}, "", err
	}

	b, err := uc.catalog.Return(ctx, id)
	metrics.RecordMutation("return", err)
	return b, before.Borrower(), err
}

// Records 当前借出的图书(最新的在前)
// borrower非空时只返回该借阅人名下的图书
func (uc *BorrowBookUseCase) Records(borrower string) []book.Book {
	borrower = strings.TrimSpace(borrower)
	records := []book.Book{}
	for _, b := range book.Project(uc.catalog.Books(), book.Query{Sort: book.SortNewest}) {
		if !b.IsBorrowed() {
			continue
		}
		if borrower != "" && b.Borrower() != borrower {
			continue
		}
		records = append(records, b)
	}
	return records
}
