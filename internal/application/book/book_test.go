package book

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/infrastructure/enrich"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/bookshelf/internal/infrastructure/scan"
)

func newCatalog(t *testing.T) *book.Catalog {
	t.Helper()
	c := book.NewCatalog(memory.NewStore())
	require.NoError(t, c.Load(context.Background()))
	return c
}

func seed(t *testing.T, uc *SaveBookUseCase, reqs ...SaveBookRequest) []book.Book {
	t.Helper()
	var out []book.Book
	for _, r := range reqs {
		b, err := uc.Execute(context.Background(), r)
		require.NoError(t, err)
		out = append(out, b)
	}
	return out
}

func TestSaveAndList(t *testing.T) {
	ctx := context.Background()
	catalog := newCatalog(t)
	save := NewSaveBookUseCase(catalog)
	list := NewListBooksUseCase(catalog)

	books := seed(t, save,
		SaveBookRequest{Title: " 三体 ", Author: "刘慈欣", ISBN: "9787536692930", Category: "文学"},
		SaveBookRequest{Title: "Go语言圣经", Author: "Alan Donovan", ISBN: "9787111558422", Category: "编程"},
	)
	assert.Equal(t, "三体", books[0].Title, "表单字段去除首尾空格")

	t.Run("编辑覆盖四个字段", func(t *testing.T) {
		updated, err := save.Execute(ctx, SaveBookRequest{
			ID: books[1].ID, Title: "The Go Programming Language", Author: "Alan Donovan", ISBN: "9787111558422", Category: "编程",
		})
		require.NoError(t, err)
		assert.Equal(t, books[1].ID, updated.ID)
		assert.Equal(t, "The Go Programming Language", updated.Title)
	})

	t.Run("ISBN重复", func(t *testing.T) {
		_, err := save.Execute(ctx, SaveBookRequest{Title: "x", Author: "y", ISBN: "9787536692930", Category: "z"})
		assert.ErrorIs(t, err, book.ErrISBNDuplicate)
	})

	t.Run("筛选与统计", func(t *testing.T) {
		resp := list.Execute(ListBooksRequest{Search: "go", Sort: "title"})
		require.Len(t, resp.List, 1)
		assert.Equal(t, books[1].ID, resp.List[0].ID)
		assert.Equal(t, 1, resp.Total)
		assert.Len(t, resp.Categories, 2, "分类列表基于完整目录")
		assert.Equal(t, 2, resp.Stats.Total)
	})

	t.Run("删除", func(t *testing.T) {
		require.NoError(t, save.Delete(ctx, books[0].ID))
		require.NoError(t, save.Delete(ctx, books[0].ID), "重复删除不报错")
		_, err := list.Get(books[0].ID)
		assert.ErrorIs(t, err, book.ErrBookNotFound)
		assert.Equal(t, 1, list.Stats().Total)
	})
}

func TestBorrowReturn(t *testing.T) {
	ctx := context.Background()
	catalog := newCatalog(t)
	b := seed(t, NewSaveBookUseCase(catalog), SaveBookRequest{Title: "三体", Author: "刘慈欣", ISBN: "9787536692930", Category: "文学"})[0]
	uc := NewBorrowBookUseCase(catalog)

	_, err := uc.Borrow(ctx, b.ID, "   ")
	assert.ErrorIs(t, err, ErrBorrowerRequired)

	borrowed, err := uc.Borrow(ctx, b.ID, "张三")
	require.NoError(t, err)
	assert.Equal(t, "张三", borrowed.Borrower())
	assert.Equal(t, 1, catalog.Metrics().Borrowed)

	returned, previous, err := uc.Return(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, returned.IsBorrowed())
	assert.Equal(t, "张三", previous)

	_, _, err = uc.Return(ctx, "missing")
	assert.ErrorIs(t, err, book.ErrBookNotFound)
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	source := newCatalog(t)
	seed(t, NewSaveBookUseCase(source),
		SaveBookRequest{Title: "三体", Author: "刘慈欣", ISBN: "9787536692930", Category: "文学"},
		SaveBookRequest{Title: "Go语言圣经", Author: "Alan Donovan", ISBN: "9787111558422", Category: "编程"},
	)

	export := NewTransferUseCase(source)
	export.now = func() time.Time { return time.Date(2026, 10, 15, 23, 59, 0, 0, time.Local) }
	name, data, err := export.Export()
	require.NoError(t, err)
	assert.Equal(t, "图书备份_2026-10-15.json", name)

	target := newCatalog(t)
	n, err := NewTransferUseCase(target).Import(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, source.Books(), target.Books())

	_, err = NewTransferUseCase(target).Import(ctx, []byte(`{"books": []}`))
	assert.ErrorIs(t, err, book.ErrImportFormat)
	assert.Len(t, target.Books(), 2, "导入失败不改变目录")
}

type fakeLookuper struct {
	calls []string
	res   enrich.Result
	err   error
}

func (f *fakeLookuper) Lookup(_ context.Context, raw string) (enrich.Result, error) {
	f.calls = append(f.calls, raw)
	return f.res, f.err
}

func qrPNG(t *testing.T, text string) []byte {
	t.Helper()
	img, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, 250, 250, nil)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newLookupUseCase(t *testing.T, l enrich.Lookuper) *LookupBookUseCase {
	t.Helper()
	decoder, err := scan.NewDecoder(nil, true)
	require.NoError(t, err)
	return NewLookupBookUseCase(l, decoder, scan.NewLiveScanner(decoder), zap.NewNop())
}

func TestLookup_ByImage(t *testing.T) {
	ctx := context.Background()
	lookuper := &fakeLookuper{res: enrich.Result{Found: true, ISBN: "9787536692930", Title: "三体"}}
	uc := newLookupUseCase(t, lookuper)

	resp, err := uc.ByImage(ctx, bytes.NewReader(qrPNG(t, "9787536692930")))
	require.NoError(t, err)
	assert.Equal(t, "9787536692930", resp.Text)
	assert.Equal(t, "三体", resp.Lookup.Title)
	assert.Equal(t, []string{"9787536692930"}, lookuper.calls, "识别结果继续联网查询")

	t.Run("识别失败不查询", func(t *testing.T) {
		lookuper.calls = nil
		_, err := uc.ByImage(ctx, bytes.NewReader([]byte("not an image")))
		assert.ErrorIs(t, err, scan.ErrDecodeFailed)
		assert.Empty(t, lookuper.calls)
	})

	t.Run("查询失败仍返回识别文本", func(t *testing.T) {
		lookuper.err = enrich.ErrLookupFailed.WithCause(errors.New("status 503"))
		resp, err := uc.ByImage(ctx, bytes.NewReader(qrPNG(t, "9787111558422")))
		assert.ErrorIs(t, err, enrich.ErrLookupFailed)
		require.NotNil(t, resp)
		assert.Equal(t, "9787111558422", resp.Text)
	})
}

func TestLookup_ByISBN(t *testing.T) {
	lookuper := &fakeLookuper{res: enrich.Result{ISBN: "7111"}}
	res, err := newLookupUseCase(t, lookuper).ByISBN(context.Background(), "7-111")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, []string{"7-111"}, lookuper.calls)
}
