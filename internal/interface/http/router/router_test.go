package router

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	appuser "github.com/xiebiao/bookshelf/internal/application/user"
	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/user"
	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/internal/infrastructure/enrich"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/bookshelf/internal/infrastructure/scan"
	"github.com/xiebiao/bookshelf/internal/interface/http/handler"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testISBN = "9787536692930"

type fakeLookuper struct{}

func (fakeLookuper) Lookup(_ context.Context, raw string) (enrich.Result, error) {
	if raw == testISBN {
		return enrich.Result{Found: true, ISBN: raw, Title: "三体", Author: "刘慈欣", Category: "文学", Source: "openlibrary"}, nil
	}
	return enrich.Result{ISBN: raw}, nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t       *testing.T
	engine  *gin.Engine
	catalog *book.Catalog
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	catalog := book.NewCatalog(memory.NewStore())
	require.NoError(t, catalog.Load(ctx))

	userRepo := memory.NewUserRepository()
	userService := user.NewService(userRepo, user.WithHashCost(bcrypt.MinCost))
	require.NoError(t, appuser.SeedAdmin(ctx, userService, "admin", "管理员", "admin123", logger))

	jwtManager := jwt.NewManager("test-secret", time.Hour, 24*time.Hour)
	blacklist := memory.NewTokenBlacklist()

	decoder, err := scan.NewDecoder(nil, true)
	require.NoError(t, err)

	h := Handlers{
		Auth: handler.NewAuthHandler(
			appuser.NewLoginUseCase(userService, jwtManager, logger),
			appuser.NewRefreshTokenUseCase(userRepo, jwtManager),
			appuser.NewLogoutUseCase(blacklist),
			appuser.NewChangePasswordUseCase(userService),
			int64(jwtManager.AccessTokenTTL().Seconds()),
		),
		Book: handler.NewBookHandler(
			appbook.NewListBooksUseCase(catalog),
			appbook.NewSaveBookUseCase(catalog),
			appbook.NewTransferUseCase(catalog),
		),
		Borrow: handler.NewBorrowHandler(appbook.NewBorrowBookUseCase(catalog)),
		Lookup: handler.NewLookupHandler(appbook.NewLookupBookUseCase(fakeLookuper{}, decoder, scan.NewLiveScanner(decoder), logger), 1<<20),
		User:   handler.NewUserHandler(appuser.NewManageUsersUseCase(userService, userRepo, catalog, logger)),
	}

	cfg := &config.Config{Server: config.ServerConfig{Mode: "test"}}
	engine := New(cfg, h, middleware.NewAuthMiddleware(jwtManager, blacklist), logger)
	return &testServer{t: t, engine: engine, catalog: catalog}
}

func (s *testServer) do(method, path, token string, body io.Reader, contentType string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func (s *testServer) json(method, path, token string, payload any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(s.t, err)
		body = bytes.NewReader(data)
	}
	return s.do(method, path, token, body, "application/json")
}

func (s *testServer) login(studentID, password string) string {
	s.t.Helper()
	_, env := s.json(http.MethodPost, "/api/auth/login", "", gin.H{"student_id": studentID, "password": password})
	require.Equal(s.t, 0, env.Code, env.Message)

	var data appuser.LoginResponse
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	return data.AccessToken
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v), string(env.Data))
	return v
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(http.MethodGet, "/ping", "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodGet, "/api/books", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.ErrCodeUnauthorized, env.Code)

	w, env = s.do(http.MethodGet, "/api/books", "not-a-token", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.ErrCodeInvalidToken, env.Code)

	w, env = s.json(http.MethodPost, "/api/auth/login", "", gin.H{"student_id": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.ErrCodeInvalidPassword, env.Code)
}

func TestBookLifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	_, env := s.json(http.MethodPost, "/api/books", admin, gin.H{
		"title": " 三体 ", "author": "刘慈欣", "isbn": testISBN, "category": "文学",
	})
	require.Equal(t, 0, env.Code, env.Message)
	created := decode[book.Book](t, env)
	assert.Equal(t, "三体", created.Title, "首尾空白被去除")
	assert.NotEmpty(t, created.ID)

	t.Run("ISBN重复", func(t *testing.T) {
		w, env := s.json(http.MethodPost, "/api/books", admin, gin.H{
			"title": "另一本", "author": "某人", "isbn": testISBN, "category": "文学",
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, apperrors.ErrCodeISBNDuplicate, env.Code)
	})

	t.Run("缺少字段", func(t *testing.T) {
		_, env := s.json(http.MethodPost, "/api/books", admin, gin.H{"title": "只有书名"})
		assert.Equal(t, apperrors.ErrCodeBindError, env.Code)
	})

	_, env = s.json(http.MethodPost, "/api/books", admin, gin.H{
		"title": "Go语言实战", "author": "William Kennedy", "isbn": "9787115428028", "category": "编程",
	})
	require.Equal(t, 0, env.Code, env.Message)
	goBook := decode[book.Book](t, env)

	t.Run("列表筛选", func(t *testing.T) {
		_, env := s.do(http.MethodGet, "/api/books?q=%E4%B8%89%E4%BD%93", admin, nil, "")
		list := decode[appbook.ListBooksResponse](t, env)
		require.Len(t, list.List, 1)
		assert.Equal(t, created.ID, list.List[0].ID)
		assert.Equal(t, 2, list.Stats.Total)
		assert.ElementsMatch(t, []string{"文学", "编程"}, list.Categories)

		_, env = s.do(http.MethodGet, "/api/books?category=%E7%BC%96%E7%A8%8B", admin, nil, "")
		list = decode[appbook.ListBooksResponse](t, env)
		require.Len(t, list.List, 1)
		assert.Equal(t, goBook.ID, list.List[0].ID)
	})

	t.Run("详情", func(t *testing.T) {
		_, env := s.do(http.MethodGet, "/api/books/"+created.ID, admin, nil, "")
		assert.Equal(t, "刘慈欣", decode[book.Book](t, env).Author)

		_, env = s.do(http.MethodGet, "/api/books/nope", admin, nil, "")
		assert.Equal(t, apperrors.ErrCodeBookNotFound, env.Code)
	})

	t.Run("编辑", func(t *testing.T) {
		_, env := s.json(http.MethodPut, "/api/books/"+goBook.ID, admin, gin.H{
			"title": "Go语言实战(第2版)", "author": "William Kennedy", "isbn": "9787115428028", "category": "编程",
		})
		require.Equal(t, 0, env.Code, env.Message)
		assert.Equal(t, "Go语言实战(第2版)", decode[book.Book](t, env).Title)
	})

	t.Run("分类与统计", func(t *testing.T) {
		_, env := s.do(http.MethodGet, "/api/books/categories", admin, nil, "")
		assert.Len(t, decode[[]string](t, env), 2)

		_, env = s.do(http.MethodGet, "/api/books/stats", admin, nil, "")
		stats := decode[book.Stats](t, env)
		assert.Equal(t, 2, stats.Total)
		assert.Equal(t, 2, stats.Authors)
	})

	t.Run("删除", func(t *testing.T) {
		_, env := s.do(http.MethodDelete, "/api/books/"+goBook.ID, admin, nil, "")
		assert.Equal(t, 0, env.Code)
		_, env = s.do(http.MethodDelete, "/api/books/"+goBook.ID, admin, nil, "")
		assert.Equal(t, 0, env.Code, "删除不存在的ID不报错")
		assert.Len(t, s.catalog.Books(), 1)
	})
}

func TestExportImport(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	_, env := s.json(http.MethodPost, "/api/books", admin, gin.H{
		"title": "三体", "author": "刘慈欣", "isbn": testISBN, "category": "文学",
	})
	require.Equal(t, 0, env.Code)

	w, _ := s.do(http.MethodGet, "/api/books/export", admin, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	exported := w.Body.Bytes()
	assert.Contains(t, string(exported), testISBN)

	t.Run("请求体导入", func(t *testing.T) {
		_, env := s.do(http.MethodPost, "/api/books/import", admin,
			strings.NewReader(`[{"id":"1","title":"A","author":"B","isbn":"1234567890","category":"编程"}]`), "application/json")
		require.Equal(t, 0, env.Code, env.Message)
		assert.Equal(t, 1, decode[map[string]int](t, env)["count"])
		assert.Equal(t, "A", s.catalog.Books()[0].Title)
	})

	t.Run("文件上传导入", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "backup.json")
		require.NoError(t, err)
		_, err = fw.Write(exported)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		_, env := s.do(http.MethodPost, "/api/books/import", admin, &buf, mw.FormDataContentType())
		require.Equal(t, 0, env.Code, env.Message)
		assert.Equal(t, testISBN, s.catalog.Books()[0].ISBN)
	})

	t.Run("格式错误不改变目录", func(t *testing.T) {
		_, env := s.do(http.MethodPost, "/api/books/import", admin, strings.NewReader(`{"not":"array"}`), "application/json")
		assert.Equal(t, apperrors.ErrCodeImportFormat, env.Code)
		assert.Len(t, s.catalog.Books(), 1)
	})
}

func TestStudentPermissionsAndBorrowing(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	_, env := s.json(http.MethodPost, "/api/users", admin, gin.H{"student_id": "2024001", "name": "张三"})
	require.Equal(t, 0, env.Code, env.Message)
	zhang := decode[appuser.UserInfo](t, env)
	assert.True(t, zhang.FirstLogin)

	_, env = s.json(http.MethodPost, "/api/books", admin, gin.H{
		"title": "三体", "author": "刘慈欣", "isbn": testISBN, "category": "文学",
	})
	bookID := decode[book.Book](t, env).ID

	student := s.login("2024001", user.DefaultPassword)

	t.Run("学生不能维护图书", func(t *testing.T) {
		w, env := s.json(http.MethodPost, "/api/books", student, gin.H{
			"title": "x", "author": "y", "isbn": "1234567890", "category": "其它",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, apperrors.ErrCodeForbidden, env.Code)

		w, _ = s.do(http.MethodGet, "/api/users", student, nil, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("学生不能代他人借阅", func(t *testing.T) {
		w, _ := s.json(http.MethodPost, "/api/borrow/"+bookID, student, gin.H{"borrower": "李四"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("默认以本人姓名借阅", func(t *testing.T) {
		_, env := s.do(http.MethodPost, "/api/borrow/"+bookID, student, nil, "")
		require.Equal(t, 0, env.Code, env.Message)
		assert.Equal(t, "张三", decode[book.Book](t, env).Borrower())
	})

	t.Run("有未归还图书不能删除账号", func(t *testing.T) {
		_, env := s.do(http.MethodDelete, "/api/users/"+itoa(zhang.ID), admin, nil, "")
		assert.Equal(t, apperrors.ErrCodeUserHasBorrowed, env.Code)
	})

	t.Run("归还", func(t *testing.T) {
		_, env := s.do(http.MethodPost, "/api/borrow/return/"+bookID, student, nil, "")
		require.Equal(t, 0, env.Code, env.Message)
		ret := decode[map[string]json.RawMessage](t, env)
		assert.JSONEq(t, `"张三"`, string(ret["previous_borrower"]))
	})

	t.Run("管理员代借", func(t *testing.T) {
		_, env := s.json(http.MethodPost, "/api/borrow/"+bookID, admin, gin.H{"borrower": "李四"})
		require.Equal(t, 0, env.Code, env.Message)
		assert.Equal(t, "李四", decode[book.Book](t, env).Borrower())
	})

	t.Run("删除账号", func(t *testing.T) {
		_, env := s.do(http.MethodDelete, "/api/users/"+itoa(zhang.ID), admin, nil, "")
		assert.Equal(t, 0, env.Code, env.Message)

		_, env = s.do(http.MethodDelete, "/api/users/abc", admin, nil, "")
		assert.Equal(t, apperrors.ErrCodeInvalidParams, env.Code)
	})

	t.Run("账号列表", func(t *testing.T) {
		_, env := s.do(http.MethodGet, "/api/users?page=1&page_size=10", admin, nil, "")
		require.Equal(t, 0, env.Code, env.Message)
		page := decode[map[string]json.RawMessage](t, env)
		assert.JSONEq(t, `1`, string(page["total"]), "只剩管理员")
	})
}

func TestBorrowRecords(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	_, env := s.json(http.MethodPost, "/api/users", admin, gin.H{"student_id": "2024001", "name": "张三"})
	require.Equal(t, 0, env.Code, env.Message)

	var ids []string
	for _, isbn := range []string{"1111111111", "2222222222", "3333333333"} {
		_, env := s.json(http.MethodPost, "/api/books", admin, gin.H{
			"title": "书" + isbn, "author": "作者", "isbn": isbn, "category": "文学",
		})
		require.Equal(t, 0, env.Code, env.Message)
		ids = append(ids, decode[book.Book](t, env).ID)
	}

	student := s.login("2024001", user.DefaultPassword)
	_, env = s.do(http.MethodPost, "/api/borrow/"+ids[0], student, nil, "")
	require.Equal(t, 0, env.Code, env.Message)
	_, env = s.json(http.MethodPost, "/api/borrow/"+ids[1], admin, gin.H{"borrower": "李四"})
	require.Equal(t, 0, env.Code, env.Message)

	borrowedIDs := func(env envelope) []string {
		out := []string{}
		for _, b := range decode[[]book.Book](t, env) {
			require.True(t, b.IsBorrowed())
			out = append(out, b.ID)
		}
		return out
	}

	t.Run("我的借阅", func(t *testing.T) {
		_, env := s.do(http.MethodGet, "/api/borrow/my", student, nil, "")
		require.Equal(t, 0, env.Code, env.Message)
		assert.Equal(t, []string{ids[0]}, borrowedIDs(env))

		_, env = s.do(http.MethodGet, "/api/borrow/my", admin, nil, "")
		require.Equal(t, 0, env.Code, env.Message)
		assert.JSONEq(t, `[]`, string(env.Data), "没有借阅时返回空数组")
	})

	t.Run("管理员查看全部借阅记录", func(t *testing.T) {
		_, env := s.do(http.MethodGet, "/api/borrow/records", admin, nil, "")
		require.Equal(t, 0, env.Code, env.Message)
		assert.Equal(t, []string{ids[1], ids[0]}, borrowedIDs(env), "未借出的图书不在记录中,最新的在前")
	})

	t.Run("按借阅人筛选", func(t *testing.T) {
		_, env := s.do(http.MethodGet, "/api/borrow/records?borrower=%E6%9D%8E%E5%9B%9B", admin, nil, "")
		require.Equal(t, 0, env.Code, env.Message)
		assert.Equal(t, []string{ids[1]}, borrowedIDs(env))
	})

	t.Run("学生不能查看全部记录", func(t *testing.T) {
		w, env := s.do(http.MethodGet, "/api/borrow/records", student, nil, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, apperrors.ErrCodeForbidden, env.Code)
	})

	t.Run("未登录", func(t *testing.T) {
		w, _ := s.do(http.MethodGet, "/api/borrow/my", "", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestLogoutAndPassword(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin", "admin123")

	_, env := s.json(http.MethodPost, "/api/auth/change-password", admin, gin.H{
		"old_password": "admin123", "new_password": "newpass123",
	})
	require.Equal(t, 0, env.Code, env.Message)
	token := s.login("admin", "newpass123")

	_, env = s.do(http.MethodPost, "/api/auth/logout", token, nil, "")
	require.Equal(t, 0, env.Code)

	w, env := s.do(http.MethodGet, "/api/books", token, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code, "登出后Token失效")
	assert.Equal(t, apperrors.ErrCodeTokenExpired, env.Code)
}

func TestRefresh(t *testing.T) {
	s := newTestServer(t)
	_, env := s.json(http.MethodPost, "/api/auth/login", "", gin.H{"student_id": "admin", "password": "admin123"})
	login := decode[appuser.LoginResponse](t, env)

	_, env = s.json(http.MethodPost, "/api/auth/refresh", "", gin.H{"refresh_token": login.RefreshToken})
	require.Equal(t, 0, env.Code, env.Message)
	refreshed := decode[map[string]any](t, env)
	access, _ := refreshed["access_token"].(string)
	require.NotEmpty(t, access)

	w, _ := s.do(http.MethodGet, "/api/books", access, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLookupAndScan(t *testing.T) {
	s := newTestServer(t)
	token := s.login("admin", "admin123")

	_, env := s.do(http.MethodGet, "/api/books/lookup/"+testISBN, token, nil, "")
	require.Equal(t, 0, env.Code, env.Message)
	res := decode[enrich.Result](t, env)
	assert.True(t, res.Found)
	assert.Equal(t, "三体", res.Title)

	img, err := qrcode.NewQRCodeWriter().Encode(testISBN, gozxing.BarcodeFormat_QR_CODE, 250, 250, nil)
	require.NoError(t, err)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "code.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(fw, img))
	require.NoError(t, mw.Close())

	_, env = s.do(http.MethodPost, "/api/books/scan", token, &buf, mw.FormDataContentType())
	require.Equal(t, 0, env.Code, env.Message)
	scanned := decode[map[string]json.RawMessage](t, env)
	assert.JSONEq(t, `"`+testISBN+`"`, string(scanned["text"]))
	assert.Contains(t, string(scanned["lookup"]), "刘慈欣")

	t.Run("缺少图片", func(t *testing.T) {
		_, env := s.do(http.MethodPost, "/api/books/scan", token, nil, "")
		assert.Equal(t, apperrors.ErrCodeBindError, env.Code)
	})
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
