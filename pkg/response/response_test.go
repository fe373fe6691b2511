package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(handler gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/books", nil)
	handler(c)

	var resp Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestSuccess(t *testing.T) {
	w, resp := perform(func(c *gin.Context) { Success(c, gin.H{"total": 3}) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, "success", resp.Message)
}

func TestError(t *testing.T) {
	t.Run("业务错误返回200和错误码", func(t *testing.T) {
		notFound := apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")
		w, resp := perform(func(c *gin.Context) { Error(c, notFound) })
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, apperrors.ErrCodeBookNotFound, resp.Code)
		assert.Equal(t, "图书不存在", resp.Message)
	})

	t.Run("认证错误返回401", func(t *testing.T) {
		w, resp := perform(func(c *gin.Context) { Error(c, apperrors.ErrTokenExpired) })
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apperrors.ErrCodeTokenExpired, resp.Code)
	})

	t.Run("无权限返回403", func(t *testing.T) {
		w, _ := perform(func(c *gin.Context) { Error(c, apperrors.ErrForbidden) })
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("普通错误包装为内部错误且不泄露原因", func(t *testing.T) {
		w, resp := perform(func(c *gin.Context) { Error(c, errors.New("dial tcp: refused")) })
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, apperrors.ErrCodeInternal, resp.Code)
		assert.NotContains(t, w.Body.String(), "refused")
	})
}

func TestNewPageData(t *testing.T) {
	page := NewPageData([]int{1, 2}, 41, 2, 20)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, int64(41), page.Total)
}
