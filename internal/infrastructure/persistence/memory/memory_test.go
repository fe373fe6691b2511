package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshelf/internal/domain/user"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, found, err := s.Get(ctx, "enterprise_books")
	require.NoError(t, err)
	assert.False(t, found)

	value := []byte(`[{"id":"1"}]`)
	require.NoError(t, s.Set(ctx, "enterprise_books", value))
	value[0] = 'x'

	got, found, err := s.Get(ctx, "enterprise_books")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"1"}]`, string(got), "写入后修改原切片不影响存储")
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	for i := 1; i <= 25; i++ {
		u := user.NewStudent(fmt.Sprintf("2024%03d", i), fmt.Sprintf("学生%d", i), "hash")
		require.NoError(t, repo.Create(ctx, u))
		assert.Equal(t, uint(i), u.ID)
	}

	t.Run("学号重复", func(t *testing.T) {
		err := repo.Create(ctx, user.NewStudent("2024001", "重复", "hash"))
		assert.ErrorIs(t, err, apperrors.ErrStudentIDDuplicate)
	})

	t.Run("按学号查找", func(t *testing.T) {
		u, err := repo.FindByStudentID(ctx, "2024003")
		require.NoError(t, err)
		assert.Equal(t, "学生3", u.Name)

		_, err = repo.FindByStudentID(ctx, "nobody")
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})

	t.Run("分页", func(t *testing.T) {
		users, total, err := repo.List(ctx, user.ListParams{Page: 2, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(25), total)
		require.Len(t, users, 10)
		assert.Equal(t, uint(11), users[0].ID)

		users, _, err = repo.List(ctx, user.ListParams{Page: 4, PageSize: 10})
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("关键字", func(t *testing.T) {
		users, total, err := repo.List(ctx, user.ListParams{Keyword: "学生2"})
		require.NoError(t, err)
		assert.Equal(t, int64(7), total, "学生2、学生20~25")
		assert.Len(t, users, 7)

		_, total, err = repo.List(ctx, user.ListParams{Keyword: "2024010"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("更新和删除", func(t *testing.T) {
		u, err := repo.FindByID(ctx, 1)
		require.NoError(t, err)
		u.ChangePassword("new-hash")
		require.NoError(t, repo.Update(ctx, u))

		got, err := repo.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", got.Password)
		assert.False(t, got.FirstLogin)

		require.NoError(t, repo.Delete(ctx, 1))
		assert.ErrorIs(t, repo.Delete(ctx, 1), apperrors.ErrUserNotFound)
		_, err = repo.FindByID(ctx, 1)
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}

func TestTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	b := NewTokenBlacklist()
	b.now = func() time.Time { return now }

	require.NoError(t, b.Revoke(ctx, "token-a", time.Hour))
	revoked, err := b.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, _ = b.IsRevoked(ctx, "token-b")
	assert.False(t, revoked)

	now = now.Add(2 * time.Hour)
	revoked, _ = b.IsRevoked(ctx, "token-a")
	assert.False(t, revoked, "过期后不再拦截")

	require.NoError(t, b.Revoke(ctx, "token-c", time.Hour))
	assert.Len(t, b.tokens, 1, "写入时清理过期条目")
}
