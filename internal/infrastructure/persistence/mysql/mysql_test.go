package mysql

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/xiebiao/bookshelf/internal/domain/user"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

func TestIsDuplicateError(t *testing.T) {
	assert.False(t, isDuplicateError(nil))
	assert.True(t, isDuplicateError(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicateError(errors.New("Error 1062: Duplicate entry '2024001' for key 'users.idx_users_student_id'")))
	assert.False(t, isDuplicateError(errors.New("connection refused")))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
	assert.Equal(t, "张三", escapeLike("张三"))
}

func TestModelConversion(t *testing.T) {
	now := time.Unix(1700000000, 0)
	u := &user.User{
		ID: 3, StudentID: "2024001", Name: "张三", Password: "hash",
		Role: user.RoleStudent, FirstLogin: true, CreatedAt: now, UpdatedAt: now,
	}
	assert.Equal(t, u, toEntity(toModel(u)))
}

// openTestDB 需要真实的MySQL,设置BOOKSHELF_TEST_MYSQL_DSN后运行
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("BOOKSHELF_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("未设置BOOKSHELF_TEST_MYSQL_DSN,跳过MySQL集成测试")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&UserModel{}, &KVModel{}))
	return db
}

func TestUserRepository_MySQL(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	sid := fmt.Sprintf("t%d", time.Now().UnixNano())
	u := user.NewStudent(sid, "集成测试", "hash")
	require.NoError(t, repo.Create(ctx, u))
	t.Cleanup(func() { _ = repo.Delete(ctx, u.ID) })

	assert.ErrorIs(t, repo.Create(ctx, user.NewStudent(sid, "重复", "hash")), apperrors.ErrStudentIDDuplicate)

	got, err := repo.FindByStudentID(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "集成测试", got.Name)
	assert.True(t, got.FirstLogin)

	users, total, err := repo.List(ctx, user.ListParams{Keyword: sid})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, users, 1)
}

func TestKVStore_MySQL(t *testing.T) {
	db := openTestDB(t)
	store := NewKVStore(db)
	ctx := context.Background()

	key := fmt.Sprintf("test_%d", time.Now().UnixNano())
	t.Cleanup(func() { db.Delete(&KVModel{}, "`key` = ?", key) })

	_, found, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, key, []byte("[]")))
	require.NoError(t, store.Set(ctx, key, []byte(`[{"id":"1"}]`)))
	got, found, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"1"}]`, string(got))
}
