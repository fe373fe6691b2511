package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/xiebiao/bookshelf/internal/domain/user"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// userRepository 用户仓储(内存)
// 与MySQL实现的行为保持一致:学号唯一、ID自增、按ID升序分页
type userRepository struct {
	mu     sync.RWMutex
	users  map[uint]user.User
	nextID uint
}

// NewUserRepository 创建内存用户仓储
func NewUserRepository() user.Repository {
	return &userRepository{users: make(map[uint]user.User), nextID: 1}
}

func (r *userRepository) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.StudentID == u.StudentID {
			return apperrors.ErrStudentIDDuplicate
		}
	}

	now := time.Now()
	u.ID = r.nextID
	u.CreatedAt = now
	u.UpdatedAt = now
	r.nextID++
	r.users[u.ID] = *u
	return nil
}

func (r *userRepository) FindByID(_ context.Context, id uint) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepository) FindByStudentID(_ context.Context, studentID string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.StudentID == studentID {
			return &u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *userRepository) Update(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.ID]; !ok {
		return apperrors.ErrUserNotFound
	}
	u.UpdatedAt = time.Now()
	r.users[u.ID] = *u
	return nil
}

func (r *userRepository) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// List 关键字同时匹配学号和姓名(包含即可)
func (r *userRepository) List(_ context.Context, params user.ListParams) ([]*user.User, int64, error) {
	params.Normalize()

	r.mu.RLock()
	matched := make([]user.User, 0, len(r.users))
	for _, u := range r.users {
		if params.Keyword == "" ||
			strings.Contains(u.StudentID, params.Keyword) ||
			strings.Contains(u.Name, params.Keyword) {
			matched = append(matched, u)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, func(a, b user.User) int { return int(a.ID) - int(b.ID) })

	total := int64(len(matched))
	start := min(params.Offset(), len(matched))
	end := min(start+params.PageSize, len(matched))

	page := make([]*user.User, 0, end-start)
	for i := start; i < end; i++ {
		u := matched[i]
		page = append(page, &u)
	}
	return page, total, nil
}
