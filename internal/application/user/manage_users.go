package user

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/user"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// ErrUserHasBorrowed 用户还有未归还的图书
var ErrUserHasBorrowed = apperrors.New(apperrors.ErrCodeUserHasBorrowed, "该用户还有未归还的图书，无法删除")

// BorrowRecords 借阅记录来源(*book.Catalog实现此接口)
type BorrowRecords interface {
	Books() []book.Book
}

// ManageUsersUseCase 管理员维护学生账号
type ManageUsersUseCase struct {
	userService user.Service
	repo        user.Repository
	borrows     BorrowRecords
	logger      *zap.Logger
}

// NewManageUsersUseCase 创建账号管理用例
func NewManageUsersUseCase(userService user.Service, repo user.Repository, borrows BorrowRecords, logger *zap.Logger) *ManageUsersUseCase {
	return &ManageUsersUseCase{
		userService: userService,
		repo:        repo,
		borrows:     borrows,
		logger:      logger,
	}
}

// CreateUserRequest 创建学生账号请求
type CreateUserRequest struct {
	StudentID string
	Name      string
	Password  string // 为空时使用初始密码
}

// ListUsersRequest 用户列表请求
type ListUsersRequest struct {
	Page     int
	PageSize int
	Keyword  string
}

// ListUsersResponse 用户列表响应
type ListUsersResponse struct {
	List     []UserInfo `json:"list"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

// Create 创建学生账号
func (uc *ManageUsersUseCase) Create(ctx context.Context, req CreateUserRequest) (*UserInfo, error) {
	u, err := uc.userService.CreateStudent(ctx, req.StudentID, req.Name, req.Password)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("创建学生账号", zap.String("student_id", u.StudentID))
	info := toUserInfo(u)
	return &info, nil
}

// List 分页查询
func (uc *ManageUsersUseCase) List(ctx context.Context, req ListUsersRequest) (*ListUsersResponse, error) {
	params := user.ListParams{Page: req.Page, PageSize: req.PageSize, Keyword: strings.TrimSpace(req.Keyword)}
	params.Normalize()

	users, total, err := uc.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	list := make([]UserInfo, 0, len(users))
	for _, u := range users {
		list = append(list, toUserInfo(u))
	}
	return &ListUsersResponse{List: list, Total: total, Page: params.Page, PageSize: params.PageSize}, nil
}

// Delete 删除账号
// 业务规则:
// 1. 管理员账号不能删除
// 2. 以该用户姓名借出的图书全部归还后才能删除
func (uc *ManageUsersUseCase) Delete(ctx context.Context, id uint) error {
	u, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if u.IsAdmin() {
		return user.ErrAdminUndeletable
	}
	if n := borrowedBy(uc.borrows.Books(), u.Name); n > 0 {
		uc.logger.Info("用户有未归还图书,拒绝删除", zap.Uint("user_id", id), zap.Int("borrowed", n))
		return ErrUserHasBorrowed
	}

	if _, err := uc.userService.Delete(ctx, id); err != nil {
		return err
	}
	uc.logger.Info("删除账号", zap.Uint("user_id", id), zap.String("student_id", u.StudentID))
	return nil
}

// SeedAdmin 启动时确保管理员账号存在
func SeedAdmin(ctx context.Context, userService user.Service, studentID, name, password string, logger *zap.Logger) error {
	created, err := userService.EnsureAdmin(ctx, studentID, name, password)
	if err != nil {
		return err
	}
	if created {
		logger.Info("已创建管理员账号", zap.String("student_id", studentID))
	}
	return nil
}

func borrowedBy(books []book.Book, name string) int {
	n := 0
	for _, b := range books {
		if b.IsBorrowed() && b.Borrower() == name {
			n++
		}
	}
	return n
}
