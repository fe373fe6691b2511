package user

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// 用户领域错误
var (
	// ErrOldPasswordWrong 修改密码时原密码错误
	ErrOldPasswordWrong = apperrors.New(apperrors.ErrCodeOldPasswordWrong, "原密码错误")

	// ErrAdminUndeletable 管理员账号不能删除
	ErrAdminUndeletable = apperrors.New(apperrors.ErrCodeSelfDelete, "无法删除管理员账号")
)

// Service 用户领域服务
// 设计说明:
// 1. Service包含不属于单个实体的业务逻辑(密码加密、验证、账号规则)
// 2. Service依赖Repository接口,不依赖具体实现(依赖倒置)
// 3. Service不处理HTTP请求,只处理业务逻辑
type Service interface {
	// Login 学号+密码登录
	Login(ctx context.Context, studentID, password string) (*User, error)

	// ChangePassword 修改密码(需要原密码)
	ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error

	// CreateStudent 管理员创建学生账号,password为空时使用DefaultPassword
	CreateStudent(ctx context.Context, studentID, name, password string) (*User, error)

	// EnsureAdmin 管理员账号不存在时创建,返回是否新建
	EnsureAdmin(ctx context.Context, studentID, name, password string) (bool, error)

	// Delete 删除账号(管理员账号不能删除)
	Delete(ctx context.Context, id uint) (*User, error)

	// ValidatePassword 验证密码
	ValidatePassword(hashedPassword, plainPassword string) error
}

// ServiceOption 用户服务可选配置
type ServiceOption func(*service)

// WithHashCost 指定bcrypt cost(测试时使用bcrypt.MinCost)
func WithHashCost(cost int) ServiceOption {
	return func(s *service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

type service struct {
	repo Repository
	cost int
}

// NewService 创建用户服务
func NewService(repo Repository, opts ...ServiceOption) Service {
	s := &service{repo: repo, cost: 12}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login 用户登录
// 业务规则:
// 1. 学号不存在和密码错误返回同一个错误,不暴露账号是否存在
// 2. 密码必须正确
func (s *service) Login(ctx context.Context, studentID, password string) (*User, error) {
	user, err := s.repo.FindByStudentID(ctx, strings.TrimSpace(studentID))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidPassword
		}
		return nil, err
	}

	if err := s.ValidatePassword(user.Password, password); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword 修改密码
// 业务规则:
// 1. 原密码必须正确
// 2. 新密码强度校验(8-20位,包含字母和数字)
// 3. 修改成功后FirstLogin置为false
func (s *service) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.ValidatePassword(user.Password, oldPassword); err != nil {
		if errors.Is(err, apperrors.ErrInvalidPassword) {
			return ErrOldPasswordWrong
		}
		return err
	}

	if err := validatePasswordStrength(newPassword); err != nil {
		return err
	}

	hashed, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	user.ChangePassword(hashed)
	return s.repo.Update(ctx, user)
}

// CreateStudent 创建学生账号
// 学号唯一性由数据库UNIQUE索引保证,Repository转换为ErrStudentIDDuplicate
func (s *service) CreateStudent(ctx context.Context, studentID, name, password string) (*User, error) {
	studentID = strings.TrimSpace(studentID)
	name = strings.TrimSpace(name)
	if studentID == "" || name == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "学号和姓名不能为空")
	}
	if password == "" {
		password = DefaultPassword
	}

	hashed, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	user := NewStudent(studentID, name, hashed)
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureAdmin 启动时确保管理员账号存在
func (s *service) EnsureAdmin(ctx context.Context, studentID, name, password string) (bool, error) {
	_, err := s.repo.FindByStudentID(ctx, studentID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return false, err
	}

	hashed, err := s.hash(password)
	if err != nil {
		return false, err
	}
	if err := s.repo.Create(ctx, NewAdmin(studentID, name, hashed)); err != nil {
		return false, err
	}
	return true, nil
}

// Delete 删除账号
func (s *service) Delete(ctx context.Context, id uint) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return nil, ErrAdminUndeletable
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return user, nil
}

// ValidatePassword 验证密码
func (s *service) ValidatePassword(hashedPassword, plainPassword string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return apperrors.ErrInvalidPassword
		}
		return apperrors.Wrap(err, "密码验证失败")
	}
	return nil
}

func (s *service) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", apperrors.Wrap(err, "密码加密失败")
	}
	return string(hashed), nil
}

var (
	letterPattern = regexp.MustCompile(`[a-zA-Z]`)
	digitPattern  = regexp.MustCompile(`[0-9]`)
)

// validatePasswordStrength 密码强度校验
// 规则:8-20位,必须包含字母和数字
func validatePasswordStrength(password string) error {
	if len(password) < 8 || len(password) > 20 {
		return apperrors.ErrWeakPassword
	}
	if !letterPattern.MatchString(password) || !digitPattern.MatchString(password) {
		return apperrors.ErrWeakPassword
	}
	return nil
}
