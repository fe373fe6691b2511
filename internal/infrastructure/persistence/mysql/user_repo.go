package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/bookshelf/internal/domain/user"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// userRepository 用户仓储实现（MySQL）
// 设计说明：
// 1. 实现domain/user/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 处理数据库特定的错误（如学号重复），转换为业务错误
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepository{db: db}
}

// Create 创建用户
// 学号唯一性由数据库UNIQUE索引保证，捕获Duplicate Entry转换为ErrStudentIDDuplicate
func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	model := toModel(u)
	model.ID = 0

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return apperrors.ErrStudentIDDuplicate
		}
		return apperrors.ErrDatabaseError.WithCause(err)
	}

	u.ID = model.ID
	u.CreatedAt = model.CreatedAt
	u.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*user.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return toEntity(&model), nil
}

func (r *userRepository) FindByStudentID(ctx context.Context, studentID string) (*user.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).Where("student_id = ?", studentID).First(&model).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return toEntity(&model), nil
}

// Update 使用Save更新所有字段
func (r *userRepository) Update(ctx context.Context, u *user.User) error {
	model := toModel(u)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if isDuplicateError(err) {
			return apperrors.ErrStudentIDDuplicate
		}
		return apperrors.ErrDatabaseError.WithCause(err)
	}
	u.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete 物理删除（学号删除后可以重新创建）
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&UserModel{}, id)
	if result.Error != nil {
		return apperrors.ErrDatabaseError.WithCause(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// List 分页查询，关键字模糊匹配学号或姓名
func (r *userRepository) List(ctx context.Context, params user.ListParams) ([]*user.User, int64, error) {
	params.Normalize()

	query := r.db.WithContext(ctx).Model(&UserModel{})
	if params.Keyword != "" {
		like := "%" + escapeLike(params.Keyword) + "%"
		query = query.Where("student_id LIKE ? OR name LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.ErrDatabaseError.WithCause(err)
	}

	var models []UserModel
	err := query.Order("id ASC").Offset(params.Offset()).Limit(params.PageSize).Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.ErrDatabaseError.WithCause(err)
	}

	users := make([]*user.User, 0, len(models))
	for i := range models {
		users = append(users, toEntity(&models[i]))
	}
	return users, total, nil
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrUserNotFound
	}
	return apperrors.ErrDatabaseError.WithCause(err)
}

// toEntity GORM模型 → 领域实体
func toEntity(model *UserModel) *user.User {
	return &user.User{
		ID:         model.ID,
		StudentID:  model.StudentID,
		Name:       model.Name,
		Password:   model.Password,
		Role:       user.Role(model.Role),
		FirstLogin: model.FirstLogin,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

// toModel 领域实体 → GORM模型
func toModel(u *user.User) *UserModel {
	return &UserModel{
		ID:         u.ID,
		StudentID:  u.StudentID,
		Name:       u.Name,
		Password:   u.Password,
		Role:       string(u.Role),
		FirstLogin: u.FirstLogin,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
