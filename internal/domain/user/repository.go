package user

import (
	"context"
)

// Repository 用户仓储接口
// DDD设计说明:
// 1. 接口定义在domain层(依赖倒置原则)
// 2. 具体实现在infrastructure/persistence/mysql层
// 3. 便于单元测试(Mock此接口)
type Repository interface {
	// Create 创建用户
	// 注意:如果学号已存在,应返回errors.ErrStudentIDDuplicate
	Create(ctx context.Context, user *User) error

	// FindByID 根据ID查找用户
	// 如果不存在,返回errors.ErrUserNotFound
	FindByID(ctx context.Context, id uint) (*User, error)

	// FindByStudentID 根据学号查找用户
	// 如果不存在,返回errors.ErrUserNotFound
	FindByStudentID(ctx context.Context, studentID string) (*User, error)

	// Update 更新用户信息
	Update(ctx context.Context, user *User) error

	// Delete 删除用户
	Delete(ctx context.Context, id uint) error

	// List 分页查询用户,keyword同时匹配学号和姓名
	List(ctx context.Context, params ListParams) ([]*User, int64, error)
}

// ListParams 用户列表查询参数
type ListParams struct {
	Page     int
	PageSize int
	Keyword  string
}

// Normalize 修正分页参数
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

// Offset 分页偏移量
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
