package user

import (
	"time"
)

// Role 用户角色
type Role string

const (
	RoleAdmin   Role = "admin"   // 管理员:维护图书、导入导出、管理学生账号
	RoleStudent Role = "student" // 学生:浏览、查询、借阅归还
)

// DefaultPassword 管理员创建学生账号时未指定密码使用的初始密码
const DefaultPassword = "12345678"

// User 用户实体(聚合根)
// DDD设计说明:
// 1. 以学号(StudentID)登录,学号全局唯一
// 2. 密码已加密存储(bcrypt),实体不暴露明文
// 3. FirstLogin为true表示仍在使用初始密码,修改密码后置为false
// 4. 领域实体不依赖GORM tag(infrastructure层负责映射)
type User struct {
	ID         uint
	StudentID  string
	Name       string
	Password   string // bcrypt哈希值
	Role       Role
	FirstLogin bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewStudent 创建学生账号(工厂方法)
// hashedPassword必须是bcrypt加密后的密码
func NewStudent(studentID, name, hashedPassword string) *User {
	now := time.Now()
	return &User{
		StudentID:  studentID,
		Name:       name,
		Password:   hashedPassword,
		Role:       RoleStudent,
		FirstLogin: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewAdmin 创建管理员账号
func NewAdmin(studentID, name, hashedPassword string) *User {
	u := NewStudent(studentID, name, hashedPassword)
	u.Role = RoleAdmin
	u.FirstLogin = false
	return u
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ChangePassword 更新密码哈希(领域行为)
func (u *User) ChangePassword(hashedPassword string) {
	u.Password = hashedPassword
	u.FirstLogin = false
	u.UpdatedAt = time.Now()
}
