package dto

// CreateUserRequest 管理员创建学生账号
type CreateUserRequest struct {
	StudentID string `json:"student_id" binding:"required,max=32" example:"2024001"`
	Name      string `json:"name" binding:"required,max=50" example:"张三"`
	Password  string `json:"password" binding:"omitempty,min=8,max=20"` // 为空时使用初始密码12345678
}

// ListUsersQuery 用户列表查询参数
type ListUsersQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
	Keyword  string `form:"keyword" binding:"max=50"`
}
