package dto

// LoginRequest 登录请求
type LoginRequest struct {
	StudentID string `json:"student_id" binding:"required,max=32" example:"2024001"`
	Password  string `json:"password" binding:"required" example:"12345678"`
}

// RefreshRequest 刷新Token请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshResponse 刷新Token响应
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=20" example:"newpass123"`
}
