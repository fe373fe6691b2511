package user

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/bookshelf/internal/domain/user"
	"github.com/xiebiao/bookshelf/pkg/jwt"
)

// LoginUseCase 用户登录用例
// 设计说明：
// 1. 验证学号密码
// 2. 生成JWT Token对
// 3. 返回first_login，前端据此提示修改初始密码
type LoginUseCase struct {
	userService user.Service
	jwtManager  *jwt.Manager
	logger      *zap.Logger
}

// NewLoginUseCase 创建登录用例
func NewLoginUseCase(userService user.Service, jwtManager *jwt.Manager, logger *zap.Logger) *LoginUseCase {
	return &LoginUseCase{
		userService: userService,
		jwtManager:  jwtManager,
		logger:      logger,
	}
}

// Execute 执行登录
func (uc *LoginUseCase) Execute(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := uc.userService.Login(ctx, req.StudentID, req.Password)
	if err != nil {
		uc.logger.Info("登录失败", zap.String("student_id", req.StudentID), zap.Error(err))
		return nil, err
	}

	tokenPair, err := uc.jwtManager.GenerateToken(identityOf(u))
	if err != nil {
		return nil, err
	}

	uc.logger.Info("登录成功", zap.Uint("user_id", u.ID), zap.String("role", string(u.Role)))
	return &LoginResponse{
		User:         toUserInfo(u),
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
		FirstLogin:   u.FirstLogin,
	}, nil
}

// RefreshTokenUseCase 用Refresh Token换取新的Access Token
// 每次刷新都重新读取用户,姓名、角色变化后新Token随之更新;用户已删除时刷新失败
type RefreshTokenUseCase struct {
	repo       user.Repository
	jwtManager *jwt.Manager
}

// NewRefreshTokenUseCase 创建刷新用例
func NewRefreshTokenUseCase(repo user.Repository, jwtManager *jwt.Manager) *RefreshTokenUseCase {
	return &RefreshTokenUseCase{repo: repo, jwtManager: jwtManager}
}

// Execute 执行刷新
func (uc *RefreshTokenUseCase) Execute(ctx context.Context, refreshToken string) (string, error) {
	return uc.jwtManager.RefreshAccessToken(refreshToken, func(userID uint) (jwt.Identity, error) {
		u, err := uc.repo.FindByID(ctx, userID)
		if err != nil {
			return jwt.Identity{}, err
		}
		return identityOf(u), nil
	})
}

// LogoutUseCase 用户登出用例
type LogoutUseCase struct {
	blacklist user.TokenBlacklist
	now       func() time.Time
}

// NewLogoutUseCase 创建登出用例
func NewLogoutUseCase(blacklist user.TokenBlacklist) *LogoutUseCase {
	return &LogoutUseCase{blacklist: blacklist, now: time.Now}
}

// Execute 将Access Token加入黑名单,保留到Token自然过期
func (uc *LogoutUseCase) Execute(ctx context.Context, accessToken string, expiresAt time.Time) error {
	return uc.blacklist.Revoke(ctx, accessToken, expiresAt.Sub(uc.now()))
}

// ChangePasswordUseCase 修改密码用例
type ChangePasswordUseCase struct {
	userService user.Service
}

// NewChangePasswordUseCase 创建修改密码用例
func NewChangePasswordUseCase(userService user.Service) *ChangePasswordUseCase {
	return &ChangePasswordUseCase{userService: userService}
}

// Execute 修改密码(需要原密码),成功后first_login变为false
func (uc *ChangePasswordUseCase) Execute(ctx context.Context, userID uint, req ChangePasswordRequest) error {
	return uc.userService.ChangePassword(ctx, userID, req.OldPassword, req.NewPassword)
}

// =========================================
// 应用层DTO
// =========================================

// LoginRequest 登录请求
type LoginRequest struct {
	StudentID string
	Password  string
}

// LoginResponse 登录响应
type LoginResponse struct {
	User         UserInfo `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"` // Access Token过期时间（秒）
	FirstLogin   bool     `json:"first_login"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string
	NewPassword string
}

// UserInfo 用户信息(不含密码)
type UserInfo struct {
	ID         uint      `json:"id"`
	StudentID  string    `json:"student_id"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	FirstLogin bool      `json:"first_login"`
	CreatedAt  time.Time `json:"created_at"`
}

func toUserInfo(u *user.User) UserInfo {
	return UserInfo{
		ID:         u.ID,
		StudentID:  u.StudentID,
		Name:       u.Name,
		Role:       string(u.Role),
		FirstLogin: u.FirstLogin,
		CreatedAt:  u.CreatedAt,
	}
}

func identityOf(u *user.User) jwt.Identity {
	return jwt.Identity{
		UserID:    u.ID,
		StudentID: u.StudentID,
		Name:      u.Name,
		Role:      string(u.Role),
	}
}
