package handler

import (
	"github.com/gin-gonic/gin"

	appuser "github.com/xiebiao/bookshelf/internal/application/user"
	"github.com/xiebiao/bookshelf/internal/interface/http/dto"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/response"
)

// AuthHandler 登录认证HTTP处理器
// 设计说明:
// 1. Handler只负责HTTP相关的事情:解析请求、调用应用层、返回响应
// 2. 不包含业务逻辑(业务逻辑在domain和application层)
type AuthHandler struct {
	loginUseCase          *appuser.LoginUseCase
	refreshUseCase        *appuser.RefreshTokenUseCase
	logoutUseCase         *appuser.LogoutUseCase
	changePasswordUseCase *appuser.ChangePasswordUseCase
	accessTokenTTL        int64
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(
	loginUseCase *appuser.LoginUseCase,
	refreshUseCase *appuser.RefreshTokenUseCase,
	logoutUseCase *appuser.LogoutUseCase,
	changePasswordUseCase *appuser.ChangePasswordUseCase,
	accessTokenTTL int64,
) *AuthHandler {
	return &AuthHandler{
		loginUseCase:          loginUseCase,
		refreshUseCase:        refreshUseCase,
		logoutUseCase:         logoutUseCase,
		changePasswordUseCase: changePasswordUseCase,
		accessTokenTTL:        accessTokenTTL,
	}
}

// Login 用户登录
// @Summary      用户登录
// @Description  学号密码登录,返回JWT Token;first_login为true时前端提示修改初始密码
// @Tags         认证
// @Accept       json
// @Produce      json
// @Param        request body dto.LoginRequest true "登录信息"
// @Success      200 {object} response.Response{data=appuser.LoginResponse}
// @Failure      401 {object} response.Response "学号或密码错误"
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.loginUseCase.Execute(c.Request.Context(), appuser.LoginRequest{
		StudentID: req.StudentID,
		Password:  req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Refresh 刷新Access Token
// @Summary      刷新Token
// @Tags         认证
// @Accept       json
// @Produce      json
// @Param        request body dto.RefreshRequest true "Refresh Token"
// @Success      200 {object} response.Response{data=dto.RefreshResponse}
// @Failure      401 {object} response.Response "Refresh Token无效或已过期"
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	accessToken, err := h.refreshUseCase.Execute(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.RefreshResponse{AccessToken: accessToken, ExpiresIn: h.accessTokenTTL})
}

// Logout 登出,当前Access Token加入黑名单
// @Summary      登出
// @Tags         认证
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token, expiresAt := middleware.CurrentToken(c)
	if err := h.logoutUseCase.Execute(c.Request.Context(), token, expiresAt); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ChangePassword 修改密码
// @Summary      修改密码
// @Description  需要原密码;新密码8-20位,包含字母和数字
// @Tags         认证
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.ChangePasswordRequest true "原密码和新密码"
// @Success      200 {object} response.Response
// @Router       /api/auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	err := h.changePasswordUseCase.Execute(c.Request.Context(), middleware.GetUserID(c), appuser.ChangePasswordRequest{
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// bindError 参数绑定失败
func bindError(c *gin.Context, err error) {
	response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
}
