package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appuser "github.com/xiebiao/bookshelf/internal/application/user"
	"github.com/xiebiao/bookshelf/internal/interface/http/dto"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/response"
)

// UserHandler 学生账号管理(管理员)
type UserHandler struct {
	manageUseCase *appuser.ManageUsersUseCase
}

// NewUserHandler 创建账号管理处理器
func NewUserHandler(manageUseCase *appuser.ManageUsersUseCase) *UserHandler {
	return &UserHandler{manageUseCase: manageUseCase}
}

// List 学生账号列表
// @Summary      账号列表
// @Tags         账号
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int    false "页码"
// @Param        page_size query int    false "每页数量(最大100)"
// @Param        keyword   query string false "学号或姓名"
// @Success      200 {object} response.Response{data=response.PageData}
// @Router       /api/users [get]
func (h *UserHandler) List(c *gin.Context) {
	var q dto.ListUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.manageUseCase.List(c.Request.Context(), appuser.ListUsersRequest{
		Page:     q.Page,
		PageSize: q.PageSize,
		Keyword:  q.Keyword,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, result.List, result.Total, result.Page, result.PageSize)
}

// Create 创建学生账号
// @Summary      创建学生账号
// @Description  未指定密码时使用初始密码12345678,学生首次登录后需修改
// @Tags         账号
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateUserRequest true "账号信息"
// @Success      200 {object} response.Response{data=appuser.UserInfo}
// @Failure      200 {object} response.Response "学号已存在"
// @Router       /api/users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	info, err := h.manageUseCase.Create(c.Request.Context(), appuser.CreateUserRequest{
		StudentID: req.StudentID,
		Name:      req.Name,
		Password:  req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, info)
}

// Delete 删除学生账号
// @Summary      删除账号
// @Description  管理员账号不能删除;有未归还图书的学生不能删除
// @Tags         账号
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "用户ID"
// @Success      200 {object} response.Response
// @Router       /api/users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "无效的用户ID")
		return
	}

	if err := h.manageUseCase.Delete(c.Request.Context(), uint(id)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
