package errors

import (
	"errors"
	"fmt"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于客户端判断错误类型（不要直接暴露HTTP状态码）
// 2. Message是用户友好的提示信息
// 3. Err是内部错误，仅记录到日志，不返回给客户端
type AppError struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 用户友好的错误提示
	Err     error  `json:"-"`       // 内部错误（不序列化）
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较
// 同一错误码的两个AppError视为同一种错误，
// 因此 WithCause 派生出的错误仍然满足 errors.Is(err, ErrXxx)
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause 基于预定义错误派生一个携带内部原因的新错误
// 预定义错误是包级变量，不能直接修改其Err字段
func (e *AppError) WithCause(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装系统错误（如数据库错误、网络错误）
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 4xxxx: 客户端错误（参数错误、业务规则校验失败）
// - 5xxxx: 服务端错误（存储异常、外部服务调用失败）

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal      = 50000 // 内部错误
	ErrCodeDatabaseError = 50001 // 数据库错误
	ErrCodeRedisError    = 50002 // Redis错误
	ErrCodeStorageError  = 50003 // 图书存储读写失败
	ErrCodeLookupFailed  = 50010 // 联网查询图书信息失败

	// 认证授权错误（40100-40199）
	ErrCodeUnauthorized    = 40100 // 未登录
	ErrCodeInvalidToken    = 40101 // Token无效
	ErrCodeTokenExpired    = 40102 // Token过期
	ErrCodeInvalidPassword = 40103 // 密码错误
	ErrCodeForbidden       = 40104 // 无权限

	// 资源错误（40400-40499）
	ErrCodeUserNotFound = 40401 // 用户不存在
	ErrCodeBookNotFound = 40402 // 图书不存在

	// 业务规则错误（40000-40099）
	ErrCodeStudentIDDuplicate = 40003 // 学号已存在
	ErrCodeISBNDuplicate      = 40004 // ISBN已存在
	ErrCodeWeakPassword       = 40005 // 密码强度不足
	ErrCodeImportFormat       = 40006 // 导入文件格式错误
	ErrCodeSelfDelete         = 40007 // 不能删除管理员账号
	ErrCodeOldPasswordWrong   = 40008 // 原密码错误
	ErrCodeUserHasBorrowed    = 40010 // 用户还有未归还的图书

	// 扫码错误（40200-40299）
	ErrCodeCameraUnavailable = 40201 // 摄像头无法启动
	ErrCodeNoBarcodeFound    = 40202 // 图片中未发现条形码
	ErrCodeDecodeFailed      = 40203 // 条形码无法解码

	// 参数错误（40900-40999）
	ErrCodeInvalidParams = 40900 // 参数错误
	ErrCodeBindError     = 40901 // 参数绑定失败
)

// =========================================
// 预定义错误（避免每次都New）
// =========================================

var (
	// 系统错误
	ErrInternal      = New(ErrCodeInternal, "系统内部错误")
	ErrDatabaseError = New(ErrCodeDatabaseError, "数据库错误")
	ErrRedisError    = New(ErrCodeRedisError, "缓存服务错误")
	ErrStorageError  = New(ErrCodeStorageError, "图书数据读写失败")

	// 认证授权
	ErrUnauthorized    = New(ErrCodeUnauthorized, "请先登录")
	ErrInvalidToken    = New(ErrCodeInvalidToken, "无效的Token")
	ErrTokenExpired    = New(ErrCodeTokenExpired, "Token已过期")
	ErrInvalidPassword = New(ErrCodeInvalidPassword, "学号或密码错误")
	ErrForbidden       = New(ErrCodeForbidden, "无权限访问")

	// 资源不存在
	ErrUserNotFound = New(ErrCodeUserNotFound, "用户不存在")

	// 业务规则
	ErrStudentIDDuplicate = New(ErrCodeStudentIDDuplicate, "学号已存在")
	ErrWeakPassword       = New(ErrCodeWeakPassword, "密码强度不足（需8-20位，包含字母和数字）")

	// 参数错误
	ErrInvalidParams = New(ErrCodeInvalidParams, "参数错误")
)

// =========================================
// 辅助函数
// =========================================

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}

// IsAuthCode 判断错误码是否属于认证授权错误（401xx）
func IsAuthCode(code int) bool {
	return code >= 40100 && code < 40200
}
