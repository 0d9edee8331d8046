// Package errors 提供目录服务统一的错误码体系。
//
// 领域层只暴露三类错误：
//   - INVALID_VALUE：创建时某个必填字段未通过校验（携带字段名与原始值）；
//   - NOT_FOUND：主实体或被引用的配件不存在；
//   - INTERNAL_ERROR：差异比对失败、类型不一致等非用户输入引起的问题。
package errors

import (
	stdErrors "errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorCode 错误代码类型
type ErrorCode string

const (
	ErrCodeInvalidValue ErrorCode = "INVALID_VALUE"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"

	// 基础设施错误代码
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
	ErrCodeCache    ErrorCode = "CACHE_ERROR"
	ErrCodeQueue    ErrorCode = "QUEUE_ERROR"
)

// 详情键
const (
	DetailField    = "field"
	DetailValue    = "value"
	DetailEntityID = "entity_id"
	DetailKind     = "kind"
)

// IError 错误接口
type IError interface {
	error

	Code() ErrorCode
	Message() string
	Cause() error
	Details() map[string]any
	Stack() string

	// WithContext 返回附加了一条详情的新错误
	WithContext(key string, value any) IError
}

// AppError 应用错误实现
type AppError struct {
	code    ErrorCode
	message string
	cause   error
	details map[string]any
	stack   string
}

// NewError 创建新错误
func NewError(code ErrorCode, message string) IError {
	return &AppError{
		code:    code,
		message: message,
		details: make(map[string]any),
		stack:   captureStack(),
	}
}

// WrapError 包装错误
func WrapError(err error, code ErrorCode, message string) IError {
	if err == nil {
		return nil
	}
	return &AppError{
		code:    code,
		message: message,
		cause:   err,
		details: make(map[string]any),
		stack:   captureStack(),
	}
}

// NewInvalidValueError 字段 field 的原始值 raw 未通过校验
func NewInvalidValueError(field, raw string) IError {
	return &AppError{
		code:    ErrCodeInvalidValue,
		message: fmt.Sprintf("field '%s' has invalid value: '%s'", field, raw),
		details: map[string]any{DetailField: field, DetailValue: raw},
		stack:   captureStack(),
	}
}

// NewNotFoundError kind 类型下 id 对应的实体不存在
func NewNotFoundError(kind, id string) IError {
	return &AppError{
		code:    ErrCodeNotFound,
		message: fmt.Sprintf("%s '%s' not found", kind, id),
		details: map[string]any{DetailKind: kind, DetailEntityID: id},
		stack:   captureStack(),
	}
}

// NewInternalError 创建内部错误，cause 可为 nil
func NewInternalError(message string, cause error) IError {
	return &AppError{
		code:    ErrCodeInternal,
		message: message,
		cause:   cause,
		details: make(map[string]any),
		stack:   captureStack(),
	}
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

func (e *AppError) Code() ErrorCode { return e.code }
func (e *AppError) Message() string { return e.message }
func (e *AppError) Cause() error    { return e.cause }
func (e *AppError) Stack() string   { return e.stack }

// Details 获取错误详情
func (e *AppError) Details() map[string]any {
	if e.details == nil {
		e.details = make(map[string]any)
	}
	return e.details
}

// Is 错误码相同即视为同类错误
func (e *AppError) Is(target error) bool {
	if target == nil {
		return false
	}
	if appErr, ok := target.(*AppError); ok {
		return e.code == appErr.code
	}
	if e.cause != nil {
		return stdErrors.Is(e.cause, target)
	}
	return false
}

// Unwrap 解包错误（支持 errors.Unwrap）
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithContext 添加上下文
func (e *AppError) WithContext(key string, value any) IError {
	newDetails := copyMap(e.details)
	newDetails[key] = value
	return &AppError{
		code:    e.code,
		message: e.message,
		cause:   e.cause,
		details: newDetails,
		stack:   e.stack,
	}
}

// Field 返回 INVALID_VALUE 错误携带的字段名与原始值
func Field(err error) (field, raw string, ok bool) {
	var appErr *AppError
	if !stdErrors.As(err, &appErr) || appErr.code != ErrCodeInvalidValue {
		return "", "", false
	}
	field, _ = appErr.details[DetailField].(string)
	raw, _ = appErr.details[DetailValue].(string)
	return field, raw, true
}

// 预定义错误变量，仅用于 errors.Is 比较错误码
var (
	ErrInvalidValue = NewError(ErrCodeInvalidValue, "invalid value")
	ErrNotFound     = NewError(ErrCodeNotFound, "not found")
	ErrInternal     = NewError(ErrCodeInternal, "internal error")
)

// IsNotFound 检查是否为未找到错误
func IsNotFound(err error) bool {
	return IsErrorCode(err, ErrCodeNotFound)
}

// IsInvalidValue 检查是否为字段校验错误
func IsInvalidValue(err error) bool {
	return IsErrorCode(err, ErrCodeInvalidValue)
}

// IsInternal 检查是否为内部错误
func IsInternal(err error) bool {
	return IsErrorCode(err, ErrCodeInternal)
}

// IsErrorCode 检查是否为指定错误代码（取错误链上第一个 AppError）
func IsErrorCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	var appErr *AppError
	if stdErrors.As(err, &appErr) {
		return appErr.code == code
	}
	return false
}

// GetErrorCode 获取错误代码，非 AppError 一律视为内部错误
func GetErrorCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stdErrors.As(err, &appErr) {
		return appErr.code
	}
	return ErrCodeInternal
}

// captureStack 捕获堆栈信息
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var builder strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		builder.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		if !more {
			break
		}
	}
	return builder.String()
}

func copyMap(original map[string]any) map[string]any {
	copied := make(map[string]any, len(original)+1)
	for k, v := range original {
		copied[k] = v
	}
	return copied
}
