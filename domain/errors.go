package domain

import "fmt"

// RepositoryError 通用仓储错误
type RepositoryError struct {
	Code     string
	Message  string
	EntityID string
	Cause    error
}

func (e *RepositoryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RepositoryError) Unwrap() error {
	return e.Cause
}

// Is 按 Code 比较，便于 errors.Is(err, ErrEntityNotFound)
func (e *RepositoryError) Is(target error) bool {
	t, ok := target.(*RepositoryError)
	return ok && t.Code == e.Code
}

// 常见仓储错误
var (
	ErrEntityNotFound   = &RepositoryError{Code: "ENTITY_NOT_FOUND", Message: "entity not found"}
	ErrKindMismatch     = &RepositoryError{Code: "KIND_MISMATCH", Message: "entity kind mismatch"}
	ErrInvalidID        = &RepositoryError{Code: "INVALID_ID", Message: "invalid entity id"}
	ErrRepositoryFailed = &RepositoryError{Code: "REPOSITORY_FAILED", Message: "repository operation failed"}
)

// NewEntityNotFoundError kind 类型下 id 对应的实体不存在
func NewEntityNotFoundError(kind Kind, id string) *RepositoryError {
	return &RepositoryError{
		Code:     ErrEntityNotFound.Code,
		Message:  fmt.Sprintf("%s '%s' not found", kind, id),
		EntityID: id,
	}
}

// NewRepositoryFailedError 包装底层存储错误
func NewRepositoryFailedError(op string, cause error) *RepositoryError {
	return &RepositoryError{
		Code:    ErrRepositoryFailed.Code,
		Message: op,
		Cause:   cause,
	}
}
