package errors

import (
	"database/sql"
	stdErrors "errors"

	"erpcatalog/domain"
)

// Normalize 将仓储/存储层错误规范化为 AppError。
//
// 注意：
//   - 已经是 IError 的错误原样返回，不会把 INTERNAL_ERROR 降级为其它错误码；
//   - 未识别的错误保持原样，交由调用方决定是否 Wrap。
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(IError); ok {
		return err
	}

	var repoErr *domain.RepositoryError
	if stdErrors.As(err, &repoErr) {
		switch repoErr.Code {
		case domain.ErrEntityNotFound.Code:
			return WrapError(err, ErrCodeNotFound, "entity not found").
				WithContext(DetailEntityID, repoErr.EntityID)
		case domain.ErrKindMismatch.Code:
			return WrapError(err, ErrCodeInternal, "entity kind mismatch")
		default:
			return WrapError(err, ErrCodeDatabase, "repository operation failed")
		}
	}

	if stdErrors.Is(err, sql.ErrNoRows) {
		return WrapError(err, ErrCodeNotFound, "record not found")
	}

	return err
}
