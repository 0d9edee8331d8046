package errors

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcatalog/domain"
	"erpcatalog/logging"
)

func TestNewInvalidValueError(t *testing.T) {
	err := NewInvalidValueError("dimensions", "15x25")

	assert.Equal(t, ErrCodeInvalidValue, err.Code())
	assert.Equal(t, "[INVALID_VALUE] field 'dimensions' has invalid value: '15x25'", err.Error())
	assert.True(t, IsInvalidValue(err))
	assert.True(t, stdErrors.Is(err, ErrInvalidValue))
	assert.False(t, stdErrors.Is(err, ErrNotFound))

	field, raw, ok := Field(fmt.Errorf("save packaging: %w", err))
	require.True(t, ok)
	assert.Equal(t, "dimensions", field)
	assert.Equal(t, "15x25", raw)
}

func TestNotFoundAndInternal(t *testing.T) {
	nf := NewNotFoundError("FilamentAccessory", "a-1")
	assert.True(t, IsNotFound(nf))
	assert.Equal(t, "a-1", nf.Details()[DetailEntityID])

	cause := stdErrors.New("kind mismatch")
	internal := NewInternalError("diff failed", cause)
	assert.True(t, IsInternal(internal))
	assert.Same(t, cause, stdErrors.Unwrap(internal))
	assert.Contains(t, internal.Error(), "kind mismatch")
	assert.NotEmpty(t, internal.Stack())

	_, _, ok := Field(internal)
	assert.False(t, ok)
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{name: "nil", err: nil, want: ""},
		{name: "AppError", err: NewNotFoundError("Product", "p"), want: ErrCodeNotFound},
		{name: "被包装的AppError", err: fmt.Errorf("ctx: %w", NewInvalidValueError("ean", "1")), want: ErrCodeInvalidValue},
		{name: "普通错误视为内部错误", err: stdErrors.New("boom"), want: ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorCode(tt.err))
		})
	}
}

func TestWithContext_DoesNotMutateOriginal(t *testing.T) {
	base := NewError(ErrCodeDatabase, "write failed")
	withCtx := base.WithContext("table", "change_logs")

	assert.Empty(t, base.Details())
	assert.Equal(t, "change_logs", withCtx.Details()["table"])
	assert.Equal(t, base.Code(), withCtx.Code())
}

func TestNormalize(t *testing.T) {
	t.Run("仓储未找到映射为NOT_FOUND", func(t *testing.T) {
		err := Normalize(domain.NewEntityNotFoundError(domain.KindProduct, "p-1"))
		assert.True(t, IsNotFound(err))
		assert.True(t, stdErrors.Is(err, domain.ErrEntityNotFound))
	})

	t.Run("sql.ErrNoRows映射为NOT_FOUND", func(t *testing.T) {
		assert.True(t, IsNotFound(Normalize(fmt.Errorf("query: %w", sql.ErrNoRows))))
	})

	t.Run("类型不一致映射为内部错误", func(t *testing.T) {
		assert.True(t, IsInternal(Normalize(domain.ErrKindMismatch)))
	})

	t.Run("其它仓储错误映射为数据库错误", func(t *testing.T) {
		err := Normalize(domain.NewRepositoryFailedError("insert", stdErrors.New("locked")))
		assert.Equal(t, ErrCodeDatabase, GetErrorCode(err))
	})

	t.Run("内部错误不会被降级", func(t *testing.T) {
		internal := NewInternalError("diff", nil)
		assert.Same(t, internal, Normalize(internal))
	})

	t.Run("未知错误原样返回", func(t *testing.T) {
		plain := stdErrors.New("plain")
		assert.Same(t, plain, Normalize(plain))
		assert.Nil(t, Normalize(nil))
	})
}

func TestWrap(t *testing.T) {
	logging.SetLogger(logging.NewNoopLogger())
	ctx := context.Background()
	cause := stdErrors.New("disk full")

	assert.Nil(t, Wrap(ctx, nil, ErrCodeDatabase, "x"))

	wrapped := Wrap(ctx, cause, ErrCodeDatabase, "save product")
	assert.Equal(t, ErrCodeDatabase, GetErrorCode(wrapped))
	assert.ErrorIs(t, wrapped, cause)

	logged := WrapWithLog(ctx, cause, ErrCodeQueue, "publish change log", logging.String("subject", "catalog"))
	assert.Equal(t, ErrCodeQueue, GetErrorCode(logged))
}

func TestWrapDbError(t *testing.T) {
	logging.SetLogger(logging.NewNoopLogger())
	ctx := context.Background()

	nf := NewNotFoundError("Product", "p")
	assert.Same(t, nf, WrapDbError(ctx, nf, "get"))

	err := WrapDbError(ctx, stdErrors.New("locked"), "insert")
	assert.Equal(t, ErrCodeDatabase, GetErrorCode(err))
	assert.Nil(t, WrapDbError(ctx, nil, "noop"))
}
