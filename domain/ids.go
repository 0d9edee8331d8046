package domain

import "github.com/google/uuid"

// IDGenerator 生成新实体标识
type IDGenerator func() string

// NewID 默认标识生成器（随机 UUID）
func NewID() string {
	return uuid.NewString()
}
