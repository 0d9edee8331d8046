// Package crud 提供目录实体的存储抽象（按类型的键值查找/保存/列举）。
package crud

import (
	"context"

	"erpcatalog/domain"
)

// IRepository 单一实体类型的仓储接口
type IRepository[T domain.IEntity] interface {
	// Get 通过 ID 获取实体，不存在时返回 domain.ErrEntityNotFound 类错误
	Get(ctx context.Context, id string) (T, error)

	// Save 保存实体；ID 已存在时整体替换（实体不可变，更新即替换）
	Save(ctx context.Context, e T) error

	// List 按首次保存的顺序返回全部实体
	List(ctx context.Context) ([]T, error)

	// Delete 删除实体，不存在时返回 domain.ErrEntityNotFound 类错误
	Delete(ctx context.Context, id string) error
}
