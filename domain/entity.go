// Package domain 定义目录实体的公共能力：标识、名称、类型以及按声明顺序列出字段。
package domain

// Kind 实体类型
type Kind string

const (
	KindProduct   Kind = "Product"
	KindFilament  Kind = "FilamentAccessory"
	KindPackaging Kind = "PackagingAccessory"
	KindFasteners Kind = "FastenersAccessory"
)

// IEntity 目录实体接口。
// 实体均为不可变值，"更新"总是构造一个 ID 相同的新值。
type IEntity interface {
	// GetID 返回实体标识，在同一类型内唯一且创建后不再变化
	GetID() string

	// GetName 返回展示名称
	GetName() string

	// Kind 返回实体类型
	Kind() Kind
}

// Field 实体的一个字段（名称 + 当前值）
type Field struct {
	Name  string
	Value any
}

// IDescribable 可按声明顺序列出全部字段的值。
//
// Describe 返回的字段顺序必须稳定，审计差异按该顺序输出；实体的 id 在首位。
type IDescribable interface {
	Describe() []Field
}

// IDescribedEntity 既是实体又能列出字段，变更追踪以此为输入
type IDescribedEntity interface {
	IEntity
	IDescribable
}
