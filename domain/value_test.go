package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct{ X, Y int }

func (p point) Describe() []Field {
	return []Field{{Name: "x", Value: p.X}, {Name: "y", Value: p.Y}}
}

func (p point) String() string { return "point" }

func ptr(s string) *string { return &s }

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name  string
		a, b  any
		equal bool
	}{
		{"都为 nil", nil, nil, true},
		{"一方为 nil", nil, "x", false},
		{"nil 指针与 nil", (*string)(nil), nil, true},
		{"decimal 同值同精度", decimal.RequireFromString("19.90"), decimal.RequireFromString("19.90"), true},
		{"decimal 精度不同", decimal.RequireFromString("19.90"), decimal.RequireFromString("19.9"), false},
		{"decimal 整数与字面量", decimal.NewFromInt(100), decimal.RequireFromString("100"), true},
		{"decimal 不等", decimal.RequireFromString("19.90"), decimal.RequireFromString("19.91"), false},
		{"类型不同", 1, int64(1), false},
		{"可描述类型逐字段", point{1, 2}, point{1, 2}, true},
		{"可描述类型字段不同", point{1, 2}, point{1, 3}, false},
		{"切片逐元素", []decimal.Decimal{decimal.RequireFromString("1.0")}, []decimal.Decimal{decimal.RequireFromString("1.0")}, true},
		{"切片元素精度不同", []decimal.Decimal{decimal.RequireFromString("1.0")}, []decimal.Decimal{decimal.RequireFromString("1")}, false},
		{"切片长度不同", []int{1}, []int{1, 2}, false},
		{"字节切片", []byte("ab"), []byte("ab"), true},
		{"指针比较指向的值", ptr("a"), ptr("a"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, ValuesEqual(tt.a, tt.b))
		})
	}
}

func TestFormatValue(t *testing.T) {
	assert.Nil(t, FormatValue(nil))
	assert.Nil(t, FormatValue([]int(nil)))

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"decimal 保留精度", decimal.RequireFromString("24.50"), "24.50"},
		{"decimal 整数", decimal.NewFromInt(3), "3"},
		{"浮点数", 100.0, "100"},
		{"字符串", "PLA", "PLA"},
		{"字节切片", []byte{1, 2, 3}, "3 bytes"},
		{"Stringer", point{}, "point"},
		{"切片", []point{{}, {}}, "[point, point]"},
		{"空切片", []string{}, "[]"},
		{"指针", ptr("x"), "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatValue(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}
