package domain

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"
)

// ValuesEqual 按值比较两个字段值。
//
// 两者都为 nil 视为相等，只有一方为 nil 视为不等；decimal 数值与精度都相同才相等（19.9 与 19.90 不等）；
// IDescribable 按类型加逐字段比较；切片逐元素比较；其余使用 reflect.DeepEqual。
func ValuesEqual(a, b any) bool {
	aNil, bNil := isNil(a), isNil(b)
	if aNil || bNil {
		return aNil && bNil
	}

	if da, ok := a.(decimal.Decimal); ok {
		db, ok := b.(decimal.Decimal)
		return ok && FormatDecimal(da) == FormatDecimal(db)
	}

	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}

	if da, ok := a.(IDescribable); ok {
		fa, fb := da.Describe(), b.(IDescribable).Describe()
		if len(fa) != len(fb) {
			return false
		}
		for i := range fa {
			if fa[i].Name != fb[i].Name || !ValuesEqual(fa[i].Value, fb[i].Value) {
				return false
			}
		}
		return true
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() == reflect.Slice && va.Type().Elem().Kind() != reflect.Uint8 {
		if va.Len() != vb.Len() {
			return false
		}
		for i := 0; i < va.Len(); i++ {
			if !ValuesEqual(va.Index(i).Interface(), vb.Index(i).Interface()) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(a, b)
}

// FormatValue 字段值的文本形式，nil 返回 nil。
//
// decimal 保留原始精度（19.90 输出为 "19.90"）；实现 fmt.Stringer 的值使用 String()；
// 切片输出为 [a, b]；字节切片只输出长度。
func FormatValue(v any) *string {
	if isNil(v) {
		return nil
	}
	s := formatValue(v)
	return &s
}

func formatValue(v any) string {
	switch val := v.(type) {
	case decimal.Decimal:
		return FormatDecimal(val)
	case []byte:
		return fmt.Sprintf("%d bytes", len(val))
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		parts := make([]string, rv.Len())
		for i := range parts {
			elem := rv.Index(i).Interface()
			if isNil(elem) {
				parts[i] = "null"
				continue
			}
			parts[i] = formatValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	if rv.Kind() == reflect.Pointer {
		return formatValue(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}

// FormatDecimal 保留小数位数的文本形式，decimal 自带的 String() 会去掉末尾的 0
func FormatDecimal(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
