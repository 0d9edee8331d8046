package validation

import "github.com/shopspring/decimal"

// 部分更新的取值规则：候选值通过校验则解析并采用，否则保留当前值。
// 不合法的候选值被静默忽略，不返回错误。

// PickString 按给定规则在候选值与当前值之间取值
func PickString(valid func(string) bool, candidate, current string) string {
	if valid(candidate) {
		return candidate
	}
	return current
}

// PickName 名称类字段
func PickName(candidate, current string) string {
	return PickString(IsNameValid, candidate, current)
}

// PickTemperature 温度字段
func PickTemperature(candidate string, current float64) float64 {
	if !IsTemperatureValid(candidate) {
		return current
	}
	v, _ := ParseFloat(candidate)
	return v
}

// PickQuantity 数量字段
func PickQuantity(candidate string, current float64) float64 {
	if !IsQuantityValid(candidate) {
		return current
	}
	v, _ := ParseFloat(candidate)
	return v
}

// PickPrice 价格类字段
func PickPrice(candidate string, current decimal.Decimal) decimal.Decimal {
	if !IsPriceValid(candidate) {
		return current
	}
	v, _ := ParsePrice(candidate)
	return v
}
