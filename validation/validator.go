// Package validation 目录字段的校验规则。
//
// 每条规则都是无副作用的纯函数：IsXxxValid 判断原始字符串是否可接受，
// ValidateXxx 在不可接受时返回 INVALID_VALUE 错误（携带字段名与原始值）。
// 空字符串表示"未提供"，不通过任何规则。
package validation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"erpcatalog/errors"
)

const (
	minNameLength        = 3
	minDescriptionLength = 10
	maxPriceScale        = 2
)

var (
	colorRegex = regexp.MustCompile(`^#[A-Fa-f0-9]{6}$`)
	eanRegex   = regexp.MustCompile(`^[0-9]{13}$`)
)

func trimmedLen(raw string) int {
	return utf8.RuneCountInString(strings.TrimSpace(raw))
}

// IsNameValid 名称类字段（name/producer/filamentType）：去空白后至少 3 个字符
func IsNameValid(raw string) bool {
	return trimmedLen(raw) >= minNameLength
}

// IsDescriptionValid 描述：去空白后至少 10 个字符
func IsDescriptionValid(raw string) bool {
	return trimmedLen(raw) >= minDescriptionLength
}

// IsPackagingSizeValid 包装尺寸：去空白后非空
func IsPackagingSizeValid(raw string) bool {
	return strings.TrimSpace(raw) != ""
}

// ParseFloat 解析有限浮点数
func ParseFloat(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// IsTemperatureValid 温度：浮点数且 > 0
func IsTemperatureValid(raw string) bool {
	v, ok := ParseFloat(raw)
	return ok && v > 0
}

// IsQuantityValid 数量：浮点数且 >= 0
func IsQuantityValid(raw string) bool {
	v, ok := ParseFloat(raw)
	return ok && v >= 0
}

// ParsePrice 按原样精度解析价格；不做四舍五入
func ParsePrice(raw string) (decimal.Decimal, bool) {
	if raw == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// Scale 小数位数（负指数的相反数，整数或科学计数法时可能 <= 0）
func Scale(d decimal.Decimal) int32 {
	return -d.Exponent()
}

// IsPriceValid 价格类字段：精确小数、> 0、小数位不超过 2 位
func IsPriceValid(raw string) bool {
	d, ok := ParsePrice(raw)
	return ok && d.IsPositive() && Scale(d) <= maxPriceScale
}

// IsColorValid 颜色：# 加 6 位十六进制（大小写不敏感）
func IsColorValid(raw string) bool {
	return colorRegex.MatchString(raw)
}

// IsDimensionsValid 尺寸：按字面 x 切成恰好 3 段，每段去空白后可解析为浮点数
func IsDimensionsValid(raw string) bool {
	if raw == "" {
		return false
	}
	parts := strings.Split(raw, "x")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if _, ok := ParseFloat(p); !ok {
			return false
		}
	}
	return true
}

// IsEANValid EAN：恰好 13 位 ASCII 数字
func IsEANValid(raw string) bool {
	return eanRegex.MatchString(raw)
}

// ParsePrintTime 解析打印时长，hours >= 0 且 0 <= minutes <= 59
func ParsePrintTime(hoursRaw, minutesRaw string) (hours, minutes int, ok bool) {
	h, err := strconv.Atoi(strings.TrimSpace(hoursRaw))
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(minutesRaw))
	if err != nil {
		return 0, 0, false
	}
	if h < 0 || m < 0 || m >= 60 {
		return 0, 0, false
	}
	return h, m, true
}

// IsPrintTimeValid 见 ParsePrintTime
func IsPrintTimeValid(hoursRaw, minutesRaw string) bool {
	_, _, ok := ParsePrintTime(hoursRaw, minutesRaw)
	return ok
}

// ValidateName 名称类字段校验
func ValidateName(field, raw string) error {
	if !IsNameValid(raw) {
		return errors.NewInvalidValueError(field, raw)
	}
	return nil
}

// ValidatePrice 价格类字段校验
func ValidatePrice(field, raw string) error {
	if !IsPriceValid(raw) {
		return errors.NewInvalidValueError(field, raw)
	}
	return nil
}

// ValidateTemperature 温度字段校验
func ValidateTemperature(field, raw string) error {
	if !IsTemperatureValid(raw) {
		return errors.NewInvalidValueError(field, raw)
	}
	return nil
}

// ValidateQuantity 数量字段校验
func ValidateQuantity(field, raw string) error {
	if !IsQuantityValid(raw) {
		return errors.NewInvalidValueError(field, raw)
	}
	return nil
}

// Check 条件不成立时返回 field 的 INVALID_VALUE 错误
func Check(ok bool, field, raw string) error {
	if !ok {
		return errors.NewInvalidValueError(field, raw)
	}
	return nil
}

// FirstError 返回第一个非 nil 的错误，用于按固定顺序逐项校验
func FirstError(checks ...func() error) error {
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}
