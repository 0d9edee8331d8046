package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcatalog/errors"
)

func TestRules(t *testing.T) {
	tests := []struct {
		name string
		rule func(string) bool
		raw  string
		want bool
	}{
		{name: "名称-有效", rule: IsNameValid, raw: "PLA", want: true},
		{name: "名称-去空白后过短", rule: IsNameValid, raw: "  ab  ", want: false},
		{name: "名称-空", rule: IsNameValid, raw: "", want: false},
		{name: "描述-10字符", rule: IsDescriptionValid, raw: "0123456789", want: true},
		{name: "描述-去空白后9字符", rule: IsDescriptionValid, raw: " 012345678 ", want: false},
		{name: "包装尺寸-有效", rule: IsPackagingSizeValid, raw: "M", want: true},
		{name: "包装尺寸-空白", rule: IsPackagingSizeValid, raw: "   ", want: false},
		{name: "温度-有效", rule: IsTemperatureValid, raw: "200.0", want: true},
		{name: "温度-零", rule: IsTemperatureValid, raw: "0", want: false},
		{name: "温度-非数字", rule: IsTemperatureValid, raw: "hot", want: false},
		{name: "温度-NaN", rule: IsTemperatureValid, raw: "NaN", want: false},
		{name: "数量-零", rule: IsQuantityValid, raw: "0", want: true},
		{name: "数量-负数", rule: IsQuantityValid, raw: "-1", want: false},
		{name: "价格-两位小数", rule: IsPriceValid, raw: "19.99", want: true},
		{name: "价格-整数", rule: IsPriceValid, raw: "20", want: true},
		{name: "价格-三位小数", rule: IsPriceValid, raw: "19.999", want: false},
		{name: "价格-尾随零也算精度", rule: IsPriceValid, raw: "1.000", want: false},
		{name: "价格-零", rule: IsPriceValid, raw: "0.00", want: false},
		{name: "价格-负数", rule: IsPriceValid, raw: "-5", want: false},
		{name: "价格-科学计数法", rule: IsPriceValid, raw: "1e2", want: true},
		{name: "价格-非法", rule: IsPriceValid, raw: "abc", want: false},
		{name: "颜色-大写", rule: IsColorValid, raw: "#FFFFFF", want: true},
		{name: "颜色-小写", rule: IsColorValid, raw: "#a1b2c3", want: true},
		{name: "颜色-缺少井号", rule: IsColorValid, raw: "ZZZZZZ", want: false},
		{name: "颜色-非十六进制", rule: IsColorValid, raw: "#GGGGGG", want: false},
		{name: "颜色-过长", rule: IsColorValid, raw: "#FFFFFFF", want: false},
		{name: "尺寸-三段", rule: IsDimensionsValid, raw: "15x25x10", want: true},
		{name: "尺寸-带空白和小数", rule: IsDimensionsValid, raw: " 1.5 x 2 x 3 ", want: true},
		{name: "尺寸-两段", rule: IsDimensionsValid, raw: "15x25", want: false},
		{name: "尺寸-末尾多一个分隔符", rule: IsDimensionsValid, raw: "15x25x10x", want: false},
		{name: "尺寸-大写X不是分隔符", rule: IsDimensionsValid, raw: "15X25X10", want: false},
		{name: "尺寸-非数字", rule: IsDimensionsValid, raw: "axbxc", want: false},
		{name: "EAN-13位", rule: IsEANValid, raw: "5901234123457", want: true},
		{name: "EAN-12位", rule: IsEANValid, raw: "590123412345", want: false},
		{name: "EAN-含字母", rule: IsEANValid, raw: "590123412345A", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule(tt.raw), "raw=%q", tt.raw)
		})
	}
}

func TestParsePrice_PreservesScale(t *testing.T) {
	d, ok := ParsePrice("19.90")
	require.True(t, ok)
	assert.Equal(t, int32(2), Scale(d))
	assert.Equal(t, "19.9", d.String())
	assert.Equal(t, "19.90", d.StringFixed(Scale(d)))
}

func TestParsePrintTime(t *testing.T) {
	tests := []struct {
		name           string
		hours, minutes string
		wantOK         bool
	}{
		{name: "有效", hours: "2", minutes: "30", wantOK: true},
		{name: "零时长", hours: "0", minutes: "0", wantOK: true},
		{name: "分钟边界59", hours: "1", minutes: "59", wantOK: true},
		{name: "分钟60", hours: "1", minutes: "60", wantOK: false},
		{name: "负小时", hours: "-1", minutes: "0", wantOK: false},
		{name: "缺少分钟", hours: "1", minutes: "", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantOK, IsPrintTimeValid(tt.hours, tt.minutes))
		})
	}
}

func TestValidate_ReturnsInvalidValue(t *testing.T) {
	err := ValidatePrice("pricePerKg", "1.234")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidValue(err))

	field, raw, ok := errors.Field(err)
	require.True(t, ok)
	assert.Equal(t, "pricePerKg", field)
	assert.Equal(t, "1.234", raw)

	assert.NoError(t, ValidateName("name", "PLA 1kg"))
	assert.Error(t, ValidateTemperature("deskTemperature", "-3"))
	assert.Error(t, ValidateQuantity("quantity", "x"))
	assert.NoError(t, Check(true, "x", "y"))
}

func TestFirstError_StopsAtFirstFailure(t *testing.T) {
	calls := 0
	err := FirstError(
		func() error { calls++; return nil },
		func() error { calls++; return ValidateName("producer", "X") },
		func() error { calls++; return ValidateName("filamentType", "Y") },
	)
	field, _, _ := errors.Field(err)
	assert.Equal(t, "producer", field)
	assert.Equal(t, 2, calls)
}

func TestFileRules(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		filename  string
		preview   bool
		wantField string
	}{
		{name: "普通附件", data: []byte("x"), filename: "model.stl"},
		{name: "空内容", data: nil, filename: "model.stl", wantField: "file"},
		{name: "空文件名", data: []byte("x"), filename: " ", wantField: "filename"},
		{name: "无扩展名", data: []byte("x"), filename: "model", wantField: "filename"},
		{name: "点在末尾", data: []byte("x"), filename: "model.", wantField: "filename"},
		{name: "预览图-大写扩展名", data: []byte("x"), filename: "shot.PNG", preview: true},
		{name: "预览图-tif", data: []byte("x"), filename: "scan.tif", preview: true},
		{name: "预览图-不支持的格式", data: []byte("x"), filename: "model.stl", preview: true, wantField: "preview"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.preview {
				err = ValidatePreviewFile(tt.data, tt.filename)
			} else {
				err = ValidateFile(tt.data, tt.filename)
			}
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			field, _, ok := errors.Field(err)
			require.True(t, ok, "err=%v", err)
			assert.Equal(t, tt.wantField, field)
		})
	}
}

func TestPick(t *testing.T) {
	current := decimal.RequireFromString("10.00")

	assert.Equal(t, "Widget", PickName("Widget", "Old"))
	assert.Equal(t, "Old", PickName("ab", "Old"))
	assert.Equal(t, "Old", PickName("", "Old"))

	assert.Equal(t, 210.0, PickTemperature("210", 200))
	assert.Equal(t, 200.0, PickTemperature("-5", 200))
	assert.Equal(t, 0.0, PickQuantity("0", 5))
	assert.Equal(t, 5.0, PickQuantity("many", 5))

	assert.Equal(t, "24.50", PickPrice("24.50", current).StringFixed(2))
	assert.True(t, PickPrice("1.234", current).Equal(current))
	assert.True(t, PickPrice("", current).Equal(current))

	assert.Equal(t, "#00FF00", PickString(IsColorValid, "#00FF00", "#FFFFFF"))
	assert.Equal(t, "#FFFFFF", PickString(IsColorValid, "green", "#FFFFFF"))
}
