// Package accessory 配件（耗材、包装、紧固件）的模型、部分更新规则与服务。
package accessory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"erpcatalog/domain"
)

// Accessory 三种配件的和类型，只能由本包内的类型实现
type Accessory interface {
	domain.IDescribedEntity
	isAccessory()
}

// Filament 耗材
type Filament struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Producer         string          `json:"producer"`
	FilamentType     string          `json:"filamentType"`
	PrintTemperature float64         `json:"printTemperature"`
	DeskTemperature  float64         `json:"deskTemperature"`
	PricePerKg       decimal.Decimal `json:"pricePerKg"`
	Color            string          `json:"color"`
	Description      string          `json:"description"`
	Quantity         float64         `json:"quantity"`
}

// Packaging 包装
type Packaging struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	PackagingSize       string          `json:"packagingSize"`
	Dimensions          string          `json:"dimensions"`
	NetPricePerQuantity decimal.Decimal `json:"netPricePerQuantity"`
	Quantity            float64         `json:"quantity"`
	Description         string          `json:"description"`
}

// Fasteners 紧固件
type Fasteners struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	NetPricePerQuantity decimal.Decimal `json:"netPricePerQuantity"`
	Quantity            float64         `json:"quantity"`
	Description         string          `json:"description"`
}

func (Filament) isAccessory()  {}
func (Packaging) isAccessory() {}
func (Fasteners) isAccessory() {}

func (f Filament) GetID() string     { return f.ID }
func (f Filament) GetName() string   { return f.Name }
func (f Filament) Kind() domain.Kind { return domain.KindFilament }

func (p Packaging) GetID() string     { return p.ID }
func (p Packaging) GetName() string   { return p.Name }
func (p Packaging) Kind() domain.Kind { return domain.KindPackaging }

func (f Fasteners) GetID() string     { return f.ID }
func (f Fasteners) GetName() string   { return f.Name }
func (f Fasteners) Kind() domain.Kind { return domain.KindFasteners }

func (f Filament) Describe() []domain.Field {
	return []domain.Field{
		{Name: "id", Value: f.ID},
		{Name: "name", Value: f.Name},
		{Name: "producer", Value: f.Producer},
		{Name: "filamentType", Value: f.FilamentType},
		{Name: "printTemperature", Value: f.PrintTemperature},
		{Name: "deskTemperature", Value: f.DeskTemperature},
		{Name: "pricePerKg", Value: f.PricePerKg},
		{Name: "color", Value: f.Color},
		{Name: "description", Value: f.Description},
		{Name: "quantity", Value: f.Quantity},
	}
}

func (p Packaging) Describe() []domain.Field {
	return []domain.Field{
		{Name: "id", Value: p.ID},
		{Name: "name", Value: p.Name},
		{Name: "packagingSize", Value: p.PackagingSize},
		{Name: "dimensions", Value: p.Dimensions},
		{Name: "netPricePerQuantity", Value: p.NetPricePerQuantity},
		{Name: "quantity", Value: p.Quantity},
		{Name: "description", Value: p.Description},
	}
}

func (f Fasteners) Describe() []domain.Field {
	return []domain.Field{
		{Name: "id", Value: f.ID},
		{Name: "name", Value: f.Name},
		{Name: "netPricePerQuantity", Value: f.NetPricePerQuantity},
		{Name: "quantity", Value: f.Quantity},
		{Name: "description", Value: f.Description},
	}
}

func (f Filament) String() string  { return describeRef(f) }
func (p Packaging) String() string { return describeRef(p) }
func (f Fasteners) String() string { return describeRef(f) }

func describeRef(a Accessory) string {
	return fmt.Sprintf("%s{id=%s, name=%s}", a.Kind(), a.GetID(), a.GetName())
}

// Grouped 按类型分组的全部配件
type Grouped struct {
	Filaments []Filament  `json:"filaments"`
	Packaging []Packaging `json:"packaging"`
	Fasteners []Fasteners `json:"fasteners"`
}

// 价格按 domain.FormatDecimal 序列化，重新加载后保留小数位数

func (f Filament) MarshalJSON() ([]byte, error) {
	type plain Filament
	return json.Marshal(struct {
		plain
		PricePerKg string `json:"pricePerKg"`
	}{plain(f), domain.FormatDecimal(f.PricePerKg)})
}

func (p Packaging) MarshalJSON() ([]byte, error) {
	type plain Packaging
	return json.Marshal(struct {
		plain
		NetPricePerQuantity string `json:"netPricePerQuantity"`
	}{plain(p), domain.FormatDecimal(p.NetPricePerQuantity)})
}

func (f Fasteners) MarshalJSON() ([]byte, error) {
	type plain Fasteners
	return json.Marshal(struct {
		plain
		NetPricePerQuantity string `json:"netPricePerQuantity"`
	}{plain(f), domain.FormatDecimal(f.NetPricePerQuantity)})
}
