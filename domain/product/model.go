// Package product 产品模型、部分更新规则、附件管理与产品服务。
package product

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"erpcatalog/domain"
	"erpcatalog/domain/accessory"
)

// PrintTime 打印时长
type PrintTime struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

func (p PrintTime) String() string {
	return fmt.Sprintf("%dh %02dm", p.Hours, p.Minutes)
}

// File 产品附件
type File struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

func (f File) Describe() []domain.Field {
	return []domain.Field{
		{Name: "id", Value: f.ID},
		{Name: "filename", Value: f.Filename},
		{Name: "data", Value: f.Data},
	}
}

func (f File) String() string {
	return fmt.Sprintf("File{id=%s, filename=%s, size=%d}", f.ID, f.Filename, len(f.Data))
}

func (f File) clone() File {
	f.Data = append([]byte(nil), f.Data...)
	return f
}

// AccessoryQuantity 产品使用的某个配件及其数量
type AccessoryQuantity struct {
	Quantity  float64             `json:"quantity"`
	Accessory accessory.Accessory `json:"accessory"`
}

func (a AccessoryQuantity) Describe() []domain.Field {
	return []domain.Field{
		{Name: "quantity", Value: a.Quantity},
		{Name: "accessory", Value: a.Accessory},
	}
}

func (a AccessoryQuantity) String() string {
	if a.Accessory == nil {
		return fmt.Sprintf("%v x <nil>", a.Quantity)
	}
	return fmt.Sprintf("%v x %s", a.Quantity, a.Accessory)
}

type accessoryQuantityJSON struct {
	Quantity  float64         `json:"quantity"`
	Kind      domain.Kind     `json:"kind"`
	Accessory json.RawMessage `json:"accessory"`
}

// MarshalJSON 附带配件类型，便于反序列化回具体类型
func (a AccessoryQuantity) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(a.Accessory)
	if err != nil {
		return nil, err
	}
	out := accessoryQuantityJSON{Quantity: a.Quantity, Accessory: raw}
	if a.Accessory != nil {
		out.Kind = a.Accessory.Kind()
	}
	return json.Marshal(out)
}

func (a *AccessoryQuantity) UnmarshalJSON(data []byte) error {
	var in accessoryQuantityJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	a.Quantity = in.Quantity
	a.Accessory = nil

	var target accessory.Accessory
	switch in.Kind {
	case domain.KindFilament:
		var v accessory.Filament
		if err := json.Unmarshal(in.Accessory, &v); err != nil {
			return err
		}
		target = v
	case domain.KindPackaging:
		var v accessory.Packaging
		if err := json.Unmarshal(in.Accessory, &v); err != nil {
			return err
		}
		target = v
	case domain.KindFasteners:
		var v accessory.Fasteners
		if err := json.Unmarshal(in.Accessory, &v); err != nil {
			return err
		}
		target = v
	case "":
		return nil
	default:
		return fmt.Errorf("unknown accessory kind %q", in.Kind)
	}
	a.Accessory = target
	return nil
}

// Product 产品
type Product struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	EAN          string              `json:"ean"`
	AccessoriesQ []AccessoryQuantity `json:"accessoriesQ"`
	PrintTime    PrintTime           `json:"printTime"`
	Price        decimal.Decimal     `json:"price"`
	AllegroTax   decimal.Decimal     `json:"allegroTax"`
	Description  string              `json:"description"`
	Preview      *File               `json:"preview,omitempty"`
	Files        []File              `json:"files"`
}

// MarshalJSON 价格保留小数位数
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		Price      string `json:"price"`
		AllegroTax string `json:"allegroTax"`
	}{plain(p), domain.FormatDecimal(p.Price), domain.FormatDecimal(p.AllegroTax)})
}

func (p Product) GetID() string     { return p.ID }
func (p Product) GetName() string   { return p.Name }
func (p Product) Kind() domain.Kind { return domain.KindProduct }

func (p Product) Describe() []domain.Field {
	return []domain.Field{
		{Name: "id", Value: p.ID},
		{Name: "name", Value: p.Name},
		{Name: "ean", Value: p.EAN},
		{Name: "accessoriesQ", Value: p.AccessoriesQ},
		{Name: "printTime", Value: p.PrintTime},
		{Name: "price", Value: p.Price},
		{Name: "allegroTax", Value: p.AllegroTax},
		{Name: "description", Value: p.Description},
		{Name: "preview", Value: p.Preview},
		{Name: "files", Value: p.Files},
	}
}

// with 返回拷贝，切片与附件内容都不与原值共享（nil 切片保持为 nil）
func (p Product) with(mutate func(*Product)) Product {
	next := p
	if p.AccessoriesQ != nil {
		next.AccessoriesQ = append(make([]AccessoryQuantity, 0, len(p.AccessoriesQ)), p.AccessoriesQ...)
	}
	if p.Files != nil {
		next.Files = make([]File, 0, len(p.Files))
		for _, f := range p.Files {
			next.Files = append(next.Files, f.clone())
		}
	}
	if p.Preview != nil {
		preview := p.Preview.clone()
		next.Preview = &preview
	}
	if mutate != nil {
		mutate(&next)
	}
	return next
}
