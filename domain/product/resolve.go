package product

import (
	"fmt"
	"math"
	"strings"

	"erpcatalog/validation"
)

// AccessoryRef 产品字段中的配件引用（数量 + 配件 ID）
type AccessoryRef struct {
	Quantity    float64 `json:"quantity"`
	AccessoryID string  `json:"accessoryId"`
}

// Fields 产品的候选字段。AccessoriesQ 为 nil 表示未提供。
type Fields struct {
	Name         string
	EAN          string
	AccessoriesQ []AccessoryRef
	PrintHours   string
	PrintMinutes string
	Price        string
	AllegroTax   string
	Description  string
}

// AccessoryLookup 把引用解析为具体配件，引用不存在时返回 NOT_FOUND
type AccessoryLookup func(ref AccessoryRef) (AccessoryQuantity, error)

// IsAccessoriesValid 配件列表非空，每项数量为有限正数且 ID 非空白
func IsAccessoriesValid(refs []AccessoryRef) bool {
	if len(refs) == 0 {
		return false
	}
	for _, r := range refs {
		if !(r.Quantity > 0) || math.IsInf(r.Quantity, 0) || strings.TrimSpace(r.AccessoryID) == "" {
			return false
		}
	}
	return true
}

func formatRefs(refs []AccessoryRef) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = fmt.Sprintf("%v x %s", r.Quantity, r.AccessoryID)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Validate 按字段声明顺序校验创建请求：name, ean, accessoriesQ, printTime, price, allegroTax。
// 描述为自由文本，创建时不校验。
func (in Fields) Validate() error {
	return validation.FirstError(
		func() error { return validation.ValidateName("name", in.Name) },
		func() error { return validation.Check(validation.IsEANValid(in.EAN), "ean", in.EAN) },
		func() error {
			return validation.Check(IsAccessoriesValid(in.AccessoriesQ), "accessoriesQ", formatRefs(in.AccessoriesQ))
		},
		func() error {
			return validation.Check(validation.IsPrintTimeValid(in.PrintHours, in.PrintMinutes),
				"printTime", in.PrintHours+":"+in.PrintMinutes)
		},
		func() error { return validation.ValidatePrice("price", in.Price) },
		func() error { return validation.ValidatePrice("allegroTax", in.AllegroTax) },
	)
}

func resolveRefs(refs []AccessoryRef, lookup AccessoryLookup) ([]AccessoryQuantity, error) {
	out := make([]AccessoryQuantity, 0, len(refs))
	for _, r := range refs {
		aq, err := lookup(r)
		if err != nil {
			return nil, err
		}
		out = append(out, aq)
	}
	return out, nil
}

// NewProduct 创建产品：先校验全部字段（INVALID_VALUE），再解析配件引用（NOT_FOUND）。
// 新产品没有预览图与附件。
func NewProduct(id string, in Fields, lookup AccessoryLookup) (Product, error) {
	if err := in.Validate(); err != nil {
		return Product{}, err
	}
	accessories, err := resolveRefs(in.AccessoriesQ, lookup)
	if err != nil {
		return Product{}, err
	}

	hours, minutes, _ := validation.ParsePrintTime(in.PrintHours, in.PrintMinutes)
	price, _ := validation.ParsePrice(in.Price)
	tax, _ := validation.ParsePrice(in.AllegroTax)

	return Product{
		ID:           id,
		Name:         in.Name,
		EAN:          in.EAN,
		AccessoriesQ: accessories,
		PrintTime:    PrintTime{Hours: hours, Minutes: minutes},
		Price:        price,
		AllegroTax:   tax,
		Description:  in.Description,
		Files:        make([]File, 0),
	}, nil
}

// ResolveProduct 部分更新：每个字段独立取舍，预览图与附件保持不变。
// 配件列表合法时会重新解析引用，解析失败（如 NOT_FOUND）原样返回。
func ResolveProduct(existing Product, in Fields, lookup AccessoryLookup) (Product, error) {
	var accessories []AccessoryQuantity
	if IsAccessoriesValid(in.AccessoriesQ) {
		resolved, err := resolveRefs(in.AccessoriesQ, lookup)
		if err != nil {
			return Product{}, err
		}
		accessories = resolved
	}

	return existing.with(func(p *Product) {
		p.Name = validation.PickName(in.Name, existing.Name)
		p.EAN = validation.PickString(validation.IsEANValid, in.EAN, existing.EAN)
		if accessories != nil {
			p.AccessoriesQ = accessories
		}
		if h, m, ok := validation.ParsePrintTime(in.PrintHours, in.PrintMinutes); ok {
			p.PrintTime = PrintTime{Hours: h, Minutes: m}
		}
		p.Price = validation.PickPrice(in.Price, existing.Price)
		p.AllegroTax = validation.PickPrice(in.AllegroTax, existing.AllegroTax)
		p.Description = validation.PickString(validation.IsDescriptionValid, in.Description, existing.Description)
	}), nil
}

// WithPreview 替换预览图
func (p Product) WithPreview(f File) Product {
	return p.with(func(next *Product) {
		preview := f.clone()
		next.Preview = &preview
	})
}

// WithFile 追加附件
func (p Product) WithFile(f File) Product {
	return p.with(func(next *Product) {
		next.Files = append(next.Files, f.clone())
	})
}

// WithoutFile 移除指定 ID 的附件；不存在时返回内容相同的拷贝
func (p Product) WithoutFile(fileID string) Product {
	return p.with(func(next *Product) {
		kept := next.Files[:0]
		for _, f := range next.Files {
			if f.ID != fileID {
				kept = append(kept, f)
			}
		}
		next.Files = kept
	})
}
