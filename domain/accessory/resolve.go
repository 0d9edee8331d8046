package accessory

import (
	"erpcatalog/validation"
)

// FilamentFields 耗材的候选字段（原始字符串，空串表示未提供）
type FilamentFields struct {
	Name             string
	Producer         string
	FilamentType     string
	PrintTemperature string
	DeskTemperature  string
	PricePerKg       string
	Color            string
	Description      string
	Quantity         string
}

// PackagingFields 包装的候选字段
type PackagingFields struct {
	Name                string
	PackagingSize       string
	Dimensions          string
	NetPricePerQuantity string
	Quantity            string
	Description         string
}

// FastenersFields 紧固件的候选字段
type FastenersFields struct {
	Name                string
	NetPricePerQuantity string
	Quantity            string
	Description         string
}

// NewFilament 创建耗材：按字段声明顺序校验，遇到第一个不合法字段即返回 INVALID_VALUE。
// 描述为自由文本，创建时不校验。
func NewFilament(id string, in FilamentFields) (Filament, error) {
	err := validation.FirstError(
		func() error { return validation.ValidateName("name", in.Name) },
		func() error { return validation.ValidateName("producer", in.Producer) },
		func() error { return validation.ValidateName("filamentType", in.FilamentType) },
		func() error { return validation.ValidateTemperature("printTemperature", in.PrintTemperature) },
		func() error { return validation.ValidateTemperature("deskTemperature", in.DeskTemperature) },
		func() error { return validation.ValidatePrice("pricePerKg", in.PricePerKg) },
		func() error { return validation.Check(validation.IsColorValid(in.Color), "color", in.Color) },
		func() error { return validation.ValidateQuantity("quantity", in.Quantity) },
	)
	if err != nil {
		return Filament{}, err
	}

	printTemp, _ := validation.ParseFloat(in.PrintTemperature)
	deskTemp, _ := validation.ParseFloat(in.DeskTemperature)
	price, _ := validation.ParsePrice(in.PricePerKg)
	qty, _ := validation.ParseFloat(in.Quantity)

	return Filament{
		ID:               id,
		Name:             in.Name,
		Producer:         in.Producer,
		FilamentType:     in.FilamentType,
		PrintTemperature: printTemp,
		DeskTemperature:  deskTemp,
		PricePerKg:       price,
		Color:            in.Color,
		Description:      in.Description,
		Quantity:         qty,
	}, nil
}

// ResolveFilament 部分更新：每个字段独立判断，合法则采用候选值，否则保留原值。ID 始终沿用 existing。
func ResolveFilament(existing Filament, in FilamentFields) Filament {
	return Filament{
		ID:               existing.ID,
		Name:             validation.PickName(in.Name, existing.Name),
		Producer:         validation.PickName(in.Producer, existing.Producer),
		FilamentType:     validation.PickName(in.FilamentType, existing.FilamentType),
		PrintTemperature: validation.PickTemperature(in.PrintTemperature, existing.PrintTemperature),
		DeskTemperature:  validation.PickTemperature(in.DeskTemperature, existing.DeskTemperature),
		PricePerKg:       validation.PickPrice(in.PricePerKg, existing.PricePerKg),
		Color:            validation.PickString(validation.IsColorValid, in.Color, existing.Color),
		Description:      validation.PickString(validation.IsDescriptionValid, in.Description, existing.Description),
		Quantity:         validation.PickQuantity(in.Quantity, existing.Quantity),
	}
}

// NewPackaging 创建包装，校验顺序：name, packagingSize, dimensions, netPricePerQuantity, quantity
func NewPackaging(id string, in PackagingFields) (Packaging, error) {
	err := validation.FirstError(
		func() error { return validation.ValidateName("name", in.Name) },
		func() error {
			return validation.Check(validation.IsPackagingSizeValid(in.PackagingSize), "packagingSize", in.PackagingSize)
		},
		func() error {
			return validation.Check(validation.IsDimensionsValid(in.Dimensions), "dimensions", in.Dimensions)
		},
		func() error { return validation.ValidatePrice("netPricePerQuantity", in.NetPricePerQuantity) },
		func() error { return validation.ValidateQuantity("quantity", in.Quantity) },
	)
	if err != nil {
		return Packaging{}, err
	}

	price, _ := validation.ParsePrice(in.NetPricePerQuantity)
	qty, _ := validation.ParseFloat(in.Quantity)

	return Packaging{
		ID:                  id,
		Name:                in.Name,
		PackagingSize:       in.PackagingSize,
		Dimensions:          in.Dimensions,
		NetPricePerQuantity: price,
		Quantity:            qty,
		Description:         in.Description,
	}, nil
}

// ResolvePackaging 包装的部分更新
func ResolvePackaging(existing Packaging, in PackagingFields) Packaging {
	return Packaging{
		ID:                  existing.ID,
		Name:                validation.PickName(in.Name, existing.Name),
		PackagingSize:       validation.PickString(validation.IsPackagingSizeValid, in.PackagingSize, existing.PackagingSize),
		Dimensions:          validation.PickString(validation.IsDimensionsValid, in.Dimensions, existing.Dimensions),
		NetPricePerQuantity: validation.PickPrice(in.NetPricePerQuantity, existing.NetPricePerQuantity),
		Quantity:            validation.PickQuantity(in.Quantity, existing.Quantity),
		Description:         validation.PickString(validation.IsDescriptionValid, in.Description, existing.Description),
	}
}

// NewFasteners 创建紧固件，校验顺序：name, netPricePerQuantity, quantity
func NewFasteners(id string, in FastenersFields) (Fasteners, error) {
	err := validation.FirstError(
		func() error { return validation.ValidateName("name", in.Name) },
		func() error { return validation.ValidatePrice("netPricePerQuantity", in.NetPricePerQuantity) },
		func() error { return validation.ValidateQuantity("quantity", in.Quantity) },
	)
	if err != nil {
		return Fasteners{}, err
	}

	price, _ := validation.ParsePrice(in.NetPricePerQuantity)
	qty, _ := validation.ParseFloat(in.Quantity)

	return Fasteners{
		ID:                  id,
		Name:                in.Name,
		NetPricePerQuantity: price,
		Quantity:            qty,
		Description:         in.Description,
	}, nil
}

// ResolveFasteners 紧固件的部分更新
func ResolveFasteners(existing Fasteners, in FastenersFields) Fasteners {
	return Fasteners{
		ID:                  existing.ID,
		Name:                validation.PickName(in.Name, existing.Name),
		NetPricePerQuantity: validation.PickPrice(in.NetPricePerQuantity, existing.NetPricePerQuantity),
		Quantity:            validation.PickQuantity(in.Quantity, existing.Quantity),
		Description:         validation.PickString(validation.IsDescriptionValid, in.Description, existing.Description),
	}
}
