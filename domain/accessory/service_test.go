package accessory

import (
	"context"
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcatalog/domain"
	"erpcatalog/domain/audited"
	"erpcatalog/domain/crud"
	"erpcatalog/errors"
	"erpcatalog/logging"
)

func sequentialIDs(prefix string) domain.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func strPtr(s string) *string { return &s }

type fixture struct {
	svc     *Service
	store   *audited.MemoryAuditStore
	tracker *audited.ChangeTracker
	repos   Repositories
}

func newFixture() fixture {
	store := audited.NewMemoryAuditStore()
	tracker := audited.NewChangeTracker(store, audited.WithLogger(logging.NewNoopLogger()))
	repos := NewMemoryRepositories()
	svc := NewService(repos, tracker, WithIDGenerator(sequentialIDs("acc")), WithLogger(logging.NewNoopLogger()))
	return fixture{svc: svc, store: store, tracker: tracker, repos: repos}
}

func plaFields() FilamentFields {
	return FilamentFields{
		Name:             "PLA 1kg",
		Producer:         "XYZ",
		FilamentType:     "PLA",
		PrintTemperature: "200.0",
		DeskTemperature:  "60.0",
		PricePerKg:       "19.99",
		Color:            "#FFFFFF",
		Description:      "x",
		Quantity:         "100.0",
	}
}

func (f fixture) logs(t *testing.T) []audited.ChangeLog {
	t.Helper()
	logs, err := f.tracker.GetAllChangeLogs(context.Background())
	require.NoError(t, err)
	return logs
}

func TestSaveFilament_ThenPartialUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	saved, err := f.svc.SaveFilament(ctx, plaFields())
	require.NoError(t, err)
	assert.Equal(t, Filament{
		ID:               "acc-1",
		Name:             "PLA 1kg",
		Producer:         "XYZ",
		FilamentType:     "PLA",
		PrintTemperature: 200,
		DeskTemperature:  60,
		PricePerKg:       decimal.RequireFromString("19.99"),
		Color:            "#FFFFFF",
		Description:      "x",
		Quantity:         100,
	}, saved)

	logs := f.logs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, audited.OperationCreate, logs[0].Operation)
	assert.Empty(t, logs[0].Details)

	updated, err := f.svc.UpdateFilament(ctx, saved.ID, FilamentFields{Color: "ZZZZZZ", Name: "New PLA"})
	require.NoError(t, err)
	assert.Equal(t, "New PLA", updated.Name)
	assert.Equal(t, "#FFFFFF", updated.Color)
	assert.Equal(t, saved.ID, updated.ID)

	logs = f.logs(t)
	require.Len(t, logs, 2)
	assert.Equal(t, audited.OperationUpdate, logs[1].Operation)
	require.Len(t, logs[1].Details, 1)
	assert.Equal(t, "name", logs[1].Details[0].FieldName)
	assert.Equal(t, "PLA 1kg", *logs[1].Details[0].OldValue)
	assert.Equal(t, "New PLA", *logs[1].Details[0].NewValue)

	stored, err := f.repos.Filaments.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, stored)
}

func TestSaveFilament_FailsFastInDeclaredOrder(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*FilamentFields)
		wantField string
		wantRaw   string
	}{
		{name: "名称过短", mutate: func(f *FilamentFields) { f.Name = "ab" }, wantField: "name", wantRaw: "ab"},
		{name: "名称与生产商都不合法时报告名称", mutate: func(f *FilamentFields) { f.Name = ""; f.Producer = "" }, wantField: "name", wantRaw: ""},
		{name: "生产商过短", mutate: func(f *FilamentFields) { f.Producer = "XY" }, wantField: "producer", wantRaw: "XY"},
		{name: "耗材类型缺失", mutate: func(f *FilamentFields) { f.FilamentType = " " }, wantField: "filamentType", wantRaw: " "},
		{name: "打印温度为零", mutate: func(f *FilamentFields) { f.PrintTemperature = "0" }, wantField: "printTemperature", wantRaw: "0"},
		{name: "热床温度非数字", mutate: func(f *FilamentFields) { f.DeskTemperature = "warm" }, wantField: "deskTemperature", wantRaw: "warm"},
		{name: "价格三位小数", mutate: func(f *FilamentFields) { f.PricePerKg = "19.999" }, wantField: "pricePerKg", wantRaw: "19.999"},
		{name: "颜色缺少井号", mutate: func(f *FilamentFields) { f.Color = "FFFFFF" }, wantField: "color", wantRaw: "FFFFFF"},
		{name: "数量为负", mutate: func(f *FilamentFields) { f.Quantity = "-1" }, wantField: "quantity", wantRaw: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture()
			in := plaFields()
			tt.mutate(&in)

			_, err := f.svc.SaveFilament(ctx, in)
			require.Error(t, err)
			field, raw, ok := errors.Field(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantField, field)
			assert.Equal(t, tt.wantRaw, raw)

			all, _ := f.svc.GetAllFilaments(ctx)
			assert.Empty(t, all, "校验失败时不落库")
			assert.Empty(t, f.logs(t), "校验失败时不写审计")
		})
	}
}

func TestUpdateFilament_InvalidFieldsRetainPriorValues(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	saved, err := f.svc.SaveFilament(ctx, plaFields())
	require.NoError(t, err)

	updated, err := f.svc.UpdateFilament(ctx, saved.ID, FilamentFields{
		Name:             "no",
		Producer:         "  ",
		PrintTemperature: "-10",
		PricePerKg:       "0.001",
		Color:            "#12345",
		Description:      "too short",
		Quantity:         "-5",
	})
	require.NoError(t, err)
	assert.Equal(t, saved, updated)
	assert.Len(t, f.logs(t), 1, "无变化不写 UPDATE")
}

func TestUpdateFilament_AllValidIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	saved, err := f.svc.SaveFilament(ctx, plaFields())
	require.NoError(t, err)

	in := FilamentFields{
		Name:             "PETG 1kg",
		Producer:         "Prusament",
		FilamentType:     "PETG",
		PrintTemperature: "240",
		DeskTemperature:  "85",
		PricePerKg:       "24.50",
		Color:            "#ff8800",
		Description:      "tough and glossy",
		Quantity:         "0",
	}
	first, err := f.svc.UpdateFilament(ctx, saved.ID, in)
	require.NoError(t, err)
	assert.Equal(t, Filament{
		ID:               saved.ID,
		Name:             "PETG 1kg",
		Producer:         "Prusament",
		FilamentType:     "PETG",
		PrintTemperature: 240,
		DeskTemperature:  85,
		PricePerKg:       decimal.RequireFromString("24.50"),
		Color:            "#ff8800",
		Description:      "tough and glossy",
		Quantity:         0,
	}, first)

	logs := f.logs(t)
	require.Len(t, logs, 2)
	assert.Len(t, logs[1].Details, 9, "除 id 外全部字段都变化")
	assert.Equal(t, "24.50", *logs[1].Details[5].NewValue)

	second, err := f.svc.UpdateFilament(ctx, saved.ID, in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, f.logs(t), 2, "第二次相同更新不写审计")
}

func TestUpdateFilament_PriceScaleChangeIsLogged(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	in := plaFields()
	in.PricePerKg = "19.9"
	saved, err := f.svc.SaveFilament(ctx, in)
	require.NoError(t, err)

	updated, err := f.svc.UpdateFilament(ctx, saved.ID, FilamentFields{PricePerKg: "19.90"})
	require.NoError(t, err)
	assert.Equal(t, "19.90", domain.FormatDecimal(updated.PricePerKg))

	logs := f.logs(t)
	require.Len(t, logs, 2, "保存的文本变了就要有审计")
	assert.Equal(t, []audited.ChangeDetail{{
		FieldName: "pricePerKg",
		OldValue:  strPtr("19.9"),
		NewValue:  strPtr("19.90"),
	}}, logs[1].Details)

	_, err = f.svc.UpdateFilament(ctx, saved.ID, FilamentFields{PricePerKg: "19.90"})
	require.NoError(t, err)
	assert.Len(t, f.logs(t), 2)
}

func TestUpdate_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.svc.UpdateFilament(ctx, "missing", plaFields())
	assert.True(t, errors.IsNotFound(err))
	_, err = f.svc.UpdatePackaging(ctx, "missing", PackagingFields{})
	assert.True(t, errors.IsNotFound(err))
	_, err = f.svc.UpdateFasteners(ctx, "missing", FastenersFields{})
	assert.True(t, errors.IsNotFound(err))
	assert.Empty(t, f.logs(t))
}

func TestSavePackaging(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	in := PackagingFields{
		Name:                "Box S",
		PackagingSize:       "S",
		Dimensions:          "15x25",
		NetPricePerQuantity: "0.50",
		Quantity:            "10",
	}

	_, err := f.svc.SavePackaging(ctx, in)
	field, raw, ok := errors.Field(err)
	require.True(t, ok)
	assert.Equal(t, "dimensions", field)
	assert.Equal(t, "15x25", raw)

	in.Dimensions = "15x25x10"
	saved, err := f.svc.SavePackaging(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "15x25x10", saved.Dimensions)
	assert.Equal(t, "0.50", saved.NetPricePerQuantity.StringFixed(2))

	updated, err := f.svc.UpdatePackaging(ctx, saved.ID, PackagingFields{
		Dimensions:  "1x2",
		Quantity:    "12",
		Description: "cardboard box with foam insert",
	})
	require.NoError(t, err)
	assert.Equal(t, "15x25x10", updated.Dimensions)
	assert.Equal(t, 12.0, updated.Quantity)
	assert.Equal(t, "cardboard box with foam insert", updated.Description)

	logs := f.logs(t)
	require.Len(t, logs, 2)
	names := []string{logs[1].Details[0].FieldName, logs[1].Details[1].FieldName}
	assert.Equal(t, []string{"quantity", "description"}, names)
}

func TestSaveFasteners(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.svc.SaveFasteners(ctx, FastenersFields{Name: "M3 screw", NetPricePerQuantity: "0", Quantity: "100"})
	field, _, _ := errors.Field(err)
	assert.Equal(t, "netPricePerQuantity", field)

	saved, err := f.svc.SaveFasteners(ctx, FastenersFields{Name: "M3 screw", NetPricePerQuantity: "0.05", Quantity: "100"})
	require.NoError(t, err)

	updated, err := f.svc.UpdateFasteners(ctx, saved.ID, FastenersFields{NetPricePerQuantity: "0.04"})
	require.NoError(t, err)
	assert.True(t, updated.NetPricePerQuantity.Equal(decimal.RequireFromString("0.04")))
	assert.Equal(t, "M3 screw", updated.Name)
}

func TestGetAllAccessoriesAndResolve(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	fil, err := f.svc.SaveFilament(ctx, plaFields())
	require.NoError(t, err)
	pkg, err := f.svc.SavePackaging(ctx, PackagingFields{Name: "Box", PackagingSize: "M", Dimensions: "1x2x3", NetPricePerQuantity: "1", Quantity: "1"})
	require.NoError(t, err)
	fas, err := f.svc.SaveFasteners(ctx, FastenersFields{Name: "Nut", NetPricePerQuantity: "0.01", Quantity: "0"})
	require.NoError(t, err)

	grouped, err := f.svc.GetAllAccessories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Filament{fil}, grouped.Filaments)
	assert.Equal(t, []Packaging{pkg}, grouped.Packaging)
	assert.Equal(t, []Fasteners{fas}, grouped.Fasteners)

	for _, want := range []Accessory{fil, pkg, fas} {
		got, err := f.svc.ResolveAccessory(ctx, want.GetID())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err = f.svc.ResolveAccessory(ctx, "nope")
	assert.True(t, errors.IsNotFound(err))
}

type brokenFilaments struct {
	crud.IRepository[Filament]
}

func (brokenFilaments) Get(ctx context.Context, id string) (Filament, error) {
	return Filament{}, stdErrors.New("connection reset")
}

func (brokenFilaments) Save(ctx context.Context, e Filament) error {
	return domain.NewRepositoryFailedError("save", stdErrors.New("connection reset"))
}

func TestStoreFailuresPropagate(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.repos.Filaments = brokenFilaments{f.repos.Filaments}
	svc := NewService(f.repos, f.tracker, WithLogger(logging.NewNoopLogger()))

	_, err := svc.ResolveAccessory(ctx, "x")
	assert.EqualError(t, err, "connection reset", "非 NOT_FOUND 的存储错误原样返回")

	_, err = svc.SaveFilament(ctx, plaFields())
	assert.Equal(t, errors.ErrCodeDatabase, errors.GetErrorCode(err))
	assert.Empty(t, f.logs(t), "保存失败时不写审计")
}
