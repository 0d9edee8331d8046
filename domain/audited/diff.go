package audited

import (
	"fmt"
	"reflect"

	"erpcatalog/domain"
	"erpcatalog/errors"
)

// Diff 按字段声明顺序比较同一类型实体的两个版本，只返回发生变化的字段。
//
// 两个版本类型不同或字段表不一致时返回 INTERNAL_ERROR。
func Diff(oldEntity, newEntity domain.IDescribedEntity) ([]ChangeDetail, error) {
	if oldEntity == nil || newEntity == nil {
		return nil, errors.NewInternalError("diff: entity is nil", nil)
	}
	if oldEntity.Kind() != newEntity.Kind() || reflect.TypeOf(oldEntity) != reflect.TypeOf(newEntity) {
		return nil, errors.NewInternalError(
			fmt.Sprintf("diff: entity kind mismatch: %s vs %s", oldEntity.Kind(), newEntity.Kind()), nil).
			WithContext(errors.DetailKind, string(oldEntity.Kind()))
	}

	oldFields, newFields := oldEntity.Describe(), newEntity.Describe()
	if len(oldFields) != len(newFields) {
		return nil, errors.NewInternalError(
			fmt.Sprintf("diff: %s describes %d fields, then %d", oldEntity.Kind(), len(oldFields), len(newFields)), nil)
	}

	details := make([]ChangeDetail, 0)
	for i, of := range oldFields {
		nf := newFields[i]
		if of.Name != nf.Name {
			return nil, errors.NewInternalError(
				fmt.Sprintf("diff: %s field %d is %q in old version and %q in new version", oldEntity.Kind(), i, of.Name, nf.Name), nil)
		}
		if domain.ValuesEqual(of.Value, nf.Value) {
			continue
		}
		details = append(details, ChangeDetail{
			FieldName: of.Name,
			OldValue:  domain.FormatValue(of.Value),
			NewValue:  domain.FormatValue(nf.Value),
		})
	}
	return details, nil
}
