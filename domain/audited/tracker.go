package audited

import (
	"context"
	"time"

	"erpcatalog/domain"
	"erpcatalog/errors"
	"erpcatalog/logging"
)

// IChangeListener 审计记录追加成功后的回调（例如变更推送）。
// 回调失败只记录日志，不会撤销已写入的审计记录。
type IChangeListener interface {
	OnChange(ctx context.Context, entry ChangeLog) error
}

// ChangeListenerFunc 函数适配器
type ChangeListenerFunc func(ctx context.Context, entry ChangeLog) error

func (f ChangeListenerFunc) OnChange(ctx context.Context, entry ChangeLog) error {
	return f(ctx, entry)
}

// IChangeTracker 服务层使用的变更追踪接口
type IChangeTracker interface {
	LogCreate(ctx context.Context, e domain.IEntity) (ChangeLog, error)
	LogUpdate(ctx context.Context, oldEntity, newEntity domain.IDescribedEntity) (ChangeLog, bool, error)
	LogDelete(ctx context.Context, e domain.IEntity) (ChangeLog, error)
	GetAllChangeLogs(ctx context.Context) ([]ChangeLog, error)
}

var _ IChangeTracker = (*ChangeTracker)(nil)

// Option ChangeTracker 选项
type Option func(*ChangeTracker)

// WithClock 替换时间源
func WithClock(now func() time.Time) Option {
	return func(t *ChangeTracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithListener 注册变更监听器
func WithListener(l IChangeListener) Option {
	return func(t *ChangeTracker) {
		if l != nil {
			t.listeners = append(t.listeners, l)
		}
	}
}

// WithLogger 替换日志器
func WithLogger(l logging.Logger) Option {
	return func(t *ChangeTracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// ChangeTracker 变更追踪：记录创建、删除以及有实际字段变化的更新
type ChangeTracker struct {
	store     IAuditStore
	now       func() time.Time
	listeners []IChangeListener
	logger    logging.Logger
}

// NewChangeTracker 创建变更追踪器
func NewChangeTracker(store IAuditStore, opts ...Option) *ChangeTracker {
	t := &ChangeTracker{
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logging.ComponentLogger("audited.tracker"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// LogCreate 追加 CREATE 记录（无字段明细）
func (t *ChangeTracker) LogCreate(ctx context.Context, e domain.IEntity) (ChangeLog, error) {
	return t.append(ctx, newChangeLog(e, OperationCreate, t.now(), []ChangeDetail{}))
}

// LogDelete 追加 DELETE 记录（无字段明细）
func (t *ChangeTracker) LogDelete(ctx context.Context, e domain.IEntity) (ChangeLog, error) {
	return t.append(ctx, newChangeLog(e, OperationDelete, t.now(), []ChangeDetail{}))
}

// LogUpdate 比较新旧版本，有字段变化时追加 UPDATE 记录。
// 没有任何字段变化时不写记录，appended 为 false。
func (t *ChangeTracker) LogUpdate(ctx context.Context, oldEntity, newEntity domain.IDescribedEntity) (entry ChangeLog, appended bool, err error) {
	details, err := Diff(oldEntity, newEntity)
	if err != nil {
		t.logger.Error(ctx, "diff failed", logging.Error(err))
		return ChangeLog{}, false, err
	}
	if len(details) == 0 {
		t.logger.Debug(ctx, "no field changed, update not logged",
			logging.String("entity_kind", string(newEntity.Kind())),
			logging.String("entity_id", newEntity.GetID()))
		return ChangeLog{}, false, nil
	}
	entry, err = t.append(ctx, newChangeLog(newEntity, OperationUpdate, t.now(), details))
	if err != nil {
		return ChangeLog{}, false, err
	}
	return entry, true, nil
}

// GetAllChangeLogs 导出完整审计轨迹
func (t *ChangeTracker) GetAllChangeLogs(ctx context.Context) ([]ChangeLog, error) {
	logs, err := t.store.List(ctx)
	if err != nil {
		return nil, errors.Normalize(err)
	}
	return logs, nil
}

// GetEntityHistory 某个实体的审计轨迹
func (t *ChangeTracker) GetEntityHistory(ctx context.Context, entityID string) ([]ChangeLog, error) {
	logs, err := t.store.ListByEntity(ctx, entityID)
	if err != nil {
		return nil, errors.Normalize(err)
	}
	return logs, nil
}

func (t *ChangeTracker) append(ctx context.Context, entry ChangeLog) (ChangeLog, error) {
	stored, err := t.store.Append(ctx, entry)
	if err != nil {
		t.logger.Error(ctx, "append change log failed",
			logging.String("operation", string(entry.Operation)),
			logging.String("entity_id", entry.EntityID),
			logging.Error(err))
		return ChangeLog{}, errors.Normalize(err)
	}
	t.logger.Debug(ctx, "change log appended",
		logging.Int64("change_log_id", stored.ID),
		logging.String("operation", string(stored.Operation)),
		logging.String("entity_kind", string(stored.EntityKind)),
		logging.String("entity_id", stored.EntityID))

	for _, l := range t.listeners {
		if err := l.OnChange(ctx, stored.Clone()); err != nil {
			t.logger.Warn(ctx, "change listener failed",
				logging.Int64("change_log_id", stored.ID),
				logging.Error(err))
		}
	}
	return stored, nil
}
