package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	stdErrors "errors"
	"time"

	"erpcatalog/domain"
	"erpcatalog/domain/crud"
	"erpcatalog/storage/database"
	"erpcatalog/storage/database/basic"
)

// Repository 以 JSON 文档保存单一类型实体的 SQL 仓储
type Repository[T domain.IEntity] struct {
	db   database.IDatabase
	kind domain.Kind
	now  func() time.Time
}

var _ crud.IRepository[domain.IEntity] = (*Repository[domain.IEntity])(nil)

// NewRepository 创建 kind 类型实体的仓储，表需已通过 Migrate 创建。
// 价格以 decimal 的 JSON 形式保存，末尾的 0 不保留（数值不变）。
func NewRepository[T domain.IEntity](db database.IDatabase, kind domain.Kind) *Repository[T] {
	return &Repository[T]{
		db:   db,
		kind: kind,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *Repository[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	var payload string
	err := r.db.QueryRow(ctx,
		`SELECT payload FROM `+entitiesTable+` WHERE kind = ? AND id = ?`,
		string(r.kind), id,
	).Scan(&payload)
	if stdErrors.Is(err, sql.ErrNoRows) {
		return zero, domain.NewEntityNotFoundError(r.kind, id)
	}
	if err != nil {
		return zero, domain.NewRepositoryFailedError("get "+string(r.kind), err)
	}
	return r.decode(payload)
}

func (r *Repository[T]) Save(ctx context.Context, e T) error {
	if e.GetID() == "" {
		return domain.ErrInvalidID
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return domain.NewRepositoryFailedError("encode "+string(r.kind), err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO `+entitiesTable+` (kind, id, name, payload, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (kind, id) DO UPDATE SET name = excluded.name, payload = excluded.payload, updated_at = excluded.updated_at`,
		string(r.kind), e.GetID(), e.GetName(), string(payload), r.now().Format(time.RFC3339Nano),
	)
	if err != nil {
		return domain.NewRepositoryFailedError("save "+string(r.kind), err)
	}
	return nil
}

func (r *Repository[T]) List(ctx context.Context) ([]T, error) {
	query, args := basic.NewSelect("payload").
		From(entitiesTable).
		Where("kind = ?", string(r.kind)).
		OrderBy("rowid", false).
		Build()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.NewRepositoryFailedError("list "+string(r.kind), err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, domain.NewRepositoryFailedError("list "+string(r.kind), err)
		}
		e, err := r.decode(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewRepositoryFailedError("list "+string(r.kind), err)
	}
	return out, nil
}

func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx,
		`DELETE FROM `+entitiesTable+` WHERE kind = ? AND id = ?`,
		string(r.kind), id,
	)
	if err != nil {
		return domain.NewRepositoryFailedError("delete "+string(r.kind), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewRepositoryFailedError("delete "+string(r.kind), err)
	}
	if n == 0 {
		return domain.NewEntityNotFoundError(r.kind, id)
	}
	return nil
}

func (r *Repository[T]) decode(payload string) (T, error) {
	var e T
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return e, domain.NewRepositoryFailedError("decode "+string(r.kind), err)
	}
	return e, nil
}
