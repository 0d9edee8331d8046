package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"erpcatalog/domain"
	"erpcatalog/domain/audited"
	"erpcatalog/errors"
	"erpcatalog/storage/database"
)

// AuditStore SQLite 审计日志存储。
//
// ID 在进程内的互斥锁下分配，并在同一把锁内完成插入，
// 插入失败时计数器不前进，保证 ID 连续。打开时从 MAX(id) 继续编号。
type AuditStore struct {
	db     database.IDatabase
	mu     sync.Mutex
	nextID int64
}

var _ audited.IAuditStore = (*AuditStore)(nil)

// NewAuditStore 打开审计存储，表需已通过 Migrate 创建
func NewAuditStore(ctx context.Context, db database.IDatabase) (*AuditStore, error) {
	var maxID sql.NullInt64
	if err := db.QueryRow(ctx, `SELECT MAX(id) FROM `+changeLogsTable).Scan(&maxID); err != nil {
		return nil, errors.WrapDbError(ctx, err, "load audit sequence")
	}
	return &AuditStore{db: db, nextID: maxID.Int64 + 1}, nil
}

func (s *AuditStore) Append(ctx context.Context, entry audited.ChangeLog) (audited.ChangeLog, error) {
	entry = entry.Clone()
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return audited.ChangeLog{}, errors.NewInternalError("encode change details", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = s.nextID
	_, err = s.db.Exec(ctx,
		`INSERT INTO `+changeLogsTable+` (id, entity_kind, entity_id, entity_name, operation, timestamp, details)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, string(entry.EntityKind), entry.EntityID, entry.EntityName,
		string(entry.Operation), entry.Timestamp.UTC().Format(time.RFC3339Nano), string(details),
	)
	if err != nil {
		return audited.ChangeLog{}, domain.NewRepositoryFailedError("append change log", err)
	}
	s.nextID++
	return entry, nil
}

func (s *AuditStore) List(ctx context.Context) ([]audited.ChangeLog, error) {
	return s.query(ctx, "", nil)
}

func (s *AuditStore) ListByEntity(ctx context.Context, entityID string) ([]audited.ChangeLog, error) {
	return s.query(ctx, "WHERE entity_id = ?", []any{entityID})
}

func (s *AuditStore) query(ctx context.Context, where string, args []any) ([]audited.ChangeLog, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, entity_kind, entity_id, entity_name, operation, timestamp, details FROM `+
			changeLogsTable+` `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, domain.NewRepositoryFailedError("list change logs", err)
	}
	defer rows.Close()

	out := make([]audited.ChangeLog, 0)
	for rows.Next() {
		entry, err := scanChangeLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewRepositoryFailedError("list change logs", err)
	}
	return out, nil
}

func scanChangeLog(row database.IRow) (audited.ChangeLog, error) {
	var (
		entry            audited.ChangeLog
		kind, op, ts, ds string
	)
	if err := row.Scan(&entry.ID, &kind, &entry.EntityID, &entry.EntityName, &op, &ts, &ds); err != nil {
		return entry, domain.NewRepositoryFailedError("scan change log", err)
	}
	at, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return entry, domain.NewRepositoryFailedError("parse change log timestamp", err)
	}
	entry.EntityKind = domain.Kind(kind)
	entry.Operation = audited.Operation(op)
	entry.Timestamp = at
	if err := json.Unmarshal([]byte(ds), &entry.Details); err != nil {
		return entry, domain.NewRepositoryFailedError("decode change details", err)
	}
	return entry.Clone(), nil
}
