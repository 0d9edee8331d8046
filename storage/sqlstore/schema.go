// Package sqlstore 基于 SQLite 的目录实体仓储与审计日志存储。
//
// 实体以 JSON 文档形式按 (kind, id) 存放在 catalog_entities 表，
// 列举顺序取 rowid（首次保存的顺序，覆盖保存不改变位置）。
package sqlstore

import (
	"context"

	"erpcatalog/storage/database"
)

const (
	entitiesTable   = "catalog_entities"
	changeLogsTable = "catalog_change_logs"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS catalog_entities (
		kind       TEXT NOT NULL,
		id         TEXT NOT NULL,
		name       TEXT NOT NULL,
		payload    TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (kind, id)
	)`,
	`CREATE TABLE IF NOT EXISTS catalog_change_logs (
		id          INTEGER PRIMARY KEY,
		entity_kind TEXT NOT NULL,
		entity_id   TEXT NOT NULL,
		entity_name TEXT NOT NULL,
		operation   TEXT NOT NULL,
		timestamp   TEXT NOT NULL,
		details     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_catalog_change_logs_entity ON catalog_change_logs (entity_id, id)`,
}

// Migrate 在一个事务内建表（幂等）
func Migrate(ctx context.Context, db database.IDatabase) error {
	return database.WithTx(ctx, db, func(tx database.ITransaction) error {
		for _, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}
