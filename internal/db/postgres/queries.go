// Package postgres — queries.go содержит миграции схемы и их применение.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migration — одна версия схемы.
type Migration struct {
	Version int
	SQL     string
}

// Migrations встроены в код для упрощения деплоя.
// Таблицы общие с ботом и мини-приложением, поэтому IF NOT EXISTS.
var Migrations = []Migration{
	{1, migration001Users},
	{2, migration002Gifts},
	{3, migration003History},
}

var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    id_user BIGSERIAL PRIMARY KEY,
    chat_id BIGINT UNIQUE NOT NULL,
    stars_count BIGINT NOT NULL DEFAULT 0 CHECK (stars_count >= 0),
    created_at TIMESTAMP DEFAULT NOW()
);
`

var migration002Gifts = `
CREATE TABLE IF NOT EXISTS gift_user_have (
    id_gift_number BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id_user),
    gift_number VARCHAR(64) NOT NULL,
    received BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_gift_user_have_user_id ON gift_user_have(user_id);
`

var migration003History = `
CREATE TABLE IF NOT EXISTS history_game (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id_user),
    id_gift_number BIGINT NOT NULL REFERENCES gift_user_have(id_gift_number),
    price BIGINT NOT NULL,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_history_game_user_id ON history_game(user_id);
CREATE INDEX IF NOT EXISTS idx_history_game_created_at ON history_game(created_at DESC);
`

// ExecMigrationSQL выполняет одну миграцию в транзакции и записывает её версию.
// Уже применённая миграция пропускается (applied = false).
func ExecMigrationSQL(ctx context.Context, pool *pgxpool.Pool, version int, sql string) (applied bool, err error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", version,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки миграции: %w", err)
	}
	if exists {
		return false, nil
	}

	if _, err := tx.Exec(ctx, sql); err != nil {
		return false, fmt.Errorf("ошибка выполнения миграции %d: %w", version, err)
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version) VALUES ($1)", version,
	); err != nil {
		return false, fmt.Errorf("ошибка записи версии миграции: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}
