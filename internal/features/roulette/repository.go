// Package roulette — repository.go работает с таблицами users, gift_user_have и history_game.
// Списание, подарок и запись истории выполняются в одной транзакции БД.
package roulette

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/gift-roulette/internal/common"
)

// Repository предоставляет доступ к пользователям и открывает транзакции игры.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий рулетки.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// FindUser возвращает пользователя по Telegram ID.
// Если не найден — common.ErrUserNotFound.
func (r *Repository) FindUser(ctx context.Context, chatID int64) (*User, error) {
	query := `SELECT id_user, chat_id, stars_count FROM users WHERE chat_id = $1`
	var u User
	err := r.db.QueryRow(ctx, query, chatID).Scan(&u.ID, &u.ChatID, &u.StarsCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка чтения пользователя (chat_id=%d): %w", chatID, err)
	}
	return &u, nil
}

// Begin открывает транзакцию. Соединение берётся из пула и возвращается
// в него на Commit или Rollback.
func (r *Repository) Begin(ctx context.Context) (Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

// pgTx — транзакция игры поверх pgx.Tx.
type pgTx struct {
	tx pgx.Tx
}

// LockUser читает пользователя с блокировкой строки FOR UPDATE до конца транзакции.
// Параллельные игры одного пользователя выстраиваются в очередь на этой блокировке.
func (t *pgTx) LockUser(ctx context.Context, chatID int64) (*User, error) {
	var u User
	err := t.tx.QueryRow(ctx, `
		SELECT id_user, chat_id, stars_count FROM users WHERE chat_id = $1 FOR UPDATE
	`, chatID).Scan(&u.ID, &u.ChatID, &u.StarsCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка блокировки пользователя: %w", err)
	}
	return &u, nil
}

// Debit списывает звёзды. Баланс уже проверен под блокировкой,
// CHECK (stars_count >= 0) в схеме страхует от ухода в минус.
func (t *pgTx) Debit(ctx context.Context, userID, amount int64) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE users SET stars_count = stars_count - $1 WHERE id_user = $2
	`, amount, userID)
	if err != nil {
		return fmt.Errorf("ошибка списания: %w", err)
	}
	return nil
}

// InsertGift записывает выигранный подарок (received = FALSE) и возвращает его ID.
func (t *pgTx) InsertGift(ctx context.Context, userID int64, giftNumber string) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO gift_user_have (user_id, gift_number, received)
		VALUES ($1, $2, FALSE)
		RETURNING id_gift_number
	`, userID, giftNumber).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка записи подарка: %w", err)
	}
	return id, nil
}

// InsertHistory записывает игру в историю.
func (t *pgTx) InsertHistory(ctx context.Context, userID, giftID, price int64) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO history_game (user_id, id_gift_number, price)
		VALUES ($1, $2, $3)
	`, userID, giftID, price)
	if err != nil {
		return fmt.Errorf("ошибка записи истории: %w", err)
	}
	return nil
}

func (t *pgTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback после Commit безопасен: pgx вернёт ErrTxClosed, его игнорируем.
func (t *pgTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
