// Package roulette реализует открытие кейсов: одноразовые токены, взвешенный
// выбор подарка и атомарное списание звёзд с записью подарка и истории.
// models.go описывает структуры данных рулетки.
package roulette

import "time"

// User — игрок из таблицы users. Баланс в звёздах никогда не уходит в минус.
type User struct {
	ID         int64 `db:"id_user"`     // Внутренний ID
	ChatID     int64 `db:"chat_id"`     // Telegram user ID
	StarsCount int64 `db:"stars_count"` // Баланс звёзд
}

// GiftRecord — выигранный подарок (таблица gift_user_have).
// Received меняет бот при выдаче подарка, рулетка всегда пишет FALSE.
type GiftRecord struct {
	ID         int64     `db:"id_gift_number"`
	UserID     int64     `db:"user_id"`
	GiftNumber string    `db:"gift_number"`
	Received   bool      `db:"received"`
	CreatedAt  time.Time `db:"created_at"`
}

// HistoryEntry — запись об игре (таблица history_game).
type HistoryEntry struct {
	ID           int64     `db:"id"`
	UserID       int64     `db:"user_id"`
	IDGiftNumber int64     `db:"id_gift_number"`
	Price        int64     `db:"price"`
	CreatedAt    time.Time `db:"created_at"`
}

// StartRequest — тело POST /roulette/start.
type StartRequest struct {
	CaseType string `json:"caseType" validate:"required"`
	Token    string `json:"token" validate:"required"`
}

// StartResult — результат успешного открытия кейса.
type StartResult struct {
	IDGiftNumber int64  `json:"idGiftNumber"`
	GiftNumber   string `json:"giftNumber"`
}
