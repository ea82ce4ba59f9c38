package roulette

import (
	"context"
	"errors"
	"sync"
	"time"

	"serotonyl.ru/gift-roulette/internal/common"
	"serotonyl.ru/gift-roulette/internal/telegram/initdata"
)

// memStore — in-memory замена БД. LockUser держит мьютекс строки пользователя
// до Commit/Rollback, как FOR UPDATE; записи видны другим только после Commit.
type memStore struct {
	mu      sync.Mutex
	users   map[int64]*User // по chat_id
	rows    map[int64]*sync.Mutex
	gifts   []GiftRecord
	history []HistoryEntry
	nextID  int64
	begins  int

	failOn string // "debit", "gift", "history", "commit"
}

func newMemStore(users ...User) *memStore {
	s := &memStore{
		users: make(map[int64]*User),
		rows:  make(map[int64]*sync.Mutex),
	}
	for _, u := range users {
		u := u
		s.users[u.ChatID] = &u
		s.rows[u.ChatID] = &sync.Mutex{}
	}
	return s
}

func (s *memStore) FindUser(_ context.Context, chatID int64) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[chatID]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) Begin(_ context.Context) (Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begins++
	return &memTx{store: s}, nil
}

func (s *memStore) balance(chatID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[chatID].StarsCount
}

func (s *memStore) counts() (gifts, history, begins int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.gifts), len(s.history), s.begins
}

type memTx struct {
	store  *memStore
	locked *sync.Mutex
	chatID int64
	done   bool

	debit   int64
	gifts   []GiftRecord
	history []HistoryEntry
}

var errInjected = errors.New("injected failure")

func (t *memTx) LockUser(_ context.Context, chatID int64) (*User, error) {
	t.store.mu.Lock()
	row, ok := t.store.rows[chatID]
	t.store.mu.Unlock()
	if !ok {
		return nil, common.ErrUserNotFound
	}

	row.Lock()
	t.locked = row
	t.chatID = chatID

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	cp := *t.store.users[chatID]
	return &cp, nil
}

func (t *memTx) Debit(_ context.Context, _ int64, amount int64) error {
	if t.store.failOn == "debit" {
		return errInjected
	}
	t.debit += amount
	return nil
}

func (t *memTx) InsertGift(_ context.Context, userID int64, giftNumber string) (int64, error) {
	if t.store.failOn == "gift" {
		return 0, errInjected
	}
	t.store.mu.Lock()
	t.store.nextID++
	id := t.store.nextID
	t.store.mu.Unlock()

	t.gifts = append(t.gifts, GiftRecord{ID: id, UserID: userID, GiftNumber: giftNumber, CreatedAt: time.Now()})
	return id, nil
}

func (t *memTx) InsertHistory(_ context.Context, userID, giftID, price int64) error {
	if t.store.failOn == "history" {
		return errInjected
	}
	t.history = append(t.history, HistoryEntry{UserID: userID, IDGiftNumber: giftID, Price: price, CreatedAt: time.Now()})
	return nil
}

func (t *memTx) Commit(_ context.Context) error {
	if t.store.failOn == "commit" {
		t.release()
		return errInjected
	}
	t.store.mu.Lock()
	if t.debit != 0 {
		t.store.users[t.chatID].StarsCount -= t.debit
	}
	t.store.gifts = append(t.store.gifts, t.gifts...)
	t.store.history = append(t.store.history, t.history...)
	t.store.mu.Unlock()

	t.release()
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	t.release()
	return nil
}

func (t *memTx) release() {
	if t.done {
		return
	}
	t.done = true
	if t.locked != nil {
		t.locked.Unlock()
	}
}

// stubVerifier узнаёт initData по заранее известным строкам: "" и "stale" дают
// свои ошибки, незнакомая строка — ErrAuth.
type stubVerifier struct {
	users map[string]int64
	calls int
	mu    sync.Mutex
}

func (v *stubVerifier) Verify(raw string) (*initdata.Identity, error) {
	v.mu.Lock()
	v.calls++
	v.mu.Unlock()

	switch raw {
	case "":
		return nil, common.ErrAuthRequired
	case "stale":
		return nil, common.ErrStaleAuth
	}
	id, ok := v.users[raw]
	if !ok {
		return nil, common.ErrAuth
	}
	return &initdata.Identity{UserID: id, AuthDate: time.Now()}, nil
}
