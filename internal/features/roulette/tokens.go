// Package roulette — tokens.go хранит одноразовые токены открытия кейса.
// Токен защищает от повторной отправки запроса: одна выдача — одна игра.
package roulette

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"serotonyl.ru/gift-roulette/internal/common"
)

// DefaultTokenTTL — сколько живёт токен (5 минут).
const DefaultTokenTTL = 5 * time.Minute

// tokenBytes — 32 байта из crypto/rand = 256 бит энтропии.
const tokenBytes = 32

// sessionToken — запись о выданном токене.
type sessionToken struct {
	userID   int64
	issuedAt time.Time
	used     bool
}

// TokenStore — общий для всех запросов реестр токенов.
// Проверка и пометка used выполняются под одним мьютексом: это единственная
// защита от двух параллельных запросов, которые оба увидели used=false.
// Фоновой очистки нет: TTL проверяется при погашении, просроченные удаляются при выдаче.
type TokenStore struct {
	mu     sync.Mutex
	tokens map[string]*sessionToken
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenStore создаёт реестр. now можно подменить в тестах (nil — time.Now).
func NewTokenStore(ttl time.Duration, now func() time.Time) *TokenStore {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &TokenStore{
		tokens: make(map[string]*sessionToken),
		ttl:    ttl,
		now:    now,
	}
}

// Issue выдаёт новый токен пользователю и заодно чистит просроченные.
func (s *TokenStore) Issue(userID int64) (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%w: генерация токена: %w", common.ErrInternal, err)
	}
	token := base64.RawURLEncoding.EncodeToString(b)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.tokens[token] = &sessionToken{userID: userID, issuedAt: now}

	for key, t := range s.tokens {
		if now.Sub(t.issuedAt) > s.ttl {
			delete(s.tokens, key)
		}
	}
	return token, nil
}

// Redeem атомарно проверяет токен (существует, принадлежит userID, не использован,
// не просрочен) и помечает его использованным.
func (s *TokenStore) Redeem(token string, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	switch {
	case !ok:
		return fmt.Errorf("%w: токен не найден", common.ErrToken)
	case t.userID != userID:
		return fmt.Errorf("%w: токен выдан другому пользователю", common.ErrToken)
	case t.used:
		return fmt.Errorf("%w: токен уже использован", common.ErrToken)
	case s.now().Sub(t.issuedAt) > s.ttl:
		return fmt.Errorf("%w: токен просрочен", common.ErrToken)
	}

	t.used = true
	return nil
}

// Release возвращает токен в состояние «не использован», если транзакция
// после погашения не дошла до коммита. Чужой или удалённый токен не трогаем.
func (s *TokenStore) Release(token string, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tokens[token]; ok && t.userID == userID {
		t.used = false
	}
}

// Len возвращает число токенов в реестре (включая ещё не вычищенные).
func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}
