// Package initdata проверяет initData, которые Telegram передаёт мини-приложению.
// Подпись сверяется с токеном бота, затем проверяется свежесть auth_date.
package initdata

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	tu "github.com/mymmrac/telego/telegoutil"

	"serotonyl.ru/gift-roulette/internal/common"
)

// Identity — проверенный пользователь и время авторизации.
type Identity struct {
	UserID   int64
	AuthDate time.Time
}

// webAppUser — поле user из initData (JSON). Нужен только id.
type webAppUser struct {
	ID int64 `json:"id"`
}

// Verifier проверяет подпись и возраст initData.
type Verifier struct {
	botToken string
	maxAge   time.Duration
	now      func() time.Time
}

// NewVerifier создаёт проверяльщик. now можно подменить в тестах (nil — time.Now).
func NewVerifier(botToken string, maxAge time.Duration, now func() time.Time) *Verifier {
	if now == nil {
		now = time.Now
	}
	return &Verifier{botToken: botToken, maxAge: maxAge, now: now}
}

// Verify возвращает личность пользователя из initData.
//
// Ошибки:
//   - common.ErrAuthRequired — пустые initData
//   - common.ErrAuth — подпись не сошлась, нет auth_date или user.id
//   - common.ErrStaleAuth — auth_date старше maxAge
func (v *Verifier) Verify(raw string) (*Identity, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, common.ErrAuthRequired
	}

	values, err := tu.ValidateWebAppData(v.botToken, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: подпись initData не прошла проверку: %v", common.ErrAuth, err)
	}

	authUnix, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: некорректный auth_date", common.ErrAuth)
	}
	authDate := time.Unix(authUnix, 0)
	if v.now().Sub(authDate) > v.maxAge {
		return nil, common.ErrStaleAuth
	}

	var user webAppUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return nil, fmt.Errorf("%w: не удалось определить ID пользователя", common.ErrAuth)
	}

	return &Identity{UserID: user.ID, AuthDate: authDate}, nil
}

// FromAuthorizationHeader достаёт initData из заголовка "Authorization: tma <initData>".
// Префикс не чувствителен к регистру; без префикса возвращается весь заголовок.
func FromAuthorizationHeader(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= 3 && strings.EqualFold(header[:3], "tma") {
		rest := header[3:]
		if trimmed := strings.TrimLeft(rest, " \t"); len(trimmed) < len(rest) {
			return trimmed
		}
	}
	return header
}
