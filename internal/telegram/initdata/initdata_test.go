package initdata

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"serotonyl.ru/gift-roulette/internal/common"
)

const testBotToken = "123456:TEST-token"

// sign подписывает поля так же, как Telegram подписывает initData мини-приложения.
func sign(t *testing.T, token string, fields map[string]string) string {
	t.Helper()

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+fields[k])
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(token))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))

	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}

func fields(userJSON string, authDate time.Time) map[string]string {
	f := map[string]string{
		"auth_date": strconv.FormatInt(authDate.Unix(), 10),
		"query_id":  "AAHdF6IQAAAAAN0XohDhrOrc",
	}
	if userJSON != "" {
		f["user"] = userJSON
	}
	return f
}

func TestVerifier_Verify(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	v := NewVerifier(testBotToken, 6000*time.Second, clock)

	valid := sign(t, testBotToken, fields(`{"id":279058397,"first_name":"Vlad"}`, now.Add(-time.Minute)))

	identity, err := v.Verify(valid)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if identity.UserID != 279058397 {
		t.Fatalf("unexpected user: got=%d want=279058397", identity.UserID)
	}
	if !identity.AuthDate.Equal(now.Add(-time.Minute)) {
		t.Fatalf("unexpected auth date: %v", identity.AuthDate)
	}

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", common.ErrAuthRequired},
		{"blank", "   ", common.ErrAuthRequired},
		{"wrong bot token", sign(t, "654321:OTHER", fields(`{"id":1}`, now)), common.ErrAuth},
		{"tampered", strings.Replace(valid, "279058397", "279058398", 1), common.ErrAuth},
		{"no hash", "auth_date=1&user=%7B%22id%22%3A1%7D", common.ErrAuth},
		{"stale", sign(t, testBotToken, fields(`{"id":1}`, now.Add(-6001*time.Second))), common.ErrStaleAuth},
		{"no user", sign(t, testBotToken, fields("", now)), common.ErrAuth},
		{"zero id", sign(t, testBotToken, fields(`{"id":0}`, now)), common.ErrAuth},
		{"bad auth_date", sign(t, testBotToken, map[string]string{"auth_date": "yesterday", "user": `{"id":1}`}), common.ErrAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.raw)
			if !errors.Is(err, tt.want) {
				t.Fatalf("unexpected err: got=%v want=%v", err, tt.want)
			}
		})
	}
}

func TestVerifier_MaxAgeBoundary(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := NewVerifier(testBotToken, time.Hour, func() time.Time { return now })

	edge := sign(t, testBotToken, fields(`{"id":5}`, now.Add(-time.Hour)))
	if _, err := v.Verify(edge); err != nil {
		t.Fatalf("initData exactly maxAge old must pass: %v", err)
	}
}

func TestFromAuthorizationHeader(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"tma query_id=1&hash=ab", "query_id=1&hash=ab"},
		{"TMA  query_id=1", "query_id=1"},
		{"Tma\tquery_id=1", "query_id=1"},
		{"query_id=1&hash=ab", "query_id=1&hash=ab"},
		{"tmaquery", "tmaquery"},
		{"  ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := FromAuthorizationHeader(tt.header); got != tt.want {
			t.Fatalf("FromAuthorizationHeader(%q): got=%q want=%q", tt.header, got, tt.want)
		}
	}
}
