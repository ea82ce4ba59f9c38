// Package common — helpers.go содержит склонение русских числительных
// для сообщений, которые видит игрок.
package common

import "fmt"

// PluralizeStars возвращает правильную форму слова «звезда» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "звезда" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "звезды" (2, 3, 4, 22, ...)
//   - Остальные случаи → "звёзд" (0, 5-20, 25-30, 100, ...)
func PluralizeStars(n int64) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwoDigits := n % 100

	// Единственное число: 1, 21, 31, 101 (но НЕ 11, 111)
	if lastDigit == 1 && lastTwoDigits != 11 {
		return "звезда"
	}

	// Малое множественное: 2-4, 22-24 (но НЕ 12-14)
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "звезды"
	}

	return "звёзд"
}

// FormatStars форматирует сумму: FormatStars(150) → "150 звёзд".
func FormatStars(n int64) string {
	return fmt.Sprintf("%d %s", n, PluralizeStars(n))
}
