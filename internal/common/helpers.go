// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование сумм, работа с временем.
package common

import (
	"fmt"
	"math/big"
	"time"
)

// Pluralize возвращает правильную форму слова для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → one (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → few (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → many (0, 5-20, 25-30, 100, ...)
//
// Пример:
//
//	Pluralize(3, "выдача", "выдачи", "выдач") → "выдачи"
func Pluralize(n int64, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwoDigits := n % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}
	return many
}

// PluralizeClaims возвращает форму слова «выдача» для числа n.
func PluralizeClaims(n int64) string {
	return Pluralize(n, "выдача", "выдачи", "выдач")
}

// FormatAmount форматирует сумму токенов с разделителями тысяч и символом токена.
// Пример: FormatAmount(big.NewInt(20000000), "ZI") → "20 000 000 ZI"
func FormatAmount(amount *big.Int, symbol string) string {
	if amount == nil {
		amount = new(big.Int)
	}
	if symbol == "" {
		return FormatNumber(amount)
	}
	return fmt.Sprintf("%s %s", FormatNumber(amount), symbol)
}

// GetMoscowTime возвращает текущее время в часовом поясе Москвы (Europe/Moscow).
// Используется планировщиком для ежедневной сводки.
func GetMoscowTime() time.Time {
	return time.Now().In(MoscowLocation())
}

// MoscowLocation возвращает часовой пояс Europe/Moscow.
// Если tzdata недоступна — UTC+3 вручную.
func MoscowLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		loc = time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04" (день.месяц.год часы:минуты).
// Используется для отображения дат выдачи наград.
func FormatDateTime(t time.Time) string {
	return t.In(MoscowLocation()).Format("02.01.2006 15:04")
}
