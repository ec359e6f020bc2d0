// Package common — amount.go содержит проверки сумм токенов.
// Суммы знаковые и должны укладываться в диапазон int128
// (так их понимает сервис переводов).
package common

import (
	"fmt"
	"math/big"
	"strings"
)

var (
	// MaxInt128 — 2^127 - 1
	MaxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	// MinInt128 — -2^127
	MinInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// InInt128 проверяет, что сумма укладывается в int128.
func InInt128(v *big.Int) bool {
	if v == nil {
		return false
	}
	return v.Cmp(MinInt128) >= 0 && v.Cmp(MaxInt128) <= 0
}

// ParseAmount разбирает десятичную сумму. Разрешены разделители "_" и пробелы
// внутри числа ("20_000_000", "20 000 000").
func ParseAmount(s string) (*big.Int, error) {
	clean := strings.NewReplacer("_", "", " ", "").Replace(strings.TrimSpace(s))
	if clean == "" {
		return nil, fmt.Errorf("%w: пустая сумма", ErrInvalidAmount)
	}
	v, ok := new(big.Int).SetString(clean, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q не число", ErrInvalidAmount, s)
	}
	if !InInt128(v) {
		return nil, fmt.Errorf("%w: %s вне диапазона int128", ErrInvalidAmount, clean)
	}
	return v, nil
}
