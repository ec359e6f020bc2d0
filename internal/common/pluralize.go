// Package common — pluralize.go содержит форматирование больших чисел.
// Суммы токенов хранятся как *big.Int (диапазон int128), поэтому
// разделители тысяч расставляются по строковому представлению.
package common

import (
	"math/big"
	"strings"
)

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(big.NewInt(2350)) → "2 350"
func FormatNumber(n *big.Int) string {
	if n == nil {
		return "0"
	}
	digits := n.String()
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign = "-"
		digits = digits[1:]
	}
	if len(digits) <= 3 {
		return sign + digits
	}

	var sb strings.Builder
	sb.WriteString(sign)
	head := len(digits) % 3
	if head > 0 {
		sb.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if sb.Len() > len(sign) {
			sb.WriteByte(' ')
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}
