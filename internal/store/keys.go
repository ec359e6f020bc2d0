// Package store — keys.go кодирует составные ключи.
//
// Ключ = уровень хранения (tier) + имя + части (строки и числа).
// Кодирование бинарное и однозначное: каждая часть предваряется
// типом и длиной, поэтому ("ab","c") и ("a","bc") дают разные ключи.
package store

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Tier — уровень хранения.
type Tier byte

const (
	// TierConfig — долгоживущая конфигурация и балансы
	TierConfig Tier = 'c'
	// TierInstance — данные экземпляра (отметки о выдаче, сессии)
	TierInstance Tier = 'i'
)

func (t Tier) String() string {
	switch t {
	case TierConfig:
		return "config"
	case TierInstance:
		return "instance"
	default:
		return "tier(" + strconv.Itoa(int(t)) + ")"
	}
}

const (
	partString byte = 's'
	partUint   byte = 'u'
)

// Key — закодированный составной ключ.
type Key []byte

// NewKey собирает ключ. Поддерживаются части типов string, uint32, uint64, int64 и
// fmt.Stringer. Другие типы считаются ошибкой программиста (panic).
func NewKey(tier Tier, name string, parts ...any) Key {
	buf := make([]byte, 0, 16+len(name))
	buf = append(buf, byte(tier))
	buf = appendString(buf, name)
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			buf = appendString(buf, v)
		case uint32:
			buf = appendUint(buf, uint64(v))
		case uint64:
			buf = appendUint(buf, v)
		case int64:
			if v < 0 {
				panic(fmt.Sprintf("store: отрицательная часть ключа %d", v))
			}
			buf = appendUint(buf, uint64(v))
		case fmt.Stringer:
			buf = appendString(buf, v.String())
		default:
			panic(fmt.Sprintf("store: неподдерживаемая часть ключа %T", p))
		}
	}
	return Key(buf)
}

// Tier возвращает уровень хранения ключа.
func (k Key) Tier() Tier {
	if len(k) == 0 {
		return 0
	}
	return Tier(k[0])
}

// String — читаемое представление для логов, например "config/reward/1".
func (k Key) String() string {
	if len(k) == 0 {
		return ""
	}
	parts := []string{k.Tier().String()}
	rest := []byte(k[1:])
	for len(rest) > 0 {
		kind := rest[0]
		rest = rest[1:]
		switch kind {
		case partString:
			n, sz := binary.Uvarint(rest)
			if sz <= 0 || uint64(len(rest)-sz) < n {
				return fmt.Sprintf("%x", []byte(k))
			}
			parts = append(parts, string(rest[sz:sz+int(n)]))
			rest = rest[sz+int(n):]
		case partUint:
			if len(rest) < 8 {
				return fmt.Sprintf("%x", []byte(k))
			}
			parts = append(parts, strconv.FormatUint(binary.BigEndian.Uint64(rest[:8]), 10))
			rest = rest[8:]
		default:
			return fmt.Sprintf("%x", []byte(k))
		}
	}
	return strings.Join(parts, "/")
}

func appendString(buf []byte, s string) []byte {
	buf = append(buf, partString)
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

// Числа кодируются big-endian фиксированной длины, чтобы порядок ключей
// совпадал с числовым.
func appendUint(buf []byte, v uint64) []byte {
	buf = append(buf, partUint)
	return binary.BigEndian.AppendUint64(buf, v)
}
