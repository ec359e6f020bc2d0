package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type named string

func (n named) String() string { return string(n) }

func TestNewKeyIsUnambiguous(t *testing.T) {
	a := NewKey(TierInstance, "claim", "ab", "c")
	b := NewKey(TierInstance, "claim", "a", "bc")
	assert.NotEqual(t, a, b)

	// Строка "1" и число 1 — разные части
	assert.NotEqual(t, NewKey(TierConfig, "reward", "1"), NewKey(TierConfig, "reward", uint32(1)))

	// Один и тот же ключ в разных уровнях различается
	assert.NotEqual(t, NewKey(TierConfig, "admin"), NewKey(TierInstance, "admin"))
}

func TestKeyString(t *testing.T) {
	k := NewKey(TierInstance, "claim", named("tg:42"), uint32(3))
	assert.Equal(t, "instance/claim/tg:42/3", k.String())
	assert.Equal(t, TierInstance, k.Tier())

	assert.Equal(t, "config/balance/ZI/treasury", NewKey(TierConfig, "balance", "ZI", "treasury").String())
	assert.Equal(t, "", Key(nil).String())
}

func TestNewKeyPanicsOnUnsupportedPart(t *testing.T) {
	assert.Panics(t, func() { NewKey(TierConfig, "x", 3.14) })
	assert.Panics(t, func() { NewKey(TierConfig, "x", int64(-1)) })
}
