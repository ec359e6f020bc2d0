package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/airdrop-bot/internal/common"
)

func TestParseRejectsUnknownCodes(t *testing.T) {
	for _, code := range []uint32{0, 4, 42} {
		_, err := Parse(code)
		assert.ErrorIs(t, err, common.ErrUnknownAction, "код %d", code)
	}

	for _, a := range All {
		got, err := Parse(a.Code())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
}

func TestParseName(t *testing.T) {
	cases := map[string]Action{
		"1":                SpinCube,
		"spin_cube":        SpinCube,
		"SpinCube":         SpinCube,
		"create-particles": CreateParticles,
		" change_theme ":   ChangeTheme,
		"3":                ChangeTheme,
	}
	for in, want := range cases {
		got, err := ParseName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "0", "7", "dance", "-1"} {
		_, err := ParseName(bad)
		assert.ErrorIs(t, err, common.ErrUnknownAction, bad)
	}
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "spin_cube", SpinCube.String())
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "action(9)", Action(9).String())
	assert.Equal(t, "Смена темы", ChangeTheme.Title())
}
