// Package actions описывает действия, за которые выдаётся награда.
//
// Набор действий закрыт: каждому соответствует фиксированный код на проводе.
// Неизвестные коды отклоняются с common.ErrUnknownAction, никакого
// «действия по умолчанию».
package actions

import (
	"fmt"
	"strconv"
	"strings"

	"serotonyl.ru/airdrop-bot/internal/common"
)

// Action — действие пользователя.
type Action uint32

const (
	// None — ни одно действие не выполнено (используется в статусе)
	None            Action = 0
	SpinCube        Action = 1
	CreateParticles Action = 2
	ChangeTheme     Action = 3
)

// All — все действия в порядке кодов.
var All = []Action{SpinCube, CreateParticles, ChangeTheme}

var names = map[Action]string{
	SpinCube:        "spin_cube",
	CreateParticles: "create_particles",
	ChangeTheme:     "change_theme",
}

var titles = map[Action]string{
	SpinCube:        "Вращение куба",
	CreateParticles: "Создание частиц",
	ChangeTheme:     "Смена темы",
}

// Parse преобразует код с провода в действие.
func Parse(code uint32) (Action, error) {
	a := Action(code)
	if !a.Valid() {
		return None, fmt.Errorf("%w: код %d", common.ErrUnknownAction, code)
	}
	return a, nil
}

// ParseName принимает код ("1") или имя ("spin_cube", "SpinCube", "spin-cube").
func ParseName(s string) (Action, error) {
	s = strings.TrimSpace(s)
	if code, err := strconv.ParseUint(s, 10, 32); err == nil {
		return Parse(uint32(code))
	}
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
	for a, name := range names {
		if strings.ReplaceAll(name, "_", "") == norm {
			return a, nil
		}
	}
	return None, fmt.Errorf("%w: %q", common.ErrUnknownAction, s)
}

// Valid — действие из закрытого набора.
func (a Action) Valid() bool {
	_, ok := names[a]
	return ok
}

// Code — код действия на проводе.
func (a Action) Code() uint32 { return uint32(a) }

// String — имя действия ("spin_cube"); для None — "none".
func (a Action) String() string {
	if name, ok := names[a]; ok {
		return name
	}
	if a == None {
		return "none"
	}
	return "action(" + strconv.FormatUint(uint64(a), 10) + ")"
}

// Title — название для сообщений пользователю.
func (a Action) Title() string {
	if title, ok := titles[a]; ok {
		return title
	}
	return a.String()
}
