// Package members ведёт реестр участников сообщества.
// Награды выдаются только участникам основного чата, поэтому бот
// запоминает всех, кого видел в чате или проверил через Telegram API.
package members

import "time"

// Member — участник сообщества.
type Member struct {
	UserID    int64     `json:"user_id"`    // Telegram user ID
	Username  string    `json:"username"`   // @username (может быть пустым)
	FirstName string    `json:"first_name"` // Имя пользователя
	LastName  string    `json:"last_name"`  // Фамилия (может быть пустой)
	JoinedAt  time.Time `json:"joined_at"`  // Когда бот впервые увидел участника
	UpdatedAt time.Time `json:"updated_at"` // Последнее обновление записи
}

// DisplayName возвращает отображаемое имя пользователя.
// Если есть @username, возвращает его, иначе имя и фамилию.
func (m *Member) DisplayName() string {
	if m.Username != "" {
		return "@" + m.Username
	}
	name := m.FirstName
	if m.LastName != "" {
		name += " " + m.LastName
	}
	return name
}
