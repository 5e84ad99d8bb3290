package domain

import "time"

// User representa una cuenta del chat. El password se guarda tal cual
// llega y la comparación en login es exacta (ver AuthService).
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
