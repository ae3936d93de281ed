package models

import "encoding/json"

// User представляет профиль сотрудника, который сервер возвращает при логине
// и который клиент кэширует под ключом "usuario".
type User struct {
	ID       int64  `json:"id"`                 // ID сотрудника на сервере
	DNI      string `json:"dni"`                // номер документа (логин)
	Nombre   string `json:"nombre,omitempty"`   // имя
	Apellido string `json:"apellido,omitempty"` // фамилия
	Email    string `json:"email,omitempty"`    // email
	Rol      string `json:"rol,omitempty"`      // роль (admin, recepcion, ...)
}

// DisplayName возвращает имя для отображения
func (u User) DisplayName() string {
	switch {
	case u.Nombre != "" && u.Apellido != "":
		return u.Nombre + " " + u.Apellido
	case u.Nombre != "":
		return u.Nombre
	default:
		return u.DNI
	}
}

// ParseUser декодирует профиль из сохраненного JSON
func ParseUser(raw string) (*User, error) {
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, err
	}
	return &u, nil
}
