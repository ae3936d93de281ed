package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// DNIPattern определяет допустимый формат DNI
// 7-8 цифр, опционально одна контрольная буква в конце (12345678Z)
var DNIPattern = regexp.MustCompile(`^[0-9]{7,8}[A-Za-z]?$`)

const (
	// MaxPasswordLen максимальная длина пароля
	MaxPasswordLen = 128
)

// NormalizeDNI убирает пробелы, точки и дефисы, которые часто вводят вручную
// (30.111.222, 12345678-Z), и приводит букву к верхнему регистру
func NormalizeDNI(dni string) string {
	dni = strings.TrimSpace(dni)
	dni = strings.NewReplacer(".", "", "-", "", " ", "").Replace(dni)
	return strings.ToUpper(dni)
}

// ValidateDNI проверяет DNI после нормализации
func ValidateDNI(dni string) error {
	dni = NormalizeDNI(dni)

	if dni == "" {
		return fmt.Errorf("dni cannot be empty")
	}

	if !DNIPattern.MatchString(dni) {
		return fmt.Errorf("dni must contain 7-8 digits and an optional control letter")
	}

	return nil
}

// ValidatePassword проверяет пароль перед отправкой на сервер.
// Правила сложности задает сервер, здесь только пустота и длина.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if len(password) > MaxPasswordLen {
		return fmt.Errorf("password must not exceed %d characters", MaxPasswordLen)
	}

	return nil
}
