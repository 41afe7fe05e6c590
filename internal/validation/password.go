package validation

import (
	"fmt"
	"unicode"
)

// MinAdminPasswordLength минимальная длина пароля администратора в production.
const MinAdminPasswordLength = 8

// ValidatePassword проверяет пароль администратора, заданный в конфигурации:
// длина и наличие заглавной буквы, строчной буквы и цифры.
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinAdminPasswordLength {
		return fmt.Errorf("пароль администратора должен быть не менее %d символов", MinAdminPasswordLength)
	}

	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	switch {
	case !hasUpper:
		return fmt.Errorf("пароль администратора должен содержать заглавную букву")
	case !hasLower:
		return fmt.Errorf("пароль администратора должен содержать строчную букву")
	case !hasNumber:
		return fmt.Errorf("пароль администратора должен содержать цифру")
	}

	return nil
}
