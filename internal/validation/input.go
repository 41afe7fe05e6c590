package validation

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ignatzorin/delivery-backend/internal/pkg/apperror"
)

// Сообщения, которые видит клиент формы.
const (
	MsgNameRequired        = "Le nom est requis"
	MsgPhoneRequired       = "Le téléphone est requis"
	MsgPhoneInvalid        = "Format de téléphone invalide"
	MsgDescriptionRequired = "La description est requise"
	MsgCategoryRequired    = "Veuillez sélectionner une catégorie"
	MsgCategoryUnknown     = "Catégorie inconnue"
	MsgBudgetInvalid       = "Le budget doit être supérieur à 0"
	MsgImageInvalid        = "Image invalide"
	MsgImageTooLarge       = "Image trop volumineuse"
)

var phoneRegex = regexp.MustCompile(`^[0-9+\-\s()]+$`)

// FieldErrors копит ошибки по полям, чтобы вернуть их все сразу.
type FieldErrors map[string]string

// Add запоминает первую ошибку поля; последующие для того же поля игнорируются.
func (f FieldErrors) Add(field, message string) {
	if _, exists := f[field]; !exists {
		f[field] = message
	}
}

// Check добавляет ошибку, если err не nil.
func (f FieldErrors) Check(field string, err error) {
	if err != nil {
		f.Add(field, err.Error())
	}
}

// Err возвращает ошибку валидации или nil, если ошибок нет.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return apperror.Validation(f)
}

// ValidateNonEmpty проверяет, что строка не пустая после обрезки пробелов.
func ValidateNonEmpty(value, message string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(message)
	}
	return nil
}

// ValidatePhone проверяет номер телефона: цифры, пробелы, +, -, скобки.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return errors.New(MsgPhoneRequired)
	}
	if !phoneRegex.MatchString(phone) {
		return errors.New(MsgPhoneInvalid)
	}
	return nil
}

// ParseBudget разбирает бюджет из строки. Допустимо только конечное число больше нуля.
func ParseBudget(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New(MsgBudgetInvalid)
	}

	budget, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(budget) || math.IsInf(budget, 0) || budget <= 0 {
		return 0, errors.New(MsgBudgetInvalid)
	}

	return budget, nil
}

// ValidateEmail выполняет грубую проверку формата email перед походом в базу.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return errors.New("email обязателен")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || !strings.Contains(parts[1], ".") {
		return errors.New("некорректный формат email")
	}

	return nil
}
