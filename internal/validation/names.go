package validation

import (
	"fmt"
	"regexp"
)

// AppIDPattern определяет допустимый формат идентификатора приложения.
// Латинские буквы, цифры, точка, дефис и нижнее подчеркивание, 1-128 символов
var AppIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{1,128}$`)

// KindPattern определяет формат имени типа сущности: "theme", "bookmark", ...
// Строчные буквы, цифры и нижнее подчеркивание, начинается с буквы, 2-32 символа
var KindPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,31}$`)

// FieldNamePattern определяет формат имени поля схемы (camelCase как у пиров)
var FieldNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{0,63}$`)

const (
	// MaxAppIDLen максимальная длина app id
	MaxAppIDLen = 128
)

// ValidateAppID проверяет идентификатор приложения
func ValidateAppID(appID string) error {
	if appID == "" {
		return fmt.Errorf("app id cannot be empty")
	}

	if len(appID) > MaxAppIDLen {
		return fmt.Errorf("app id must not exceed %d characters", MaxAppIDLen)
	}

	if !AppIDPattern.MatchString(appID) {
		return fmt.Errorf("app id can only contain letters, numbers, dots, dashes and underscores")
	}

	return nil
}

// ValidateKind проверяет имя типа сущности
func ValidateKind(kind string) error {
	if kind == "" {
		return fmt.Errorf("kind cannot be empty")
	}

	if !KindPattern.MatchString(kind) {
		return fmt.Errorf("kind %q must be 2-32 lowercase letters, numbers or underscores starting with a letter", kind)
	}

	return nil
}

// ValidateFieldName проверяет имя поля схемы
func ValidateFieldName(name string) error {
	if name == "" {
		return fmt.Errorf("field name cannot be empty")
	}

	if !FieldNamePattern.MatchString(name) {
		return fmt.Errorf("field name %q must start with a letter and contain only letters, numbers and underscores", name)
	}

	return nil
}
