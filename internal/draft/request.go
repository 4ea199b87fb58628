package draft

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationMessage показывается пользователю, если не заполнено хотя бы одно поле.
const ValidationMessage = "Please fill in all fields."

// Request входные данные формы.
type Request struct {
	Sender    string `schema:"sender_name" json:"sender_name" validate:"required"`
	Receiver  string `schema:"receiver_name" json:"receiver_name" validate:"required"`
	KeyPoints string `schema:"key_points" json:"key_points" validate:"required"`
}

// ValidationError перечисляет незаполненные поля в терминах формы.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("schema")
	})
	return v
}

// Validate проверяет присутствие всех трёх полей. Пустой считается только
// строка нулевой длины: пробелы и переводы строк уходят в модель как есть.
func Validate(req Request) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate request: %w", err)
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
	}
	return &ValidationError{Fields: fields}
}
