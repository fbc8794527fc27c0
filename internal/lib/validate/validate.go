// Package validate проверяет входящие структуры и переводит ошибки
// validator в сообщения по полям.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/users-api/internal/models"
)

// Validator оборачивает validator.Validate. Поля в ошибках называются по json-тегам.
type Validator struct {
	v *validator.Validate
}

// New создаёт Validator.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Struct проверяет s. Нарушения правил возвращаются как models.ValidationErrors.
func (v *Validator) Struct(s any) error {
	const op = "validate.Struct"
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return Translate(verrs)
}

// Email сообщает, является ли s корректным адресом.
func (v *Validator) Email(s string) bool {
	return v.v.Var(s, "required,email") == nil
}

// Translate переводит ошибки validator в сообщения по полям.
func Translate(errs validator.ValidationErrors) models.ValidationErrors {
	res := models.ValidationErrors{}
	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			res.Add(err.Field(), models.MsgBlank)
		case "min":
			res.Add(err.Field(), fmt.Sprintf(models.MsgTooShort, err.Param()))
		default:
			res.Add(err.Field(), models.MsgInvalid)
		}
	}
	return res
}
