package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dvloznov/budget-insights/internal/domain"
)

var validate = newValidator()

func newValidator() func(interface{}) error {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("category", validateCategory)
	_ = v.RegisterValidation("currency", validateCurrency)
	_ = v.RegisterValidation("transaction_type", validateTransactionType)

	return func(s interface{}) error {
		err := v.Struct(s)
		if err == nil {
			return nil
		}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return &requestError{msg: describe(verrs)}
		}
		return err
	}
}

func validateCategory(fl validator.FieldLevel) bool {
	return domain.Category(fl.Field().String()).IsValid()
}

func validateCurrency(fl validator.FieldLevel) bool {
	return domain.IsSupportedCurrency(fl.Field().String())
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return domain.TransactionType(fl.Field().String()).IsValid()
}

// describe renders validation failures as one readable message.
func describe(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "gte":
		return field + " must be at least " + fe.Param()
	case "min":
		return field + " must have at least " + fe.Param() + " entries"
	case "category":
		return field + " must be one of: " + categoryList()
	case "currency":
		return field + " is not a supported currency"
	case "transaction_type":
		return field + " must be expense or income"
	default:
		return field + " is invalid"
	}
}

func categoryList() string {
	names := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
