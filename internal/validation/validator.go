package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"

	sheetqueue "github.com/ideamans/go-sheetqueue"
)

// New returns a validator with the sheetkey tag registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// sheetkey accepts only the closed set of destination keys
	_ = v.RegisterValidation("sheetkey", validateSheetKey)

	return v
}

func validateSheetKey(fl validatorv10.FieldLevel) bool {
	_, err := sheetqueue.ParseSheetKey(fl.Field().String())
	return err == nil
}
