// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package validate wraps go-playground/validator for request structs.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidInput = errors.New("invalid input")

type Validator struct {
	validate *validator.Validate
}

// New returns a Validator that reports fields by their JSON name.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: validate}
}

// Struct validates v. Field errors are returned as a joined error headed by
// ErrInvalidInput, one line per field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return errors.Join(ErrInvalidInput, err)
	}
	errList := []error{ErrInvalidInput}
	for _, fieldErr := range fieldErrors {
		errList = append(errList, fmt.Errorf("%s: failed on %q validation", fieldErr.Field(), fieldErr.Tag()))
	}
	return errors.Join(errList...)
}
