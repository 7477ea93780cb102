// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

// Package validation provides struct validation using go-playground/validator
// v10 behind a thread-safe singleton. It is used for configuration and for
// the campaign-detector and policy-simulator parameter structs, so that bad
// parameters are rejected as configuration errors before any computation
// begins.
//
// Example usage:
//
//	type Params struct {
//	    PriceThreshold float64 `validate:"min=0"`
//	    DistanceCapKm  float64 `validate:"gt=0"`
//	}
//
//	if err := validation.ValidateStruct(&params); err != nil {
//	    return fmt.Errorf("invalid simulation parameters: %w", err)
//	}
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError represents a single field validation failure.
type FieldError struct {
	field string
	tag   string
	param string
	value interface{}
}

// Field returns the struct field name that failed validation.
func (e *FieldError) Field() string { return e.field }

// Tag returns the validation tag that failed.
func (e *FieldError) Tag() string { return e.tag }

// Param returns the parameter for the tag (e.g. "1" for "min=1").
func (e *FieldError) Param() string { return e.param }

// Error returns a human-readable message.
func (e *FieldError) Error() string {
	if e.param != "" {
		return fmt.Sprintf("%s failed %s=%s validation (value %v)", e.field, e.tag, e.param, e.value)
	}
	return fmt.Sprintf("%s failed %s validation (value %v)", e.field, e.tag, e.value)
}

// StructError is a collection of field validation failures.
type StructError struct {
	errors []FieldError
}

// Errors returns the individual field errors.
func (se *StructError) Errors() []FieldError { return se.errors }

// Error implements the error interface with a combined message.
func (se *StructError) Error() string {
	if len(se.errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(se.errors))
	for i, err := range se.errors {
		messages[i] = err.Error()
	}
	return strings.Join(messages, "; ")
}

// GetValidator returns the singleton validator instance.
// This function is thread-safe; the validator caches struct metadata.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct validates a struct using the singleton validator.
// Returns nil on success or a *StructError describing every failed field.
func ValidateStruct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		// Unexpected error type (e.g. a non-struct argument).
		return fmt.Errorf("validation: %w", err)
	}

	fieldErrors := make([]FieldError, len(validationErrs))
	for i, fieldErr := range validationErrs {
		fieldErrors[i] = FieldError{
			field: fieldErr.Field(),
			tag:   fieldErr.Tag(),
			param: fieldErr.Param(),
			value: fieldErr.Value(),
		}
	}
	return &StructError{errors: fieldErrors}
}
