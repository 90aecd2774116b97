// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

// Package validation validates request payloads before they leave the client,
// using go-playground/validator v10. It is the form-validation layer: login,
// registration, profile and settings inputs are checked locally so the user
// gets an immediate, readable message instead of a backend round trip.
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    return verr // "username must be at least 3 characters"
//	}
//
// The validator instance is a thread-safe singleton; struct metadata is
// cached after the first validation of each type.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single field validation failure.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

// Error returns the human-readable message.
func (e FieldError) Error() string {
	return e.Message
}

// RequestError is a collection of field validation failures for one payload.
type RequestError struct {
	fields []FieldError
}

// Fields returns the individual field failures.
func (e *RequestError) Fields() []FieldError {
	return e.fields
}

// Error implements the error interface with one combined message.
func (e *RequestError) Error() string {
	if len(e.fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(e.fields))
	for i, f := range e.fields {
		messages[i] = f.Message
	}
	return strings.Join(messages, "; ")
}

// Validator returns the singleton validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct validates a request struct. Returns nil on success, or a
// *RequestError with a translated message per failing field.
func ValidateStruct(s interface{}) *RequestError {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestError{fields: []FieldError{{
			Field:   "unknown",
			Tag:     "unknown",
			Message: err.Error(),
		}}}
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translateError(fe),
		}
	}
	return &RequestError{fields: fields}
}

// messageTemplates maps parameterless validation tags to message templates.
var messageTemplates = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
	"url":      "%s must be a valid URL",
	"alphanum": "%s may only contain letters and digits",
}

// paramTemplates maps parameterized tags to templates taking field and param.
var paramTemplates = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
}

// translateError converts a validator.FieldError into a user-facing message.
func translateError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := messageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := paramTemplates[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}

	isString := fe.Kind().String() == "string"
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
