// Ledgerkeep - Personal Finance Ledger Backup and Recovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerkeep

// Package validation provides struct validation using go-playground/validator v10.
//
// The validator is a lazily built singleton with the custom tags used by
// request and settings types:
//
//   - cronexpr: a standard 5-field cron expression (robfig/cron parser)
//   - cloudprovider: one of aws_s3, google_cloud, aliyun_oss
//
// Field names in errors come from the json tag so messages match the wire
// names clients send:
//
//	type ScheduleRequest struct {
//	    CronExpression string `json:"cronExpression" validate:"required,cronexpr"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    ...
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// ErrorCode is the API error code for validation failures. It matches
// models.KindValidationFailed.
const ErrorCode = "VALIDATION_FAILED"

// CloudProviders lists the accepted cloudprovider tag values.
var CloudProviders = []string{"aws_s3", "google_cloud", "aliyun_oss"}

// cronParser accepts the same expressions the scheduler installs.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule on one field. Field is the json name.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Value   interface{}
	Message string
}

// RequestValidationError collects every FieldError from one ValidateStruct call.
type RequestValidationError struct {
	fields []FieldError
}

// Errors returns the individual field failures.
func (ve *RequestValidationError) Errors() []FieldError {
	return ve.fields
}

func (ve *RequestValidationError) Error() string {
	if len(ve.fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve.fields))
	for i, f := range ve.fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// APIError is the API error shape for a validation failure. It is declared
// here so that models does not import this package.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError renders ve for the HTTP envelope. A single failure reports its
// field, tag and value; several failures are listed under "fields".
func (ve *RequestValidationError) ToAPIError() *APIError {
	switch len(ve.fields) {
	case 0:
		return &APIError{Code: ErrorCode, Message: "Validation failed"}
	case 1:
		f := ve.fields[0]
		return &APIError{
			Code:    ErrorCode,
			Message: f.Message,
			Details: map[string]interface{}{"field": f.Field, "tag": f.Tag, "value": f.Value},
		}
	}

	fields := make([]map[string]interface{}, len(ve.fields))
	msgs := make([]string, len(ve.fields))
	for i, f := range ve.fields {
		fields[i] = map[string]interface{}{"field": f.Field, "tag": f.Tag, "message": f.Message}
		msgs[i] = f.Field + ": " + f.Message
	}
	return &APIError{
		Code:    ErrorCode,
		Message: strings.Join(msgs, "; "),
		Details: map[string]interface{}{"fields": fields},
	}
}

// GetValidator returns the shared validator with the custom tags registered.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)

		// Registration only fails on an empty tag or nil func.
		_ = validate.RegisterValidation("cronexpr", func(fl validator.FieldLevel) bool { //nolint:errcheck // static registration
			return ValidCronExpr(fl.Field().String())
		})
		_ = validate.RegisterValidation("cloudprovider", func(fl validator.FieldLevel) bool { //nolint:errcheck // static registration
			return ValidCloudProvider(fl.Field().String())
		})
	})
	return validate
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

// ValidateStruct validates s and returns nil or the collected failures.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	out := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: message(fe),
		}
	}
	return &RequestValidationError{fields: out}
}

// ValidCronExpr reports whether expr parses as a standard cron expression.
func ValidCronExpr(expr string) bool {
	if strings.TrimSpace(expr) == "" {
		return false
	}
	_, err := cronParser.Parse(expr)
	return err == nil
}

// ValidCloudProvider reports whether id names a supported provider.
func ValidCloudProvider(id string) bool {
	for _, p := range CloudProviders {
		if p == id {
			return true
		}
	}
	return false
}

func message(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, param)
	case "cronexpr":
		return field + " must be a valid 5-field cron expression"
	case "cloudprovider":
		return field + " must be one of " + strings.Join(CloudProviders, ", ")
	case "uuid":
		return field + " must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, param)
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
