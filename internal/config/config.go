// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config resolves the RunConfiguration of a rollout from layered
// sources. Earlier layers win: command line flags, the process environment,
// an optional dotenv file, an optional YAML file and finally the answer
// stream, which fills in whatever is still missing.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

// Grouping modes accepted by the planner.
const (
	GroupingSegment   = "segment"
	GroupingSubstring = "substring"
)

// ErrInvalid is returned when a resolved configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// RunConfiguration is the resolved set of values a rollout runs with.
type RunConfiguration struct {
	Root           string `validate:"required"`
	StopOnError    bool
	AutoConfirm    bool
	DatabaseURL    string `validate:"required"`
	User           string
	Password       string
	MaxParallelism int           `validate:"gte=0"`
	ScriptTimeout  time.Duration `validate:"gte=0"`
	Grouping       string        `validate:"required,oneof=segment substring"`
	Out            string
}

// Validate checks the struct tags of c and reports every failing field.
func (c RunConfiguration) Validate() error {
	err := validatorInstance().Struct(c)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return errors.Join(ErrInvalid, err)
	}

	var result *multierror.Error
	for _, fe := range ves {
		result = multierror.Append(result, fmt.Errorf("%s failed validation for tag '%s'", fieldName(fe), fe.Tag()))
	}

	return errors.Join(ErrInvalid, result.ErrorOrNil())
}

// Redacted returns a copy of c safe to log.
func (c RunConfiguration) Redacted() RunConfiguration {
	if c.Password != "" {
		c.Password = "****"
	}

	return c
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validatorInstance() *validator.Validate {
	return validate
}

func fieldName(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")
	return strings.ToLower(parts[len(parts)-1])
}

// Layer is a partial configuration. A nil field is unset and leaves the
// decision to a later layer.
type Layer struct {
	Root           *string
	StopOnError    *bool
	AutoConfirm    *bool
	DatabaseURL    *string
	User           *string
	Password       *string
	MaxParallelism *int
	ScriptTimeout  *time.Duration
	Grouping       *string
	Out            *string
}

// Merge folds layers into one. The first layer to set a field wins.
func Merge(layers ...Layer) Layer {
	var m Layer
	for _, l := range layers {
		m.Root = first(m.Root, l.Root)
		m.StopOnError = first(m.StopOnError, l.StopOnError)
		m.AutoConfirm = first(m.AutoConfirm, l.AutoConfirm)
		m.DatabaseURL = first(m.DatabaseURL, l.DatabaseURL)
		m.User = first(m.User, l.User)
		m.Password = first(m.Password, l.Password)
		m.MaxParallelism = first(m.MaxParallelism, l.MaxParallelism)
		m.ScriptTimeout = first(m.ScriptTimeout, l.ScriptTimeout)
		m.Grouping = first(m.Grouping, l.Grouping)
		m.Out = first(m.Out, l.Out)
	}

	return m
}

// Build turns l into a RunConfiguration, applying defaults for unset fields.
// It does not validate.
func (l Layer) Build() RunConfiguration {
	return RunConfiguration{
		Root:           value(l.Root),
		StopOnError:    value(l.StopOnError),
		AutoConfirm:    value(l.AutoConfirm),
		DatabaseURL:    value(l.DatabaseURL),
		User:           value(l.User),
		Password:       value(l.Password),
		MaxParallelism: value(l.MaxParallelism),
		ScriptTimeout:  value(l.ScriptTimeout),
		Grouping:       valueOr(l.Grouping, GroupingSegment),
		Out:            value(l.Out),
	}
}

// Ptr returns a pointer to v, for building layers by hand.
func Ptr[T any](v T) *T {
	return &v
}

func first[T any](have, next *T) *T {
	if have != nil {
		return have
	}

	return next
}

func value[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}

	return *p
}

func valueOr[T comparable](p *T, def T) T {
	var zero T
	if p == nil || *p == zero {
		return def
	}

	return *p
}
