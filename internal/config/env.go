// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

// Environment variable names read by the CLI and by dotenv files.
const (
	EnvRoot           = "SQLROLL_ROOT"
	EnvStopOnError    = "SQLROLL_STOP_ON_ERROR"
	EnvAutoConfirm    = "SQLROLL_AUTO_CONFIRM"
	EnvDatabaseURL    = "SQLROLL_DB_URL"
	EnvUser           = "SQLROLL_DB_USER"
	EnvPassword       = "SQLROLL_DB_PASSWORD"
	EnvMaxParallelism = "SQLROLL_PARALLELISM"
	EnvScriptTimeout  = "SQLROLL_SCRIPT_TIMEOUT"
	EnvGrouping       = "SQLROLL_GROUPING"
	EnvOut            = "SQLROLL_OUT"
)

var (
	// ErrEnvFile is returned when a dotenv file cannot be read or parsed.
	ErrEnvFile = errors.New("could not read env file")
	// ErrEnvValue is returned when a variable holds a value of the wrong shape.
	ErrEnvValue = errors.New("invalid environment value")
)

// LoadEnvFile reads a dotenv file from FsFactory and returns it as a layer.
// The process environment is not modified.
func LoadEnvFile(path string) (Layer, error) {
	f, err := FsFactory().Open(path)
	if err != nil {
		return Layer{}, errors.Join(ErrEnvFile, err)
	}

	defer f.Close() //nolint:errcheck

	vars, err := godotenv.Parse(f)
	if err != nil {
		return Layer{}, errors.Join(ErrEnvFile, fmt.Errorf("%s: %w", path, err))
	}

	return FromEnv(vars)
}

// FromEnv builds a layer from SQLROLL_* variables in vars.
func FromEnv(vars map[string]string) (Layer, error) {
	var (
		l    Layer
		errs *multierror.Error
	)

	str := func(name string) *string {
		if v, ok := vars[name]; ok {
			return &v
		}

		return nil
	}

	parse := func(name string, fn func(string) error) {
		v, ok := vars[name]
		if !ok {
			return
		}

		if err := fn(v); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%w: %s=%q: %w", ErrEnvValue, name, v, err))
		}
	}

	l.Root = str(EnvRoot)
	l.DatabaseURL = str(EnvDatabaseURL)
	l.User = str(EnvUser)
	l.Password = str(EnvPassword)
	l.Grouping = str(EnvGrouping)
	l.Out = str(EnvOut)

	parse(EnvStopOnError, func(s string) error {
		b, err := strconv.ParseBool(s)
		l.StopOnError = &b

		return err
	})
	parse(EnvAutoConfirm, func(s string) error {
		b, err := strconv.ParseBool(s)
		l.AutoConfirm = &b

		return err
	})
	parse(EnvMaxParallelism, func(s string) error {
		n, err := strconv.Atoi(s)
		l.MaxParallelism = &n

		return err
	})
	parse(EnvScriptTimeout, func(s string) error {
		d, err := time.ParseDuration(s)
		l.ScriptTimeout = &d

		return err
	})

	if err := errs.ErrorOrNil(); err != nil {
		return Layer{}, err
	}

	return l, nil
}
