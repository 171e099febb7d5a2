// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"errors"
	"io"
	"path/filepath"

	"github.com/matt-FFFFFF/sqlroll/internal/ctxlog"
	"github.com/matt-FFFFFF/sqlroll/internal/decision"
	"github.com/spf13/afero"
)

// AnswerFile is the answer stream picked up from the working directory.
const AnswerFile = "run.conf"

// Questions asked for the configuration, in answer stream order.
const (
	QuestionRoot        = "target path"
	QuestionStopOnError = "stop on error"
	QuestionDatabaseURL = "database URL"
	QuestionUser        = "user"
	QuestionPassword    = "password"
	QuestionAutoConfirm = "continue without confirmation"
)

// ErrAnswers is returned when the answer stream cannot supply the configuration.
var ErrAnswers = errors.New("could not read configuration answers")

// OpenAnswers opens the answer stream. An explicit path must exist.
// Otherwise AnswerFile in dir is used when present, and a nil reader
// means there is no answer stream.
func OpenAnswers(explicit, dir string) (io.ReadCloser, error) {
	fsys := FsFactory()

	path := explicit
	if path == "" {
		path = filepath.Join(dir, AnswerFile)
		if ok, _ := afero.Exists(fsys, path); !ok {
			return nil, nil
		}
	}

	f, err := fsys.Open(path)
	if err != nil {
		return nil, errors.Join(ErrAnswers, err)
	}

	return f, nil
}

// FromAnswers asks d for the configuration values in answer stream order.
//
// With positional set, every question is asked so the stream stays aligned
// with the per-directory and per-script answers that follow it; an answer
// for a value set by base is read and discarded. Otherwise only values base
// leaves unset are asked for.
func FromAnswers(ctx context.Context, d decision.Decider, base Layer, positional bool) (Layer, error) {
	var l Layer

	askString := func(q string, have *string, secret bool, dst **string) error {
		if have != nil && !positional {
			return nil
		}

		var (
			v   string
			err error
		)

		if secret {
			v, err = decision.AskSecret(ctx, d, q)
		} else {
			v, err = d.Ask(ctx, q)
		}

		if err != nil {
			return errors.Join(ErrAnswers, err)
		}

		if have != nil {
			ctxlog.Debug(ctx, "answer ignored, value already configured", "question", q)
			return nil
		}

		*dst = &v

		return nil
	}

	askBool := func(q string, have *bool, dst **bool) error {
		if have != nil && !positional {
			return nil
		}

		v, err := d.Confirm(ctx, q)
		if err != nil {
			return errors.Join(ErrAnswers, err)
		}

		if have != nil {
			ctxlog.Debug(ctx, "answer ignored, value already configured", "question", q)
			return nil
		}

		*dst = &v

		return nil
	}

	steps := []func() error{
		func() error { return askString(QuestionRoot, base.Root, false, &l.Root) },
		func() error { return askBool(QuestionStopOnError, base.StopOnError, &l.StopOnError) },
		func() error { return askString(QuestionDatabaseURL, base.DatabaseURL, false, &l.DatabaseURL) },
		func() error { return askString(QuestionUser, base.User, false, &l.User) },
		func() error { return askString(QuestionPassword, base.Password, true, &l.Password) },
		func() error { return askBool(QuestionAutoConfirm, base.AutoConfirm, &l.AutoConfirm) },
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return Layer{}, err
		}
	}

	return l, nil
}
