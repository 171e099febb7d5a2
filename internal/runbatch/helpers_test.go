// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"sync/atomic"
	"time"
)

// fakeCmd is a Runnable with a fixed outcome.
type fakeCmd struct {
	*BaseCommand
	status  ResultStatus
	err     error
	delay   time.Duration
	ran     atomic.Int32
	running *atomic.Int32 // Counts concurrent runs, optional
	peak    *atomic.Int32
}

func newFakeCmd(label string, status ResultStatus, err error) *fakeCmd {
	return &fakeCmd{
		BaseCommand: NewBaseCommand(label, "", RunOnSuccess, nil),
		status:      status,
		err:         err,
	}
}

func (f *fakeCmd) Run(ctx context.Context) Results {
	f.ran.Add(1)

	if f.running != nil {
		n := f.running.Add(1)
		defer f.running.Add(-1)

		for {
			p := f.peak.Load()
			if n <= p || f.peak.CompareAndSwap(p, n) {
				break
			}
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}

	exit := 0
	if f.status == ResultStatusError {
		exit = 1
	}

	return Results{&Result{
		Label:    f.GetLabel(),
		Status:   f.status,
		ExitCode: exit,
		Error:    f.err,
	}}
}
