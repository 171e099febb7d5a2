// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker turns OS termination signals into a two-step
// shutdown: the first signal of a kind asks the rollout to stop after the
// unit that is running, the second one cancels the context outright.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matt-FFFFFF/sqlroll/internal/ctxlog"
)

var termSignals = []os.Signal{
	os.Interrupt,
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

// New returns a channel notified of sigs, or of the termination signals when none are given.
func New(ctx context.Context, sigs ...os.Signal) chan os.Signal {
	ch := make(chan os.Signal, 1)

	if len(sigs) == 0 {
		sigs = termSignals
	}

	ctxlog.Debug(ctx, "creating signal broker", "signals", sigs)
	signal.Notify(ch, sigs...)

	return ch
}

// Stop detaches ch from signal delivery.
func Stop(ch chan os.Signal) {
	signal.Stop(ch)
}

// Watch consumes sigCh until ctx is done or sigCh is closed.
// The first signal of each kind calls onFirst (which may be nil); a repeat
// of the same kind calls cancel and returns.
func Watch(ctx context.Context, sigCh <-chan os.Signal, onFirst func(os.Signal), cancel context.CancelFunc) {
	seen := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, dup := seen[sig]; dup {
				ctxlog.Warn(ctx, "second signal received, cancelling rollout", "signal", sig.String())
				cancel()

				return
			}

			seen[sig] = struct{}{}

			ctxlog.Warn(ctx, "signal received, stopping after the running unit; repeat to cancel", "signal", sig.String())

			if onFirst != nil {
				onFirst(sig)
			}
		}
	}
}
