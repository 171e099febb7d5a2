// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// BatchError is returned by a ParallelBatch when any member failed.
// Failed holds the labels of the failed members in batch order.
type BatchError struct {
	Label  string
	Failed []string
	Errs   *multierror.Error
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	return fmt.Sprintf("parallel batch %q failed: %s", e.Label, strings.Join(e.Failed, ", "))
}

// Unwrap exposes the member errors to errors.Is and errors.As.
func (e *BatchError) Unwrap() error {
	return e.Errs.ErrorOrNil()
}
