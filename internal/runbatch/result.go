// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"bytes"
	"encoding/gob"
	"errors"
	"io"
	"os"
)

var (
	// ErrResultChildrenHasError is set on a batch result when any child failed.
	ErrResultChildrenHasError = errors.New("result has children with errors")
	// ErrWriteGob is returned when writing the results in binary form fails.
	ErrWriteGob = errors.New("failed to write binary results")
	// ErrReadGob is returned when reading binary results fails.
	ErrReadGob = errors.New("failed to read binary results")
)

// ResultStatus is the outcome of a command or batch.
type ResultStatus int

const (
	// ResultStatusSuccess means the command completed without problems.
	ResultStatusSuccess ResultStatus = iota
	// ResultStatusWarning means the command completed with problems that are not fatal.
	ResultStatusWarning
	// ResultStatusError means the command failed.
	ResultStatusError
	// ResultStatusSkipped means the command did not run.
	ResultStatusSkipped
)

// String implements fmt.Stringer.
func (s ResultStatus) String() string {
	switch s {
	case ResultStatusSuccess:
		return "success"
	case ResultStatusWarning:
		return "warning"
	case ResultStatusError:
		return "error"
	case ResultStatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result represents the outcome of running a command or batch.
type Result struct {
	Label    string       // Label of the command or batch
	Status   ResultStatus // Outcome
	ExitCode int          // Exit code of the command, -1 for failures without one
	Error    error        // Error or warning, if any
	StdOut   []byte       // Output of the command
	StdErr   []byte       // Error output of the command
	Children Results      // Nested results of a batch
}

// Results is a slice of Result pointers.
type Results []*Result

// HasError reports whether any result in the tree failed.
func (r Results) HasError() bool {
	for _, v := range r {
		if v.Status == ResultStatusError {
			return true
		}

		if v.Children.HasError() {
			return true
		}
	}

	return false
}

// HasWarning reports whether any result in the tree only warned.
func (r Results) HasWarning() bool {
	for _, v := range r {
		if v.Status == ResultStatusWarning || v.Children.HasWarning() {
			return true
		}
	}

	return false
}

// FailedLabels returns the labels of the failed leaves of the tree, in order.
func (r Results) FailedLabels() []string {
	var out []string

	for _, v := range r {
		if len(v.Children) > 0 {
			out = append(out, v.Children.FailedLabels()...)
			continue
		}

		if v.Status == ResultStatusError {
			out = append(out, v.Label)
		}
	}

	return out
}

// Print writes the results to stdout with default options.
func (r Results) Print() error {
	return WriteResults(os.Stdout, r, nil)
}

// Write writes the results to w with default options.
func (r Results) Write(w io.Writer) error {
	return WriteResults(w, r, nil)
}

// WriteWithOptions writes the results to w with the given options.
func (r Results) WriteWithOptions(w io.Writer, options *OutputOptions) error {
	return WriteResults(w, r, options)
}

// WriteBinary gob-encodes the results to w.
func (r Results) WriteBinary(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(r); err != nil {
		return errors.Join(ErrWriteGob, err)
	}

	return nil
}

// ReadBinary decodes results written by WriteBinary.
func ReadBinary(rd io.Reader) (Results, error) {
	var r Results
	if err := gob.NewDecoder(rd).Decode(&r); err != nil {
		return nil, errors.Join(ErrReadGob, err)
	}

	return r, nil
}

// gobResult is the wire form of Result. Errors travel as their message.
type gobResult struct {
	Label    string
	Status   ResultStatus
	ExitCode int
	ErrorMsg string
	HasError bool
	StdOut   []byte
	StdErr   []byte
	Children Results
}

// decodedError stands in for an error read back from binary results.
type decodedError struct {
	msg string
}

func (e *decodedError) Error() string {
	return e.msg
}

// GobEncode implements gob.GobEncoder.
func (r *Result) GobEncode() ([]byte, error) {
	g := gobResult{
		Label:    r.Label,
		Status:   r.Status,
		ExitCode: r.ExitCode,
		StdOut:   r.StdOut,
		StdErr:   r.StdErr,
		Children: r.Children,
	}

	if r.Error != nil {
		g.HasError = true
		g.ErrorMsg = r.Error.Error()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (r *Result) GobDecode(data []byte) error {
	var g gobResult
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return err //nolint:wrapcheck
	}

	*r = Result{
		Label:    g.Label,
		Status:   g.Status,
		ExitCode: g.ExitCode,
		StdOut:   g.StdOut,
		StdErr:   g.StdErr,
		Children: g.Children,
	}

	if g.HasError {
		r.Error = &decodedError{msg: g.ErrorMsg}
	}

	return nil
}
