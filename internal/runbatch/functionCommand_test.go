// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestFunctionCommandRun_Success(t *testing.T) {
	defer goleak.VerifyNone(t)

	cmd := NewFunctionCommand("success function", func(_ context.Context, _ string) FunctionCommandReturn {
		return FunctionCommandReturn{Output: []byte("done")}
	})

	results := cmd.Run(context.Background())
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, ResultStatusSuccess, res.Status)
	require.NoError(t, res.Error)
	assert.Equal(t, "done", string(res.StdOut))
}

func TestFunctionCommandRun_Failure(t *testing.T) {
	defer goleak.VerifyNone(t)

	testErr := errors.New("function failed")
	cmd := NewFunctionCommand("failure function", func(_ context.Context, _ string) FunctionCommandReturn {
		return FunctionCommandReturn{Err: testErr}
	})

	res := cmd.Run(context.Background())[0]
	assert.Equal(t, -1, res.ExitCode)
	assert.Equal(t, ResultStatusError, res.Status)
	require.ErrorIs(t, res.Error, testErr)
}

func TestFunctionCommandRun_Warning(t *testing.T) {
	defer goleak.VerifyNone(t)

	warn := errors.New("script had errors")
	cmd := NewFunctionCommand("warning function", func(_ context.Context, _ string) FunctionCommandReturn {
		return FunctionCommandReturn{Warning: warn}
	})

	res := cmd.Run(context.Background())[0]
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, ResultStatusWarning, res.Status)
	require.ErrorIs(t, res.Error, warn)
}

func TestFunctionCommandRun_Panic(t *testing.T) {
	defer goleak.VerifyNone(t)

	cmd := NewFunctionCommand("panic function", func(_ context.Context, _ string) FunctionCommandReturn {
		panic("test panic")
	})

	res := cmd.Run(context.Background())[0]
	assert.Equal(t, ResultStatusError, res.Status)

	var pErr *ErrFunctionCmdPanic

	require.ErrorAs(t, res.Error, &pErr)
	assert.Contains(t, res.Error.Error(), "test panic")
}

func TestFunctionCommandRun_PanicWithError(t *testing.T) {
	defer goleak.VerifyNone(t)

	inner := errors.New("inner")
	cmd := NewFunctionCommand("panic function", func(_ context.Context, _ string) FunctionCommandReturn {
		panic(inner)
	})

	res := cmd.Run(context.Background())[0]
	require.ErrorIs(t, res.Error, inner)
}

func TestFunctionCommandRun_ContextCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	cmd := NewFunctionCommand("slow function", func(ctx context.Context, _ string) FunctionCommandReturn {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)

		return FunctionCommandReturn{}
	})

	res := cmd.Run(ctx)[0]
	assert.Equal(t, ResultStatusError, res.Status)
	require.ErrorIs(t, res.Error, context.DeadlineExceeded)
}

func TestFunctionCommandRun_NilFunc(t *testing.T) {
	res := NewFunctionCommand("nil", nil).Run(context.Background())[0]
	assert.Equal(t, ResultStatusSuccess, res.Status)
}
