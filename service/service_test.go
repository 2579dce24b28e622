// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceFunc(t *testing.T) {
	called := false
	adapter := ServiceFunc[int, string](func(ctx context.Context, n int) (string, error) {
		called = true
		return "result", nil
	})

	output, err := adapter.Call(context.Background(), 42)

	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "result", output)
}

func TestBoxServiceEquivalence(t *testing.T) {
	// BoxService is a plain alias: any Service value is usable as one with
	// no wrapping and identical behavior.
	var svc Service[int, int] = ServiceFunc[int, int](double)
	var boxed BoxService[int, int] = svc

	want, err := svc.Call(context.Background(), 5)
	require.NoError(t, err)
	got, err := boxed.Call(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}
