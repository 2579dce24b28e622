// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderFuncReplicatesAcrossWorkers(t *testing.T) {
	builds := 0
	b := BuilderFunc[Unit, Service[int, int]](func(ctx context.Context, _ Unit) (Service[int, int], error) {
		builds++
		return ServiceFunc[int, int](double), nil
	})

	for range 3 {
		_, err := b.Build(context.Background(), Unit{})
		require.NoError(t, err)
	}

	require.Equal(t, 3, builds)
}
