// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fixedReadiness struct{ err error }

func (f fixedReadiness) Ready(ctx context.Context) error { return f.err }

func TestAndThenReadyBothMustBeReady(t *testing.T) {
	require.NoError(t, AndThenReady(fixedReadiness{}, fixedReadiness{}).Ready(context.Background()))

	wantErr := errors.New("second stage not ready")
	err := AndThenReady(fixedReadiness{}, fixedReadiness{err: wantErr}).Ready(context.Background())
	require.ErrorIs(t, err, wantErr)

	wantErr = errors.New("first stage not ready")
	err = AndThenReady(fixedReadiness{err: wantErr}, fixedReadiness{}).Ready(context.Background())
	require.ErrorIs(t, err, wantErr)
}
