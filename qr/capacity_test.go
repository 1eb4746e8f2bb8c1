// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

package qr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitzipqr/gitzipqr/qr"
)

func TestCalibrateEmpirical_FloorAndLevels(t *testing.T) {
	t.Parallel()

	for _, level := range []qr.ECL{qr.ECLLow, qr.ECLMedium, qr.ECLQuartile, qr.ECLHigh} {
		level := level
		t.Run(string(level), func(t *testing.T) {
			t.Parallel()

			size, err := qr.CalibrateEmpirical(level)
			require.NoError(t, err)
			require.GreaterOrEqual(t, size, qr.FloorBytes)
		})
	}
}

func TestCalibrateAnalytical_FloorAndLevels(t *testing.T) {
	t.Parallel()

	for _, level := range []qr.ECL{qr.ECLLow, qr.ECLMedium, qr.ECLQuartile, qr.ECLHigh} {
		level := level
		t.Run(string(level), func(t *testing.T) {
			t.Parallel()

			size, err := qr.CalibrateAnalytical(level)
			require.NoError(t, err)
			require.GreaterOrEqual(t, size, qr.FloorBytes)
		})
	}
}

func TestCalibrateAnalytical_HigherECLMeansSmallerChunk(t *testing.T) {
	t.Parallel()

	q, err := qr.CalibrateAnalytical(qr.ECLQuartile)
	require.NoError(t, err)
	h, err := qr.CalibrateAnalytical(qr.ECLHigh)
	require.NoError(t, err)

	require.GreaterOrEqual(t, q, h)
}

func TestCalibrate_OverrideWins(t *testing.T) {
	t.Parallel()

	size, err := qr.Calibrate(qr.ECLQuartile, 777)
	require.NoError(t, err)
	require.Equal(t, 777, size)
}

func TestCalibrate_RejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := qr.CalibrateEmpirical(qr.ECL("Z"))
	require.Error(t, err)
}
