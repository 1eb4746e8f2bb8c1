// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

package stepresult_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitzipqr/gitzipqr/internal/stepresult"
)

func TestSucceed_OKAndLine(t *testing.T) {
	t.Parallel()

	r := stepresult.Succeed(3, "encrypt")
	require.True(t, r.OK())
	require.Equal(t, "STEP #3 encrypt ... [1]", r.Line())
}

func TestFail_OKAndLine(t *testing.T) {
	t.Parallel()

	r := stepresult.Fail(4, "calibrate capacity", errors.New("boom"))
	require.False(t, r.OK())
	require.Equal(t, "STEP #4 calibrate capacity ... [0]", r.Line())
}
