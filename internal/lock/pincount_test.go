package lock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPinCountIncDec(t *testing.T) {
	var p PinCount
	require.True(t, p.IsZero())

	require.EqualValues(t, 1, p.Inc())
	require.EqualValues(t, 2, p.Inc())
	require.False(t, p.IsZero())

	require.EqualValues(t, 1, p.Dec())
	require.EqualValues(t, 0, p.Dec())
	require.True(t, p.IsZero())
}

func TestPinCountDecBelowZeroIsNoop(t *testing.T) {
	var p PinCount
	require.EqualValues(t, 0, p.Dec())
	require.True(t, p.IsZero())
}
