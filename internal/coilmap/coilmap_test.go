package coilmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRows is a small coil fixture: a local zero, the first turns of layer
// 1, a transition into layer 2, a turn 1 joggle into layer 3 and a final
// weld row.
func testRows() []Row {
	return []Row{
		{Angle: 0, Feature: FeatureLocalZero, Hqp: 1, Layer: 1, Turn: 1, Azimuth: 0, Radius: 800},
		{Angle: 360, Feature: FeatureNone, Hqp: 1, Layer: 1, Turn: 2, Azimuth: 0, Radius: 800},
		{Angle: 4680, Feature: FeatureTransition, Hqp: 1, Layer: 1, Turn: 14, Azimuth: 0, Radius: 1100},
		{Angle: 5040, Feature: FeatureJoggle, Hqp: 1, Layer: 2, Turn: 14, Azimuth: 0, Radius: 1100},
		{Angle: 9720, Feature: FeatureJoggle, Hqp: 1, Layer: 3, Turn: 1, Azimuth: 0, Radius: 800},
		{Angle: 10080, Feature: FeatureWeld, Hqp: 1, Layer: 3, Turn: 2, Azimuth: 0, Radius: 800},
	}
}

func newTestMap(t *testing.T) *Map {
	t.Helper()
	m, err := New(testRows())
	require.NoError(t, err)
	return m
}

func TestNewRejectsEmptyAndDuplicates(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	assert.Error(t, err)

	rows := testRows()
	rows = append(rows, Row{Angle: 360, Feature: FeatureNone})
	_, err = New(rows)
	assert.ErrorContains(t, err, "duplicate coil map angle")
}

func TestExact(t *testing.T) {
	t.Parallel()
	m := newTestMap(t)

	for _, r := range testRows() {
		got, ok := m.Exact(r.Angle)
		require.True(t, ok, "angle %v", r.Angle)
		assert.Equal(t, r, got)
	}

	_, ok := m.Exact(100)
	assert.False(t, ok)
}

func TestAtOrBefore(t *testing.T) {
	t.Parallel()
	m := newTestMap(t)

	t.Run("between rows returns the lower row", func(t *testing.T) {
		r, ok := m.AtOrBefore(4700)
		require.True(t, ok)
		assert.Equal(t, 4680.0, r.Angle)
		assert.Equal(t, FeatureTransition, r.Feature)
	})

	t.Run("exact interior match returns that row", func(t *testing.T) {
		r, ok := m.AtOrBefore(5040)
		require.True(t, ok)
		assert.Equal(t, 5040.0, r.Angle)
	})

	t.Run("before the first row is a miss", func(t *testing.T) {
		_, ok := m.AtOrBefore(-10)
		assert.False(t, ok)
	})

	t.Run("exact match at the final row is a miss", func(t *testing.T) {
		// The deployed controller cannot see its final coil map row via
		// an at-or-before lookup; the behavior is load bearing.
		_, ok := m.AtOrBefore(10080)
		assert.False(t, ok)
	})

	t.Run("past the final row returns the final row", func(t *testing.T) {
		r, ok := m.AtOrBefore(10081)
		require.True(t, ok)
		assert.Equal(t, 10080.0, r.Angle)
	})
}

func TestPrevAngle(t *testing.T) {
	t.Parallel()
	m := newTestMap(t)

	t.Run("exact match steps back", func(t *testing.T) {
		a, ok := m.PrevAngle(5040)
		require.True(t, ok)
		assert.Equal(t, 4680.0, a)
	})

	t.Run("between rows acts like at-or-before", func(t *testing.T) {
		a, ok := m.PrevAngle(5100)
		require.True(t, ok)
		assert.Equal(t, 5040.0, a)
	})

	t.Run("first row has no previous", func(t *testing.T) {
		_, ok := m.PrevAngle(0)
		assert.False(t, ok)
	})
}

func TestJoggleQueries(t *testing.T) {
	t.Parallel()
	m := newTestMap(t)

	t.Run("prev at exact joggle is that joggle", func(t *testing.T) {
		a, ok := m.PrevJoggle(5040)
		require.True(t, ok)
		assert.Equal(t, 5040.0, a)
	})

	t.Run("prev before all joggles misses", func(t *testing.T) {
		_, ok := m.PrevJoggle(1000)
		assert.False(t, ok)
	})

	t.Run("next at exact joggle is that joggle", func(t *testing.T) {
		a, ok := m.NextJoggle(5040)
		require.True(t, ok)
		assert.Equal(t, 5040.0, a)
	})

	t.Run("next past all joggles misses", func(t *testing.T) {
		_, ok := m.NextJoggle(9721)
		assert.False(t, ok)
	})
}

func TestJoggleWindow(t *testing.T) {
	t.Parallel()
	m := newTestMap(t)

	// Turn 14 rows carry the wide window, turn 1 the narrow one, and any
	// other turn has none.
	assert.Equal(t, JoggleLengthMax, m.JoggleWindow(5040))
	assert.Equal(t, JoggleLengthMin, m.JoggleWindow(9720))
	assert.Equal(t, 0.0, m.JoggleWindow(400))
}

func TestInTransition(t *testing.T) {
	t.Parallel()
	m := newTestMap(t)

	degPast, in, ok := m.InTransition(4690)
	require.True(t, ok)
	assert.True(t, in)
	assert.InDelta(t, 10.0, degPast, 1e-9)

	_, in, ok = m.InTransition(4680 + TransitionArcDeg + 1)
	require.True(t, ok)
	assert.False(t, in)

	_, in, ok = m.InTransition(400)
	require.True(t, ok)
	assert.False(t, in)

	_, _, ok = m.InTransition(-1)
	assert.False(t, ok)
}

func TestInJoggle(t *testing.T) {
	t.Parallel()
	m := newTestMap(t)

	in, ok := m.InJoggle(5040 + 10)
	require.True(t, ok)
	assert.True(t, in)

	in, ok = m.InJoggle(5040 + JoggleLengthMax + 1)
	require.True(t, ok)
	assert.False(t, in)

	in, ok = m.InJoggle(4700)
	require.True(t, ok)
	assert.False(t, in)
}

func TestLastMoveOfLayer(t *testing.T) {
	t.Parallel()
	m := newTestMap(t)

	t.Run("joggle lands before the next column", func(t *testing.T) {
		// Joggle at 5040 with window 28.12 ends before 5010+60.
		joggle, inWindow, last := m.LastMoveOfLayer(5010)
		require.True(t, last)
		assert.Equal(t, 5040.0, joggle)
		assert.False(t, inWindow)
	})

	t.Run("column inside the previous joggle window", func(t *testing.T) {
		joggle, inWindow, last := m.LastMoveOfLayer(5050)
		require.True(t, last)
		assert.Equal(t, 5040.0, joggle)
		assert.True(t, inWindow)
	})

	t.Run("mid layer", func(t *testing.T) {
		_, _, last := m.LastMoveOfLayer(7000)
		assert.False(t, last)
	})
}

func TestOddTurn14TransitionAngle(t *testing.T) {
	t.Parallel()
	m := newTestMap(t)

	a, ok := m.OddTurn14TransitionAngle(1)
	require.True(t, ok)
	assert.Equal(t, 4680.0, a)

	_, ok = m.OddTurn14TransitionAngle(2)
	assert.False(t, ok)
}

func TestFinalTurn(t *testing.T) {
	t.Parallel()

	assert.True(t, FinalTurn(14, false))
	assert.False(t, FinalTurn(1, false))
	assert.True(t, FinalTurn(1, true))
	assert.False(t, FinalTurn(14, true))
}

func TestLastHqpLayer(t *testing.T) {
	t.Parallel()

	for _, layer := range []int{6, 12, 18, 22, 28, 34, 40, 41} {
		assert.True(t, LastHqpLayer(layer), "layer %d", layer)
	}
	for _, layer := range []int{1, 5, 7, 21, 23, 39} {
		assert.False(t, LastHqpLayer(layer), "layer %d", layer)
	}
}

func TestMeasureCompressLayer(t *testing.T) {
	t.Parallel()

	assert.True(t, MeasureCompressLayer(4))
	assert.True(t, MeasureCompressLayer(41))
	assert.False(t, MeasureCompressLayer(5))
}
