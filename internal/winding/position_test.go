package winding

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/coilwinder/internal/coilmap"
)

func TestColumnForAngle(t *testing.T) {
	t.Parallel()
	for angle, want := range map[float64]int{
		30:   0,
		90:   1,
		150:  2,
		510:  1,
		-30:  5,
		4650: 5,
	} {
		got, err := columnForAngle(angle)
		require.NoError(t, err)
		assert.Equal(t, want, got, "angle %v", angle)
	}

	_, err := columnForAngle(45)
	require.Error(t, err)
}

func TestPopulateRecordAllAxes(t *testing.T) {
	t.Parallel()

	t.Run("plain absolute all", func(t *testing.T) {
		rec, err := populateRecord(populateInput{
			CoilAngle: 30,
			Mode:      AbsoluteAll,
			DistPos1:  RetreatStartPos,
			DistPos2:  AdvanceStartPos,
			NewHqp:    true,
		})
		require.NoError(t, err)
		assert.True(t, rec.IsAbsolute)
		assert.True(t, rec.IsNewHqp)
		assert.False(t, rec.Selected)
		for i := 0; i < NumFootAxes/2; i++ {
			assert.Equal(t, RetreatStartPos, rec.FootPos[i*2])
			assert.Equal(t, AdvanceStartPos, rec.FootPos[i*2+1])
			assert.Equal(t, PositionNotCalculated, rec.ColumnPos[i*2])
		}
	})

	t.Run("joggle column shifted on odd layer", func(t *testing.T) {
		rec, err := populateRecord(populateInput{
			CoilAngle: 90, // column B
			Mode:      AbsoluteAll,
			DistPos1:  RetreatStartPos,
			DistPos2:  AdvanceStartPos,
			InJoggle:  true,
		})
		require.NoError(t, err)
		assert.Equal(t, RetreatStartPos+53.0, rec.FootPos[2])
		assert.Equal(t, AdvanceStartPos-53.0, rec.FootPos[3])
		// other columns stay nominal
		assert.Equal(t, RetreatStartPos, rec.FootPos[0])
		assert.Equal(t, AdvanceStartPos, rec.FootPos[1])
	})

	t.Run("joggle column shifted on even layer", func(t *testing.T) {
		rec, err := populateRecord(populateInput{
			CoilAngle: 90,
			EvenLayer: true,
			Mode:      AbsoluteAll,
			DistPos1:  AdvanceStartPos,
			DistPos2:  RetreatStartPos,
			InJoggle:  true,
		})
		require.NoError(t, err)
		assert.Equal(t, AdvanceStartPos-53.0, rec.FootPos[2])
		assert.Equal(t, RetreatStartPos+53.0, rec.FootPos[3])
	})

	t.Run("last layer shifts retreating side only", func(t *testing.T) {
		rec, err := populateRecord(populateInput{
			CoilAngle: 90,
			Mode:      AbsoluteAll,
			DistPos1:  RetreatStartPos,
			DistPos2:  AdvanceStartPos,
			InJoggle:  true,
			LastLayer: true,
		})
		require.NoError(t, err)
		assert.Equal(t, RetreatStartPos+53.0, rec.FootPos[2])
		assert.Equal(t, AdvanceStartPos, rec.FootPos[3])
	})

	t.Run("off azimuth angle errors", func(t *testing.T) {
		_, err := populateRecord(populateInput{CoilAngle: 31, Mode: AbsoluteAll})
		require.Error(t, err)
	})
}

func TestPopulateRecordSelected(t *testing.T) {
	t.Parallel()

	t.Run("odd layer retreating selects inner foot", func(t *testing.T) {
		rec, err := populateRecord(populateInput{
			CoilAngle: 30,
			Role:      FootRetreating,
			Mode:      AbsoluteUpdateSelected,
			DistPos1:  53,
		})
		require.NoError(t, err)
		assert.True(t, rec.Selected)
		assert.Equal(t, FootAInner, rec.SelectedAxis)
		assert.True(t, rec.SelectedAxes[FootAInner-1])
		assert.Equal(t, 53.0, rec.SelectedDist)
		assert.True(t, rec.AbsAdjust)
		assert.True(t, rec.IsAbsolute)
	})

	t.Run("odd layer advancing selects outer foot", func(t *testing.T) {
		rec, err := populateRecord(populateInput{
			CoilAngle: 150,
			Role:      FootAdvancing,
			Mode:      AbsoluteSelected,
			DistPos1:  -13,
		})
		require.NoError(t, err)
		assert.Equal(t, FootCOuter, rec.SelectedAxis)
		assert.False(t, rec.AbsAdjust)
		assert.True(t, rec.IsAbsolute)
	})

	t.Run("even layer advancing selects inner foot", func(t *testing.T) {
		rec, err := populateRecord(populateInput{
			CoilAngle: 330,
			EvenLayer: true,
			Role:      FootAdvancing,
			Mode:      RelativeSelected,
			DistPos1:  -53,
		})
		require.NoError(t, err)
		assert.Equal(t, FootFInner, rec.SelectedAxis)
		assert.False(t, rec.IsAbsolute)
	})
}

// builderTestMap covers layer 1 (odd) ending at a turn-14 joggle at 5000,
// layer 2 (even) ending at a turn-1 joggle at 9800 where hex/quad pack 2
// begins, and a transition near the start of the coil for the lead
// release pair.
func builderTestMap(t *testing.T) *coilmap.Map {
	t.Helper()
	m, err := coilmap.New([]coilmap.Row{
		{Angle: 0, Feature: coilmap.FeatureLocalZero, Hqp: 1, Layer: 1, Turn: 1, Radius: 1100},
		{Angle: 320, Feature: coilmap.FeatureTransition, Hqp: 1, Layer: 1, Turn: 1, Radius: 1100},
		{Angle: 700, Feature: coilmap.FeatureNone, Hqp: 1, Layer: 1, Turn: 2, Radius: 1153},
		{Angle: 4700, Feature: coilmap.FeatureNone, Hqp: 1, Layer: 1, Turn: 14, Radius: 1789},
		{Angle: 5000, Feature: coilmap.FeatureJoggle, Hqp: 1, Layer: 2, Turn: 14, Radius: 1789},
		{Angle: 9700, Feature: coilmap.FeatureNone, Hqp: 1, Layer: 2, Turn: 1, Radius: 1100},
		{Angle: 9800, Feature: coilmap.FeatureJoggle, Hqp: 2, Layer: 3, Turn: 1, Radius: 1100},
		{Angle: 13100, Feature: coilmap.FeatureNone, Hqp: 2, Layer: 3, Turn: 14, Radius: 1789},
		{Angle: 13160, Feature: coilmap.FeatureJoggle, Hqp: 2, Layer: 4, Turn: 14, Radius: 1789},
		{Angle: 200000, Feature: coilmap.FeatureNone, Hqp: 2, Layer: 4, Turn: 14, Radius: 1789},
	})
	require.NoError(t, err)
	return m
}

func TestBuilderBuild(t *testing.T) {
	t.Parallel()
	m := builderTestMap(t)
	recs := NewBuilder(m).Build()
	require.NotEmpty(t, recs)

	byRIA := make(map[int]Record, len(recs))
	for _, r := range recs {
		byRIA[r.RIAAngle] = r
	}

	t.Run("records sorted by ria angle", func(t *testing.T) {
		for i := 1; i < len(recs); i++ {
			require.Greater(t, recs[i].RIAAngle, recs[i-1].RIAAngle)
		}
	})

	t.Run("start of coil seed", func(t *testing.T) {
		rec, ok := byRIA[-140]
		require.True(t, ok)
		assert.True(t, rec.IsNewHqp)
		assert.True(t, rec.IsAbsolute)
		assert.False(t, rec.Selected)
		assert.Equal(t, -90.0, rec.CoilAngle)
		assert.Equal(t, RetreatStartPos, rec.FootPos[0])
		assert.Equal(t, AdvanceStartPos, rec.FootPos[1])
		assert.Equal(t, PositionNotCalculated, rec.ColumnPos[0])
		assert.Contains(t, rec.LogicTrace, "Start of coil positions. Column Angle: -40.")
	})

	t.Run("lead release pair", func(t *testing.T) {
		tAdj := TransitionAdjustment(m, 330)
		require.Greater(t, tAdj, 0.0)

		inner, ok := byRIA[-130]
		require.True(t, ok)
		assert.True(t, inner.Selected)
		assert.Equal(t, FootFInner, inner.SelectedAxis)
		assert.True(t, inner.AbsAdjust)
		assert.True(t, inner.IsTransition)
		assert.InDelta(t, tAdj, inner.SelectedDist, 1e-9)
		assert.Contains(t, inner.LogicTrace, "Release lead.  Column Angle: -30.")

		outer, ok := byRIA[-80]
		require.True(t, ok)
		assert.Equal(t, FootFOuter, outer.SelectedAxis)
		assert.InDelta(t, -tAdj, outer.SelectedDist, 1e-9)
		assert.Contains(t, outer.LogicTrace, "Lead released.  Column Angle: -30.")
	})

	t.Run("first nominal advancing move", func(t *testing.T) {
		rec, ok := byRIA[-20] // column angle 30 less the advance lead
		require.True(t, ok)
		assert.True(t, rec.Selected)
		assert.Equal(t, FootAOuter, rec.SelectedAxis)
		assert.InDelta(t, -53.0, rec.SelectedDist, 1e-9)
		assert.True(t, rec.AbsAdjust)
		assert.Contains(t, rec.LogicTrace, "Column Ang: 30, ")
		assert.Contains(t, rec.LogicTrace, "Odd Layer(1), ")
		assert.Contains(t, rec.LogicTrace, "*MS: Adv Ft To Trn: 1. Adv (rel) A Foot Outer 53.000000 mm.")
	})

	t.Run("first nominal retreating move", func(t *testing.T) {
		rec, ok := byRIA[-70] // column angle 30 less the retreat lead
		require.True(t, ok)
		assert.Equal(t, FootAInner, rec.SelectedAxis)
		assert.InDelta(t, 53.0, rec.SelectedDist, 1e-9)
		assert.Contains(t, rec.LogicTrace, "*MS: Ret Ft To Trn: 2. Ret (rel) A Foot Inner 53.000000 mm.")
	})

	t.Run("column on transition", func(t *testing.T) {
		// at column angle 330 the full adjustment was already applied by
		// the lead release, so this turn adds nothing
		rec, ok := byRIA[230]
		require.True(t, ok)
		assert.True(t, rec.IsTransition)
		assert.Contains(t, rec.LogicTrace, "Past Trans by 10.000000 degs.")
		assert.InDelta(t, 53.0, rec.SelectedDist, 1e-9)
	})

	t.Run("column drifts off transition", func(t *testing.T) {
		// next turn of the same column, one turn past the window: the
		// remainder up to a full index is taken
		rec, ok := byRIA[590]
		require.True(t, ok)
		assert.True(t, rec.IsTransition)
		assert.Contains(t, rec.LogicTrace, "Now off trans. Adj:")
		want := 53.0 + (53.0 - TransitionAdjustment(m, 330))
		assert.InDelta(t, want, rec.SelectedDist, 1e-9)
	})

	t.Run("joggle region 1 retreating move", func(t *testing.T) {
		// column angle 4650 is about a turn ahead of the joggle at 5000
		rec, ok := byRIA[4550]
		require.True(t, ok)
		assert.True(t, rec.IsJoggle)
		assert.Contains(t, rec.LogicTrace, "Joggle in 350.000000 degs.")
		assert.InDelta(t, 53.0+26.5, rec.SelectedDist, 1e-9)
	})

	t.Run("joggle region 2 full retract", func(t *testing.T) {
		// column angle 5010 is just past the joggle at 5000
		rec, ok := byRIA[4910]
		require.True(t, ok)
		assert.True(t, rec.IsJoggle)
		assert.True(t, rec.IsAbsolute)
		assert.False(t, rec.AbsAdjust)
		assert.Equal(t, FullRetractPos, rec.SelectedDist)
		assert.Contains(t, rec.LogicTrace, "Ret Ft Full Retract, Adv Ft No Move, ")
		// the layer lookup has stepped to layer 2 but these feet are
		// finishing layer 1
		assert.Contains(t, rec.LogicTrace, "Odd Layer(1), ")
		assert.Equal(t, -1, rec.LayerAdjust)
	})

	t.Run("last turn advancing extends fully", func(t *testing.T) {
		// column angle 4710 sits on turn 14 of odd layer 1
		rec, ok := byRIA[4660]
		require.True(t, ok)
		assert.True(t, rec.IsLastTurn)
		assert.True(t, rec.IsAbsolute)
		assert.False(t, rec.AbsAdjust)
		assert.Equal(t, FullExtendPos, rec.SelectedDist)
		assert.Contains(t, rec.LogicTrace, "Adv (abs) A Foot Outer to 13.000000 mm.")
	})

	t.Run("new layer seed", func(t *testing.T) {
		// seeded from column angle 4970 ahead of the joggle at 5000
		rec, ok := byRIA[4925]
		require.True(t, ok)
		assert.True(t, rec.IsNewLayer)
		assert.False(t, rec.IsNewHqp)
		assert.Equal(t, 1, rec.LayerAdjust)
		// even layer: inner feet advance, outer feet retreat
		assert.Equal(t, AdvanceStartPos, rec.FootPos[0])
		assert.Equal(t, RetreatStartPos, rec.FootPos[1])
		assert.Contains(t, rec.LogicTrace, "New Even Layer Start Positions.")
	})

	t.Run("new hqp seed", func(t *testing.T) {
		// pack 2 starts at the joggle at 9800. Column angle 9810 falls
		// inside the joggle window, and the seed lands a joggle window
		// past the joggle less the retreat lead.
		rec, ok := byRIA[9716]
		require.True(t, ok)
		assert.True(t, rec.IsNewHqp)
		assert.Equal(t, 0, rec.HqpAdjust)
		assert.Equal(t, 0, rec.LayerAdjust)
		// column A feet at starts; column B (azimuth of 9810) carries the
		// joggle shift
		assert.Equal(t, RetreatStartPos, rec.FootPos[0])
		assert.Equal(t, AdvanceStartPos, rec.FootPos[1])
		assert.Equal(t, RetreatStartPos+53.0, rec.FootPos[2])
		assert.Equal(t, AdvanceStartPos-53.0, rec.FootPos[3])
		assert.Contains(t, rec.LogicTrace, "Post Load Positions (column in joggle window). Column Angle: 9810.")
	})

	t.Run("new layer seed inside joggle window", func(t *testing.T) {
		// column angle 13170 is inside the window of the layer joggle at
		// 13160; the seed goes at 13170 - 50 + 5
		rec, ok := byRIA[13125]
		require.True(t, ok)
		assert.True(t, rec.IsNewLayer)
		assert.Equal(t, 0, rec.LayerAdjust)
		assert.Contains(t, rec.LogicTrace, "New Even Layer Start Positions (column in joggle window).")
	})
}

func TestBuilderBuildDeterministic(t *testing.T) {
	t.Parallel()
	m := builderTestMap(t)
	a := NewBuilder(m).Build()
	b := NewBuilder(m).Build()
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("repeated builds differ (-first +second):\n%s", diff)
	}
}
