package winding

import (
	"math"

	"github.com/banshee-data/coilwinder/internal/coilmap"
	"github.com/banshee-data/coilwinder/internal/units"
)

// JoggleAdjustment classifies how the feet behave around a joggle. A
// joggle interrupts the nominal index pattern for roughly three columns:
// one approaching it, one just past it, and one a full turn past it.
type JoggleAdjustment int

const (
	// JoggleNominal: no joggle nearby, both feet index normally.
	JoggleNominal JoggleAdjustment = iota

	// JoggleRetreatAdjust (region 1): joggle about a turn ahead. The
	// retreating foot gets an extra half index, the advancing foot is
	// nominal.
	JoggleRetreatAdjust

	// JoggleRetreatFull (region 2): joggle just behind. The retreating
	// foot fully retracts and the advancing foot holds.
	JoggleRetreatFull

	// JoggleRetreatHold (region 3): joggle about a turn behind. The
	// classifier no longer emits this value, see ClassifyJoggle. Kept so
	// the builder branches for it survive.
	JoggleRetreatHold
)

// Joggle region thresholds in degrees relative to the column angle.
const (
	joggleRetractAdjThreshold  = 360.0
	joggleFullRetractThreshold = 0.0
	joggleAdvToFirstThreshold  = -360.0
)

// ClassifyJoggle places a column angle into a joggle region. degToNext and
// degToPrev are the signed distances to the surrounding joggles (degToPrev
// is negative once past one); jAdj is the retreating-foot adjustment in mm
// and is only nonzero in region 1.
//
// Region 3 used to hold the retreating foot and index the advancing foot.
// After the foot role swap between regions 2 and 3 was removed from the
// controller sequence, region 3 columns take nominal moves, so the region
// 3 window classifies as nominal here.
func ClassifyJoggle(m *coilmap.Map, angle float64) (adj JoggleAdjustment, degToNext, degToPrev, jAdj float64) {
	degToNext = math.Inf(1)
	var nextLen float64
	if next, ok := m.NextJoggle(angle); ok {
		degToNext = next - angle
		nextLen = m.JoggleWindow(next)
	}
	degToPrev = math.Inf(-1)
	var prevLen float64
	if prev, ok := m.PrevJoggle(angle); ok {
		degToPrev = prev - angle
		prevLen = m.JoggleWindow(prev)
	}

	switch {
	case joggleRetractAdjThreshold < degToNext &&
		(joggleAdvToFirstThreshold-prevLen) > degToPrev:
		// next joggle too far ahead for region 1, previous too far back
		// for regions 2 or 3
		return JoggleNominal, degToNext, degToPrev, 0
	case joggleRetractAdjThreshold >= degToNext &&
		(joggleRetractAdjThreshold-nextLen) <= degToNext:
		return JoggleRetreatAdjust, degToNext, degToPrev, units.TurnIndexNominal / 2.0
	case joggleFullRetractThreshold >= degToPrev &&
		(joggleFullRetractThreshold-prevLen) <= degToPrev:
		return JoggleRetreatFull, degToNext, degToPrev, 0
	case joggleAdvToFirstThreshold >= degToPrev &&
		(joggleAdvToFirstThreshold-prevLen) <= degToPrev:
		// region 3 window, nominal moves for both feet
		return JoggleNominal, degToNext, degToPrev, 0
	default:
		return JoggleNominal, degToNext, degToPrev, 0
	}
}
