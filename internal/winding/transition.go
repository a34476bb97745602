package winding

import (
	"math"

	"github.com/banshee-data/coilwinder/internal/coilmap"
	"github.com/banshee-data/coilwinder/internal/units"
)

// Transition geometry. Each layer-to-layer transition is a straight ramp
// followed by an arc that together carry the conductor one turn index
// (53 mm) radially over 27.06 degrees of coil rotation.
const (
	transStraightLength = 220.25
	transArcDeg         = coilmap.TransitionArcDeg
)

// transArcRadius is the radius of the arc segment center line.
func transArcRadius() float64 {
	return transStraightLength / math.Sin(units.DegToRad(transArcDeg))
}

// TransitionAdjustment returns the radial foot adjustment in mm for a
// column at the given coil angle, which must land inside a transition
// window. The adjustment is how far the conductor has ramped away from
// the turn radius recorded at the transition start row.
//
// Odd layers wind inward so the ramp runs arc first then straight; even
// layers wind outward and run straight first then arc. A coil angle with
// no transition row at or before it yields zero.
func TransitionAdjustment(m *coilmap.Map, coilAngle float64) float64 {
	row, ok := m.AtOrBefore(coilAngle)
	if !ok {
		return 0
	}

	ro := transArcRadius()
	a := coilAngle - row.Angle

	if row.Layer%2 != 0 {
		// odd layer, winding inward
		r2 := row.Radius
		r1 := r2 - units.TurnIndexNominal
		rArc := r2 - ro
		angleChange := transArcDeg - units.RadToDeg(math.Atan(transStraightLength/r1))

		switch {
		case a >= 0 && a <= angleChange:
			aRad := units.DegToRad(a)
			r := ro*math.Cos(aRad) + math.Sqrt(rArc*rArc-ro*ro*math.Sin(aRad)*math.Sin(aRad))
			return r2 - r
		case a > angleChange && a <= transArcDeg:
			r := r1 / math.Cos(units.DegToRad(transArcDeg-a))
			return r2 - r
		default:
			return 0
		}
	}

	// even layer, winding outward
	r1 := row.Radius
	r2 := r1 + units.TurnIndexNominal
	rArc := r2 - ro
	angleChange := units.RadToDeg(math.Atan(transStraightLength / r1))

	switch {
	case a >= 0 && a <= angleChange:
		r := r1 / math.Cos(units.DegToRad(a))
		return r - r1
	case a > angleChange && a <= transArcDeg:
		bRad := units.DegToRad(a - transArcDeg)
		r := ro*math.Cos(bRad) + math.Sqrt(rArc*rArc-ro*ro*math.Sin(bRad)*math.Sin(bRad))
		return r - r1
	default:
		return 0
	}
}
