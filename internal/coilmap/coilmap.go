// Package coilmap holds the in-memory index over the coil map table. The
// map is keyed by absolute coil angle and answers the ordered lookups the
// position and event generators make while walking the coil.
package coilmap

import (
	"fmt"
	"sort"

	"github.com/banshee-data/coilwinder/internal/units"
)

// Feature codes carried by coil map rows.
const (
	FeatureTransition = "T"
	FeatureOuterLead  = "O"
	FeatureInnerLead  = "I"
	FeatureJoggle     = "J"
	FeatureWeld       = "W"
	FeatureLocalZero  = "L"

	// FeatureNone is the sentinel reported when a lookup has no row to
	// describe.
	FeatureNone = "none"
)

// Window geometry of the features the lookups test against.
const (
	// JoggleLengthMin is the angular extent of a turn 1 joggle in degrees.
	JoggleLengthMin = 16.18
	// JoggleLengthMax is the angular extent of a turn 14 joggle in degrees.
	JoggleLengthMax = 28.12
	// TransitionArcDeg is the angular extent of a layer transition window.
	TransitionArcDeg = 27.06
)

// Row is one coil map entry: a machine feature at an absolute coil angle.
type Row struct {
	Angle   float64
	Feature string
	Hqp     int
	Layer   int
	Turn    int
	Azimuth float64
	Radius  float64
}

// Map is an ordered index over coil map rows. It is immutable after New
// and safe for concurrent readers.
type Map struct {
	rows []Row

	// joggles holds the angles of the J rows in ascending order.
	joggles []float64

	// oddT14Trans maps layer number to the angle of the transition row on
	// turn 14 of that odd layer. Drives the consolidation event sweep.
	oddT14Trans map[int]float64
}

// measureCompressLayers are the layers after which the machine pauses for
// layer compression and turn measurement.
var measureCompressLayers = map[int]bool{
	4: true, 7: true, 10: true, 13: true, 16: true, 19: true, 21: true,
	23: true, 26: true, 29: true, 32: true, 35: true, 38: true, 41: true,
}

// New builds a Map from coil map rows. Rows are sorted by angle; duplicate
// angles are rejected because the angle is the row key.
func New(rows []Row) (*Map, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("coil map is empty")
	}
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Angle < sorted[j].Angle })

	m := &Map{
		rows:        sorted,
		oddT14Trans: make(map[int]float64),
	}
	for i, r := range sorted {
		if i > 0 && sorted[i-1].Angle == r.Angle {
			return nil, fmt.Errorf("duplicate coil map angle %v", r.Angle)
		}
		if r.Feature == FeatureJoggle {
			m.joggles = append(m.joggles, r.Angle)
		}
		if r.Feature == FeatureTransition && r.Turn == units.TurnsPerLayer && r.Layer%2 == 1 {
			m.oddT14Trans[r.Layer] = r.Angle
		}
	}
	return m, nil
}

// Rows returns the rows in ascending angle order. Callers must not mutate
// the returned slice.
func (m *Map) Rows() []Row { return m.rows }

// Len returns the number of rows.
func (m *Map) Len() int { return len(m.rows) }

// upperBound returns the index of the first row strictly past angle.
func (m *Map) upperBound(angle float64) int {
	return sort.Search(len(m.rows), func(i int) bool { return m.rows[i].Angle > angle })
}

// Exact returns the row keyed exactly at angle.
func (m *Map) Exact(angle float64) (Row, bool) {
	i := m.upperBound(angle)
	if i == 0 || m.rows[i-1].Angle != angle {
		return Row{}, false
	}
	return m.rows[i-1], true
}

// AtOrBefore returns the row at or before angle.
//
// Compatibility quirk: when angle equals the angle of the final row the
// lookup reports no result, even though the final row is an exact match.
// The deployed controller behaves this way and downstream tables were
// commissioned against it, so the behavior is kept. Do not fix without a
// machine revalidation.
func (m *Map) AtOrBefore(angle float64) (Row, bool) {
	i := m.upperBound(angle)
	if i == 0 {
		return Row{}, false
	}
	if i == len(m.rows) && m.rows[i-1].Angle == angle {
		return Row{}, false
	}
	return m.rows[i-1], true
}

// AngleAtOrBefore returns the angle of the row at or before angle.
func (m *Map) AngleAtOrBefore(angle float64) (float64, bool) {
	r, ok := m.AtOrBefore(angle)
	return r.Angle, ok
}

// FeatureAtOrBefore returns the feature code of the row at or before
// angle, or FeatureNone when there is no such row.
func (m *Map) FeatureAtOrBefore(angle float64) (string, bool) {
	r, ok := m.AtOrBefore(angle)
	if !ok {
		return FeatureNone, false
	}
	return r.Feature, true
}

// HqpAtOrBefore returns the hex/quad pancake number of the row at or
// before angle.
func (m *Map) HqpAtOrBefore(angle float64) (int, bool) {
	r, ok := m.AtOrBefore(angle)
	return r.Hqp, ok
}

// LayerAtOrBefore returns the layer of the row at or before angle.
func (m *Map) LayerAtOrBefore(angle float64) (int, bool) {
	r, ok := m.AtOrBefore(angle)
	return r.Layer, ok
}

// TurnAtOrBefore returns the turn of the row at or before angle.
func (m *Map) TurnAtOrBefore(angle float64) (int, bool) {
	r, ok := m.AtOrBefore(angle)
	return r.Turn, ok
}

// RadiusAtOrBefore returns the nominal radius of the row at or before angle.
func (m *Map) RadiusAtOrBefore(angle float64) (float64, bool) {
	r, ok := m.AtOrBefore(angle)
	return r.Radius, ok
}

// PrevAngle returns the greatest row angle strictly before an exact-match
// angle, or the at-or-before angle when angle falls between rows.
func (m *Map) PrevAngle(angle float64) (float64, bool) {
	i := sort.Search(len(m.rows), func(j int) bool { return m.rows[j].Angle >= angle })
	if i == 0 || i == len(m.rows) {
		return 0, false
	}
	return m.rows[i-1].Angle, true
}

// EvenLayerAt reports whether the layer at or before angle is even.
func (m *Map) EvenLayerAt(angle float64) (even, ok bool) {
	layer, ok := m.LayerAtOrBefore(angle)
	if !ok {
		return false, false
	}
	return layer%2 == 0, true
}

// PrevJoggle returns the angle of the joggle at or before angle.
func (m *Map) PrevJoggle(angle float64) (float64, bool) {
	i := sort.Search(len(m.joggles), func(j int) bool { return m.joggles[j] > angle })
	if i == 0 {
		return 0, false
	}
	return m.joggles[i-1], true
}

// NextJoggle returns the angle of the joggle at or after angle.
func (m *Map) NextJoggle(angle float64) (float64, bool) {
	i := sort.Search(len(m.joggles), func(j int) bool { return m.joggles[j] >= angle })
	if i == len(m.joggles) {
		return 0, false
	}
	return m.joggles[i], true
}

// JoggleWindow returns the joggle window length in degrees at angle.
// Joggles only occur on the first and last turn of a layer; any other turn
// has no window.
func (m *Map) JoggleWindow(angle float64) float64 {
	turn, ok := m.TurnAtOrBefore(angle)
	if !ok {
		return 0
	}
	switch turn {
	case 1:
		return JoggleLengthMin
	case units.TurnsPerLayer:
		return JoggleLengthMax
	}
	return 0
}

// InTransition reports whether angle falls inside a transition window:
// the row at or before it is a transition and the angle is within the
// transition arc of it. degPast is how far past the transition row the
// angle is, valid whenever ok is true.
func (m *Map) InTransition(angle float64) (degPast float64, in, ok bool) {
	r, ok := m.AtOrBefore(angle)
	if !ok {
		return 0, false, false
	}
	degPast = angle - r.Angle
	return degPast, r.Feature == FeatureTransition && degPast <= TransitionArcDeg, true
}

// InJoggle reports whether angle falls inside a joggle window.
func (m *Map) InJoggle(angle float64) (in, ok bool) {
	r, ok := m.AtOrBefore(angle)
	if !ok {
		return false, false
	}
	return r.Feature == FeatureJoggle && angle-r.Angle <= m.JoggleWindow(angle), true
}

// LastMoveOfLayer reports whether angle is the last column move before a
// layer (or hex/quad) boundary. When it is, joggleAngle is the boundary
// joggle: the next joggle when it starts and ends before the next column,
// or the previous joggle when its window still covers angle, in which case
// inWindow is also true.
func (m *Map) LastMoveOfLayer(angle float64) (joggleAngle float64, inWindow, last bool) {
	if next, ok := m.NextJoggle(angle); ok {
		if next+m.JoggleWindow(next) < angle+units.ColumnIncrement {
			return next, false, true
		}
	}
	if prev, ok := m.PrevJoggle(angle); ok {
		if prev+m.JoggleWindow(prev) >= angle {
			return prev, true, true
		}
	}
	return 0, false, false
}

// OddTurn14TransitionAngle returns the angle of the transition row on turn
// 14 of the given odd layer.
func (m *Map) OddTurn14TransitionAngle(layer int) (float64, bool) {
	a, ok := m.oddT14Trans[layer]
	return a, ok
}

// FinalTurn reports whether turn is the last turn wound on a layer. Odd
// layers wind outward ending on turn 14; even layers wind back in ending
// on turn 1.
func FinalTurn(turn int, evenLayer bool) bool {
	if evenLayer {
		return turn == 1
	}
	return turn == units.TurnsPerLayer
}

// LastHqpLayer reports whether layer is the final layer of its hex/quad
// pancake. Hex packs end on layers 6, 12, 18, 28 and 34; the two quad
// packs end on 22 and 40.
func LastHqpLayer(layer int) bool {
	switch layer {
	case 6, 12, 18, 22, 28, 34:
		return true
	}
	return layer >= 40
}

// MeasureCompressLayer reports whether layer is followed by a layer
// compression and turn measurement pause.
func MeasureCompressLayer(layer int) bool {
	return measureCompressLayers[layer]
}
