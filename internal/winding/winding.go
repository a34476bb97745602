// Package winding turns a coil map into per-column axis position records
// for the winding machine motion controller. Records are produced in a
// single pass over coil angle and keyed by the rotary indexer (RIA) angle
// at which the controller should apply them.
package winding

import "fmt"

// Axis identifies one controllable axis on the winding table. Each of the
// six column stations (A through F) has an inner and an outer foot plus an
// inner and an outer column actuator.
type Axis int

const (
	AxisUnknown Axis = iota
	FootAInner
	FootAOuter
	FootBInner
	FootBOuter
	FootCInner
	FootCOuter
	FootDInner
	FootDOuter
	FootEInner
	FootEOuter
	FootFInner
	FootFOuter
	ColumnAInner
	ColumnAOuter
	ColumnBInner
	ColumnBOuter
	ColumnCInner
	ColumnCOuter
	ColumnDInner
	ColumnDOuter
	ColumnEInner
	ColumnEOuter
	ColumnFInner
	ColumnFOuter
)

// NumFootAxes is the count of foot axes, and also the count of column axes.
const NumFootAxes = 12

// String returns the operator-facing axis name used in move summaries.
func (a Axis) String() string {
	if a >= FootAInner && a <= FootFOuter {
		n := int(a - FootAInner)
		side := "Inner"
		if n%2 == 1 {
			side = "Outer"
		}
		return fmt.Sprintf("%c Foot %s", 'A'+byte(n/2), side)
	}
	if a >= ColumnAInner && a <= ColumnFOuter {
		n := int(a - ColumnAInner)
		side := "Inner"
		if n%2 == 1 {
			side = "Outer"
		}
		return fmt.Sprintf("%c Column %s", 'A'+byte(n/2), side)
	}
	return "Unknown Index!"
}

// Foot positions in mm of actuator travel. The feet run between a fully
// retracted position near max travel and a fully extended position past
// zero. Advance and retreat start positions are where a foot waits before
// its first indexing move on a layer.
const (
	// InitialNoPosition marks an axis that has never been commanded.
	InitialNoPosition = -20000.0

	// PositionNotCalculated fills axis slots the generator does not
	// compute, such as column actuators in an all-axes record.
	PositionNotCalculated = -10000.0

	FullRetractPos = 735.0
	FullExtendPos  = -13.0

	RetreatStartPos = -13.0
	AdvanceStartPos = 729.0
)

// RIA lead angles. A record keyed at (coil angle - offset) is applied by
// the controller that many degrees of coil rotation before the column it
// moves reaches the wind point.
const (
	AdvanceRIAOffset = 50
	RetreatRIAOffset = 100

	// NewLayerRIAOffset shifts a layer-start record a few degrees later
	// than a normal advancing move so it lands after the layer's last
	// retreating record.
	NewLayerRIAOffset = 5
)

// Column azimuths in degrees. Column A sits at 30 and the stations step
// by 60 around the table.
const (
	ColumnAAzimuth = 30.0
	ColumnBAzimuth = 90.0
	ColumnCAzimuth = 150.0
	ColumnDAzimuth = 210.0
	ColumnEAzimuth = 270.0
	ColumnFAzimuth = 330.0
)

// Start-of-coil record angles. These three records are seeded before the
// main pass begins; the lead release pair is only produced when the coil
// map starts inside a transition window.
const (
	StartOfCoilRIAAngle    = -140.0
	LeadReleaseInnerRIA    = -130.0
	LeadReleaseOuterRIA    = -80.0
	StartOfCoilLookupAngle = 330.0
)

// FootRole distinguishes the foot moving toward the wind point from the
// foot moving away from it on a given turn.
type FootRole int

const (
	FootRetreating FootRole = iota
	FootAdvancing
)

func (r FootRole) String() string {
	if r == FootAdvancing {
		return "advancing"
	}
	return "retreating"
}
