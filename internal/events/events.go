// Package events derives the operator event schedule from a coil map.
// Each event tells the sequencer to pause winding at a coil angle for a
// manual step such as loading a pack, removing the plow, or taking turn
// measurements.
package events

import (
	"math"
	"sort"

	"github.com/banshee-data/coilwinder/internal/coilmap"
	"github.com/banshee-data/coilwinder/internal/units"
)

// ID identifies an event type. The numbering is shared with the
// sequencer's event list; IDs below 1007 and the tape splice and
// inspection entries are scheduled by hand, not generated here.
type ID int

const (
	UserStop            ID = 1000
	AlarmStop           ID = 1001
	CalTool             ID = 1002
	InstallCoil         ID = 1003
	LoadFirstHex        ID = 1004
	InstallRiaAwh       ID = 1005
	InspectBurrs        ID = 1006
	LayerIncrement      ID = 1007
	ConsolidateOdd      ID = 1008
	TeachFiducial       ID = 1009
	HqpLoad             ID = 1010
	TapeSplice1         ID = 1011
	TapeSplice2         ID = 1012
	TapeSplice3         ID = 1013
	InspectFiducialMark ID = 1014
	RemovePlow          ID = 1015
	HePipeInsulation    ID = 1016
	EndOddLayer         ID = 1017
	OpenLandingRoller   ID = 1018
	EndEvenLayer        ID = 1019
	LayerCompression    ID = 1020
	TurnMeasurement     ID = 1021
	MoveEChain          ID = 1022
	LongLeadEndgame     ID = 1023
	HePipeMeasure       ID = 1024
)

// Event offsets in degrees from the triggering coil map row. The landing
// roller and landed turn offsets translate coil map angles (referenced to
// the 0U roller) to where the wrapping heads actually reach the feature.
const (
	offsetPlow          = -55.0
	offset0U            = 0.0
	offset2U            = 160.0
	offsetLandingRoller = 560.0
	offsetLandedTurn    = 960.0
	offsetFiducialLaser = 680.0

	angleOffsetSmall   = 8.0
	angleOffsetHePipe  = -30.0
	angleOffsetCoilEnd = -105.0

	// consolidation events repeat through the odd layer at this spacing
	consolidationInterval = 120.0
)

// Event is one scheduled stop.
type Event struct {
	Angle float64
	ID    ID
	Trace string
}

// Generate traverses the coil map and returns the generated events in
// angle order. Events at the same angle keep the order they were found.
func Generate(m *coilmap.Map) []Event {
	rows := m.Rows()
	var out []Event
	add := func(angle float64, id ID) {
		out = append(out, Event{Angle: angle, ID: id})
	}

	for i, row := range rows {
		next := coilmap.FeatureNone
		if i+1 < len(rows) {
			next = rows[i+1].Feature
		}
		joggle := row.Feature == coilmap.FeatureJoggle
		hePipe := row.Feature == coilmap.FeatureInnerLead || row.Feature == coilmap.FeatureOuterLead
		lastJoggle := joggle && next == coilmap.FeatureLocalZero
		oddLayer := row.Layer%2 == 1

		// joggles not ending a pack increment the layer counter, except
		// at the end of the coil where the energy chain moves instead
		if joggle && !lastJoggle {
			if row.Layer != units.LayersPerCoil-1 {
				add(row.Angle+offsetPlow, LayerIncrement)
			} else {
				add(row.Angle+offset0U, MoveEChain)
			}
		}

		if joggle && oddLayer {
			add(row.Angle+offsetLandingRoller-angleOffsetSmall, EndEvenLayer)

			// consolidation sweep: snap up to the hold spot grid 20
			// degrees past a 40 degree boundary, then repeat through the
			// layer to its turn 14 transition
			frac := math.Mod((row.Angle-20)/40, 1)
			frac = math.Mod(1-frac, 1)
			angle := row.Angle + offsetLandedTurn + 40*frac - angleOffsetCoilEnd
			if finish, ok := m.OddTurn14TransitionAngle(row.Layer); ok {
				for ; angle <= finish; angle += consolidationInterval {
					add(angle, ConsolidateOdd)
				}
			}
		}

		if joggle && !oddLayer {
			add(row.Angle+offsetLandingRoller-angleOffsetSmall, EndOddLayer)
		}

		if lastJoggle {
			add(row.Angle+offset0U, HqpLoad)
			add(row.Angle+offsetFiducialLaser, TeachFiducial)
		}

		if joggle && coilmap.MeasureCompressLayer(row.Layer) {
			add(row.Angle+offsetLandedTurn-angleOffsetSmall, LayerCompression)
			add(row.Angle+offsetLandedTurn-angleOffsetSmall, TurnMeasurement)
		}

		if hePipe {
			add(row.Angle+offsetPlow-angleOffsetSmall, RemovePlow)
			add(row.Angle+offset2U-angleOffsetHePipe, HePipeInsulation)
			add(row.Angle+offsetLandingRoller-angleOffsetSmall, OpenLandingRoller)
		}

		if row.Feature == coilmap.FeatureWeld && row.Layer == units.LayersPerCoil {
			add(row.Angle+offset0U-angleOffsetSmall, LongLeadEndgame)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Angle < out[j].Angle })
	return out
}
