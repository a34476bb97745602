package winding

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/banshee-data/coilwinder/internal/coilmap"
	"github.com/banshee-data/coilwinder/internal/monitoring"
	"github.com/banshee-data/coilwinder/internal/units"
)

// InsertMode selects how a record's distances are interpreted and which
// insert path the store uses for it.
type InsertMode int

const (
	// RelativeSelected moves one selected axis by a relative distance.
	RelativeSelected InsertMode = iota

	// AbsoluteSelected moves one selected axis to an absolute position.
	AbsoluteSelected

	// AbsoluteUpdateSelected carries a relative distance that the store
	// applies to the axis's previous absolute position, producing a new
	// absolute row.
	AbsoluteUpdateSelected

	// RelativeAll moves every foot axis by the given distances.
	RelativeAll

	// AbsoluteAll moves every foot axis to the given positions.
	AbsoluteAll
)

// Record is one row of the axis position table: the commanded foot (and
// column) positions for a single RIA angle, plus the flags and trace the
// operator displays use.
type Record struct {
	RIAAngle  int
	CoilAngle float64

	// FootPos and ColumnPos are indexed by station pair: element 2n is
	// the inner axis of station n, element 2n+1 the outer.
	FootPos   [NumFootAxes]float64
	ColumnPos [NumFootAxes]float64

	// Selected-axis records move a single axis and leave the arrays
	// untouched.
	Selected     bool
	SelectedAxes [NumFootAxes * 2]bool
	SelectedAxis Axis
	SelectedDist float64
	AbsAdjust    bool

	LogicTrace   string
	IsAbsolute   bool
	IsTransition bool
	IsJoggle     bool
	IsNewHqp     bool
	IsNewLayer   bool
	IsLastTurn   bool
	IsLastLayer  bool
	HqpAdjust    int
	LayerAdjust  int
}

// columnForAngle maps a coil angle to its station index 0..5. The angle
// must land on a column azimuth.
func columnForAngle(coilAngle float64) (int, error) {
	azi := int(math.Mod(coilAngle, 360))
	if azi < 0 {
		azi += 360
	}
	switch float64(azi) {
	case ColumnAAzimuth:
		return 0, nil
	case ColumnBAzimuth:
		return 1, nil
	case ColumnCAzimuth:
		return 2, nil
	case ColumnDAzimuth:
		return 3, nil
	case ColumnEAzimuth:
		return 4, nil
	case ColumnFAzimuth:
		return 5, nil
	}
	return 0, fmt.Errorf("coil angle %v is not on a column azimuth", coilAngle)
}

// ftoa formats trace floats with the fixed six decimal places the
// operator displays were commissioned against.
func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

type populateInput struct {
	CoilAngle          float64
	EvenLayer          bool
	Role               FootRole
	Mode               InsertMode
	DistPos1, DistPos2 float64
	Trace              string

	InTransition bool
	InJoggle     bool
	NewHqp       bool
	NewLayer     bool
	LastTurn     bool
	LastLayer    bool

	HqpAdjust   int
	LayerAdjust int
}

// populateRecord builds a Record from the inputs. All-axes modes place
// the inner feet at DistPos1 and the outer feet at DistPos2, with the
// joggle column shifted by an index when the joggle flag is set; the
// column actuators get a sentinel since their positions are only known
// at run time. Selected modes place DistPos1 on the one foot implied by
// layer parity and foot role.
func populateRecord(in populateInput) (Record, error) {
	col, err := columnForAngle(in.CoilAngle)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		CoilAngle:    in.CoilAngle,
		LogicTrace:   in.Trace,
		IsTransition: in.InTransition,
		IsJoggle:     in.InJoggle,
		IsNewHqp:     in.NewHqp,
		IsNewLayer:   in.NewLayer,
		IsLastTurn:   in.LastTurn,
		IsLastLayer:  in.LastLayer,
		HqpAdjust:    in.HqpAdjust,
		LayerAdjust:  in.LayerAdjust,
	}
	for i := range rec.FootPos {
		rec.FootPos[i] = InitialNoPosition
		rec.ColumnPos[i] = InitialNoPosition
	}

	switch in.Mode {
	case AbsoluteAll, RelativeAll:
		rec.IsAbsolute = in.Mode == AbsoluteAll
		for i := 0; i < NumFootAxes/2; i++ {
			inner, outer := in.DistPos1, in.DistPos2
			if in.InJoggle && in.Mode == AbsoluteAll && i == col {
				// The joggle column's advancing foot starts a turn
				// extended and its retreating foot a turn retracted. On
				// the last layer only the retreating-side shift applies.
				switch {
				case !in.EvenLayer && !in.LastLayer:
					inner += units.TurnIndexNominal
					outer -= units.TurnIndexNominal
				case !in.EvenLayer && in.LastLayer:
					inner += units.TurnIndexNominal
				case in.EvenLayer && !in.LastLayer:
					inner -= units.TurnIndexNominal
					outer += units.TurnIndexNominal
				case in.EvenLayer && in.LastLayer:
					outer += units.TurnIndexNominal
				}
			}
			rec.FootPos[i*2] = inner
			rec.FootPos[i*2+1] = outer
			rec.ColumnPos[i*2] = PositionNotCalculated
			rec.ColumnPos[i*2+1] = PositionNotCalculated
		}
		return rec, nil

	case RelativeSelected, AbsoluteSelected, AbsoluteUpdateSelected:
		// Odd layers retreat on the inner feet and advance on the outer;
		// even layers the reverse.
		var axis Axis
		if (in.EvenLayer && in.Role == FootAdvancing) || (!in.EvenLayer && in.Role == FootRetreating) {
			axis = Axis(col*2 + 1) // inner foot
		} else {
			axis = Axis(col*2 + 2) // outer foot
		}
		rec.Selected = true
		rec.SelectedAxes[axis-1] = true
		rec.SelectedAxis = axis
		rec.SelectedDist = in.DistPos1
		rec.AbsAdjust = in.Mode == AbsoluteUpdateSelected
		rec.IsAbsolute = in.Mode == AbsoluteSelected || in.Mode == AbsoluteUpdateSelected
		return rec, nil
	}
	return Record{}, fmt.Errorf("insert mode %d not handled", in.Mode)
}

// Builder generates the full axis position table from a coil map in one
// pass over coil angle.
type Builder struct {
	m       *coilmap.Map
	records map[int]Record

	// transition adjustment accumulator and per-station marks
	tAccum  float64
	adjMark [NumFootAxes / 2]bool
}

func NewBuilder(m *coilmap.Map) *Builder {
	return &Builder{m: m, records: make(map[int]Record)}
}

// mapRecord keys the record by RIA angle rounded to a whole degree. A
// later record at the same key replaces the earlier one.
func (b *Builder) mapRecord(ria float64, rec Record) {
	key := int(math.Round(ria))
	rec.RIAAngle = key
	b.records[key] = rec
}

func (b *Builder) setTransAdjust(angle float64) {
	if col, err := columnForAngle(angle); err == nil {
		b.adjMark[col] = true
	}
}

func (b *Builder) transAdjustSet(angle float64) bool {
	col, err := columnForAngle(angle)
	if err != nil {
		return false
	}
	return b.adjMark[col]
}

func (b *Builder) clearTransAdjust() {
	b.adjMark = [NumFootAxes / 2]bool{}
}

// Records returns the generated records in RIA angle order.
func (b *Builder) Records() []Record {
	keys := make([]int, 0, len(b.records))
	for k := range b.records {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]Record, 0, len(keys))
	for _, k := range keys {
		out = append(out, b.records[k])
	}
	return out
}

// seedCoilStart seeds the start-of-coil records: the post load row that
// establishes the starting foot positions, then the F Inner retract and
// F Outer advance pair that release the lead tail. The pair is only made
// when the map starts inside a transition window, which it always should.
func (b *Builder) seedCoilStart() {
	// The row's coil angle sits one column before the angle named in the
	// trace. The position tables were commissioned this way.
	trace := fmt.Sprintf("Start of coil positions. Column Angle: %d. Inner feet to retr. start, Outer feet to adv. start. Columns not known, use sentinel.",
		int64(ColumnFAzimuth-10-360))
	rec, err := populateRecord(populateInput{
		CoilAngle: ColumnEAzimuth - 360,
		Role:      FootAdvancing,
		Mode:      AbsoluteAll,
		DistPos1:  RetreatStartPos,
		DistPos2:  AdvanceStartPos,
		Trace:     trace,
		NewHqp:    true,
	})
	if err != nil {
		monitoring.Logf("populating start of coil positions at ria angle %v: row not added: %v", StartOfCoilRIAAngle, err)
	} else {
		b.mapRecord(StartOfCoilRIAAngle, rec)
	}

	degPast, in, ok := b.m.InTransition(StartOfCoilLookupAngle)
	if !ok || !in {
		return
	}

	b.setTransAdjust(StartOfCoilLookupAngle)
	tAdj := TransitionAdjustment(b.m, StartOfCoilLookupAngle)
	b.tAccum = tAdj

	trace = fmt.Sprintf("Release lead.  Column Angle: %d. F Inner past trans. by %s degs. Retract %s mm.",
		int64(ColumnFAzimuth-360), ftoa(degPast), ftoa(tAdj))
	rec, err = populateRecord(populateInput{
		CoilAngle:    ColumnFAzimuth - 360,
		Role:         FootRetreating,
		Mode:         AbsoluteUpdateSelected,
		DistPos1:     math.Abs(tAdj),
		Trace:        trace,
		InTransition: true,
	})
	if err != nil {
		monitoring.Logf("populating lead release retract at ria angle %v: row not added: %v", LeadReleaseInnerRIA, err)
	} else {
		b.mapRecord(LeadReleaseInnerRIA, rec)
	}

	trace = fmt.Sprintf("Lead released.  Column Angle: %d. F Outer past trans. by %s degs. Advance %s mm.",
		int64(ColumnFAzimuth-360), ftoa(degPast), ftoa(tAdj))
	rec, err = populateRecord(populateInput{
		CoilAngle:    ColumnFAzimuth - 360,
		Role:         FootAdvancing,
		Mode:         AbsoluteUpdateSelected,
		DistPos1:     -math.Abs(tAdj),
		Trace:        trace,
		InTransition: true,
	})
	if err != nil {
		monitoring.Logf("populating lead release advance at ria angle %v: row not added: %v", LeadReleaseOuterRIA, err)
	} else {
		b.mapRecord(LeadReleaseOuterRIA, rec)
	}
}

// seedPostLoad seeds the starting foot positions for a new hex/quad pack
// loaded at the given column angle. The record lands a joggle window past
// the boundary joggle, less the retreating foot lead.
func (b *Builder) seedPostLoad(angle float64, inWindow bool) {
	var (
		newHqpAngle      float64
		hqpAdj, layerAdj int
		trace            string
		found            bool
	)
	if !inWindow {
		if j, ok := b.m.NextJoggle(angle); ok {
			newHqpAngle = (j + coilmap.JoggleLengthMin) - RetreatRIAOffset
			// map values at the joggle are already on the new hqp and
			// layer, but this row belongs to them
			hqpAdj, layerAdj = 1, 1
			trace = fmt.Sprintf("Post Load Positions. Column Angle: %d. Inner feet to Retr. Start, Outer to Adv. Start. Columns not known, use sentinel.", int64(angle))
			found = true
		}
	} else {
		if j, ok := b.m.PrevJoggle(angle); ok {
			newHqpAngle = (j + coilmap.JoggleLengthMin) - RetreatRIAOffset
			trace = fmt.Sprintf("Post Load Positions (column in joggle window). Column Angle: %d. Inner feet to Retr. Start, Outer to Adv. Start. Columns not known, use sentinel.", int64(angle))
			found = true
		}
	}
	if !found {
		newHqpAngle = PositionNotCalculated
		trace = fmt.Sprintf("Error looking up HQP LB at Column Angle: %d. Trying to enter post load feet positions.", int64(angle))
	}

	rec, err := populateRecord(populateInput{
		CoilAngle:   angle,
		Role:        FootAdvancing,
		Mode:        AbsoluteAll,
		DistPos1:    RetreatStartPos,
		DistPos2:    AdvanceStartPos,
		Trace:       trace,
		InJoggle:    inWindow,
		NewHqp:      true,
		HqpAdjust:   hqpAdj,
		LayerAdjust: layerAdj,
	})
	if err != nil {
		monitoring.Logf("populating new hqp foot positions at ria angle %v: row not added: %v", newHqpAngle, err)
		return
	}
	b.mapRecord(newHqpAngle, rec)
}

// newLayerRIA returns where a new layer's starting positions row goes and
// whether that layer is even, judged at the boundary joggle.
func (b *Builder) newLayerRIA(coilAngle, joggleAngle float64) (ria float64, even bool) {
	ria = coilAngle - AdvanceRIAOffset + NewLayerRIAOffset
	even, _ = b.m.EvenLayerAt(joggleAngle)
	return ria, even
}

// seedNewLayer seeds the starting foot positions for a new layer.
func (b *Builder) seedNewLayer(ria, coilAngle float64, even, lastLayer, inWindow, newHqp bool) {
	var (
		trace              string
		distPos1, distPos2 float64
		layerAdj           int
	)
	if !inWindow {
		layerAdj = 1
	}
	switch {
	case even && !inWindow:
		trace = fmt.Sprintf("New Even Layer Start Positions. Column Angle: %d. Inner feet to adv. start, Outer feet to retr. start. Columns not known, use sentinel.", int64(coilAngle))
	case even && inWindow:
		trace = fmt.Sprintf("New Even Layer Start Positions (column in joggle window). Column Angle: %d. Inner feet to adv. start, Outer feet to retr. start. Columns not known, use sentinel.", int64(coilAngle))
	case !even && !inWindow:
		trace = fmt.Sprintf("New Odd Layer Start Positions. Column Angle: %d. Inner feet to retr. start, Outer feet to adv. start. Columns not known, use sentinel.", int64(coilAngle))
	default:
		trace = fmt.Sprintf("New Odd Layer Start Positions (column in joggle window). Column Angle: %d. Inner feet to retr. start, Outer feet to adv. start. Columns not known, use sentinel.", int64(coilAngle))
	}
	if even {
		distPos1, distPos2 = AdvanceStartPos, RetreatStartPos
	} else {
		distPos1, distPos2 = RetreatStartPos, AdvanceStartPos
	}

	rec, err := populateRecord(populateInput{
		CoilAngle:   coilAngle,
		EvenLayer:   even,
		Role:        FootAdvancing,
		Mode:        AbsoluteAll,
		DistPos1:    distPos1,
		DistPos2:    distPos2,
		Trace:       trace,
		InJoggle:    inWindow,
		NewHqp:      newHqp,
		NewLayer:    true,
		LastLayer:   lastLayer,
		LayerAdjust: layerAdj,
	})
	if err != nil {
		monitoring.Logf("populating new layer positions at ria angle %v: row not added: %v", ria, err)
		return
	}
	b.mapRecord(ria, rec)
}

// Build generates one advancing and one retreating record per column
// azimuth across the whole coil, plus the seed records at coil, layer,
// and hqp starts, and returns them in RIA angle order.
func (b *Builder) Build() []Record {
	var (
		hqpPrev, layerPrev int
		tThis              float64
		inTransition       bool
	)

	for angle := units.InitialColumnAngle; angle <= units.CoilAngleMax; angle += units.ColumnIncrement {
		fa := float64(angle)
		trace := fmt.Sprintf("Column Ang: %d, ", angle)

		if angle == units.InitialColumnAngle {
			hqpPrev, layerPrev = 1, 1
			b.seedCoilStart()
		} else if joggleAngle, inWindow, last := b.m.LastMoveOfLayer(fa); last {
			// About to start a layer or pack. The layer number changes at
			// every joggle but the hqp number only at a pack boundary, so
			// the hqp check runs first.
			hqpNum, _ := b.m.HqpAtOrBefore(joggleAngle)
			layerNum, _ := b.m.LayerAtOrBefore(joggleAngle)
			switch {
			case hqpNum != hqpPrev:
				b.seedPostLoad(fa, inWindow)
				hqpPrev = hqpNum
			case layerNum != layerPrev:
				ria, even := b.newLayerRIA(fa, joggleAngle)
				b.seedNewLayer(ria, fa, even, coilmap.LastHqpLayer(layerNum), inWindow, false)
				layerPrev = layerNum
			default:
				trace += fmt.Sprintf("Error looking for new layer or hqp @ angle: %d. ", angle)
			}
		}

		region, degToNext, degToPrev, jAdj := ClassifyJoggle(b.m, fa)
		var isJoggleAdj bool
		switch region {
		case JoggleRetreatAdjust:
			isJoggleAdj = true
			tThis = 0
			trace += fmt.Sprintf("Joggle in %s degs. Ret Ft Nom + Adj %smm, Adv Ft Nom, ", ftoa(degToNext), ftoa(jAdj))
		case JoggleRetreatFull:
			isJoggleAdj = true
			tThis = 0
			trace += fmt.Sprintf("Past Joggle by %s degs. Ret Ft Full Retract, Adv Ft No Move, ", ftoa(-degToPrev))
		case JoggleRetreatHold:
			isJoggleAdj = true
			tThis = 0
			trace += fmt.Sprintf("Past Joggle by %s degs. Ret Ft No Move, Adv Ft Nom, ", ftoa(-degToPrev))
		default:
			isJoggleAdj = false
			// Once a column falls inside a transition window, each turn
			// adjusts by the window amount less what has already been
			// applied, until it drifts off the window or the layer ends.
			degPast, in, ok := b.m.InTransition(fa)
			switch {
			case ok && in:
				b.setTransAdjust(fa)
				tThis = TransitionAdjustment(b.m, fa) - b.tAccum
				b.tAccum += tThis
				inTransition = true
				trace += fmt.Sprintf("No Joggle Adj, Past Trans by %s degs. Adj: %s mm, ", ftoa(degPast), ftoa(tThis))
			case ok && b.transAdjustSet(fa):
				// off the window since last turn, take the remainder up
				// to a full index
				tThis = units.TurnIndexNominal - b.tAccum
				b.tAccum = 0
				b.clearTransAdjust()
				inTransition = true
				trace += fmt.Sprintf("No Joggle Adj, Now off trans. Adj: %s mm, ", ftoa(tThis))
			case ok:
				tThis = 0
				inTransition = false
				trace += "No Joggle Adj, No Trans Adj, "
			default:
				tThis = 0
				b.tAccum = 0
				inTransition = false
				trace += fmt.Sprintf("Error looking up IsInTransitionLb @ angle: %d. ", angle)
			}
		}

		// The layer lookup at a region 2 column lands one layer high: the
		// joggle has advanced the map but this column's feet still index
		// per the layer they have been working.
		layerNumber, lok := b.m.LayerAtOrBefore(fa)
		if !lok {
			trace += fmt.Sprintf("Error looking up layer number @ angle: %d. ", angle)
		} else if region == JoggleRetreatFull {
			layerNumber--
		}
		isEven := layerNumber%2 == 0

		advTurn, _ := b.m.TurnAtOrBefore(fa)
		var retTurn int
		if !isEven {
			retTurn = advTurn + 1
			trace += fmt.Sprintf("Odd Layer(%d), ", layerNumber)
		} else {
			retTurn = advTurn - 1
			trace += fmt.Sprintf("Even Layer(%d), ", layerNumber)
		}

		isLastTurn := coilmap.FinalTurn(advTurn, isEven)
		if isLastTurn {
			trace += "Last Turn, "
		} else {
			trace += "Not Last Turn, "
		}
		isLastLayer := coilmap.LastHqpLayer(layerNumber)
		if isLastLayer {
			trace += "LastLayer. "
		} else {
			trace += "NotLastLayer. "
		}

		// Near a joggle on a last turn the coil map has already stepped
		// to the next layer (and pack, on the last layer), so those rows
		// carry a -1 adjustment.
		var hqpAdj, layerAdj int
		if isLastTurn && isJoggleAdj {
			layerAdj = -1
		}
		if isLastTurn && isLastLayer && isJoggleAdj {
			hqpAdj = -1
		}

		// advancing foot, negative distances; skipped on the last layer
		// where the advancing feet are already all the way out
		if !isLastLayer {
			ria := angle - AdvanceRIAOffset
			var dist float64
			var mode InsertMode
			switch {
			case (!isLastTurn && region == JoggleNominal) || region == JoggleRetreatAdjust || region == JoggleRetreatHold:
				dist = -(units.TurnIndexNominal + tThis)
				mode = AbsoluteUpdateSelected
			case region == JoggleRetreatFull:
				dist = 0
				mode = AbsoluteUpdateSelected
			case isLastTurn:
				dist = FullExtendPos
				mode = AbsoluteSelected
				b.tAccum = 0
				b.clearTransAdjust()
			default:
				dist = 0
				mode = AbsoluteUpdateSelected
				trace += "Logic error determining advancing foot move."
			}

			rec, err := populateRecord(populateInput{
				CoilAngle:    fa,
				EvenLayer:    isEven,
				Role:         FootAdvancing,
				Mode:         mode,
				DistPos1:     dist,
				Trace:        trace,
				InTransition: inTransition,
				InJoggle:     isJoggleAdj,
				LastTurn:     isLastTurn,
				LastLayer:    isLastLayer,
				HqpAdjust:    hqpAdj,
				LayerAdjust:  layerAdj,
			})
			if err != nil {
				monitoring.Logf("populating advancing foot position at angle %d: row not added: %v", ria, err)
			} else {
				// advancing distances are negative, display them positive
				if mode == AbsoluteSelected {
					rec.LogicTrace += fmt.Sprintf("*MS: Adv Ft To Trn: %d. Adv (abs) %s to %s mm.", advTurn, rec.SelectedAxis, ftoa(-rec.SelectedDist))
				} else {
					rec.LogicTrace += fmt.Sprintf("*MS: Adv Ft To Trn: %d. Adv (rel) %s %s mm.", advTurn, rec.SelectedAxis, ftoa(-rec.SelectedDist))
				}
				b.mapRecord(float64(ria), rec)
			}
		} else if isLastTurn {
			// last turn of the last layer. Clear the transition state in
			// case a column sits on a transition when the pack ends.
			b.tAccum = 0
			b.clearTransAdjust()
		}

		// retreating foot, positive distances
		{
			ria := angle - RetreatRIAOffset
			var dist float64
			var mode InsertMode
			switch {
			case region == JoggleRetreatAdjust:
				dist = units.TurnIndexNominal + tThis + jAdj
				mode = AbsoluteUpdateSelected
			case region == JoggleRetreatFull:
				dist = FullRetractPos
				mode = AbsoluteSelected
			case region == JoggleRetreatHold:
				dist = 0
				mode = AbsoluteUpdateSelected
			case !isLastTurn && region == JoggleNominal:
				dist = units.TurnIndexNominal + tThis
				mode = AbsoluteUpdateSelected
			case isLastTurn:
				dist = FullRetractPos
				mode = AbsoluteSelected
			default:
				dist = 0
				mode = AbsoluteUpdateSelected
				trace += "Logic error determining retreating foot move."
			}

			rec, err := populateRecord(populateInput{
				CoilAngle:    fa,
				EvenLayer:    isEven,
				Role:         FootRetreating,
				Mode:         mode,
				DistPos1:     dist,
				Trace:        trace,
				InTransition: inTransition,
				InJoggle:     isJoggleAdj,
				LastTurn:     isLastTurn,
				LastLayer:    isLastLayer,
				HqpAdjust:    hqpAdj,
				LayerAdjust:  layerAdj,
			})
			if err != nil {
				monitoring.Logf("populating retreating foot position at angle %d: row not added: %v", ria, err)
			} else {
				if mode == AbsoluteSelected {
					rec.LogicTrace += fmt.Sprintf("*MS: Ret Ft To Trn: %d. Ret (abs) %s to %s mm.", retTurn, rec.SelectedAxis, ftoa(rec.SelectedDist))
				} else {
					rec.LogicTrace += fmt.Sprintf("*MS: Ret Ft To Trn: %d. Ret (rel) %s %s mm.", retTurn, rec.SelectedAxis, ftoa(rec.SelectedDist))
				}
				b.mapRecord(float64(ria), rec)
			}
		}
	}

	return b.Records()
}
