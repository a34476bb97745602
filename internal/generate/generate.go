// Package generate drives a full position or event generation run:
// load the coil map, build the schedule, replace the tables, record the
// run.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/banshee-data/coilwinder/internal/coilmap"
	"github.com/banshee-data/coilwinder/internal/config"
	"github.com/banshee-data/coilwinder/internal/events"
	"github.com/banshee-data/coilwinder/internal/timeutil"
	"github.com/banshee-data/coilwinder/internal/winding"
)

// clock is swapped for a MockClock in tests so run timestamps are stable.
var clock timeutil.Clock = timeutil.RealClock{}

// CoilSource loads the coil map rows for a run.
type CoilSource interface {
	LoadCoilMap(ctx context.Context) ([]coilmap.Row, error)
}

// RunRecorder persists the audit row for a finished run.
type RunRecorder interface {
	RecordGenerationRun(ctx context.Context, kind string, started, finished time.Time, mapRows, recordCount int) (string, error)
}

// PositionSink receives a generated position schedule.
type PositionSink interface {
	RunRecorder
	ClearPositions(ctx context.Context) error
	WritePositions(ctx context.Context, records []winding.Record) (int, error)
	BuildClsPositions(ctx context.Context) (int, error)
}

// EventSink receives a generated event schedule.
type EventSink interface {
	RunRecorder
	ClearEvents(ctx context.Context) error
	WriteEvents(ctx context.Context, evs []events.Event) (int, error)
}

func loadMap(ctx context.Context, source CoilSource) (*coilmap.Map, int, error) {
	rows, err := source.LoadCoilMap(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load coil map: %w", err)
	}
	m, err := coilmap.New(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("index coil map: %w", err)
	}
	return m, len(rows), nil
}

// Positions generates the axis position schedule and replaces the
// position tables. Write failures for individual rows do not abort the
// run; they surface in the returned error after everything else is done.
func Positions(ctx context.Context, source CoilSource, sink PositionSink, cfg *config.TuningConfig) error {
	started := clock.Now()

	m, mapRows, err := loadMap(ctx, source)
	if err != nil {
		return err
	}
	log.Printf("Coil map loaded: %d rows", mapRows)

	builder := winding.NewBuilder(m)
	records := builder.Build()
	log.Printf("Position build complete: %d records", len(records))

	if cfg.GetDebugTrace() {
		for _, rec := range records {
			log.Printf("RIA %d: %s", rec.RIAAngle, rec.LogicTrace)
		}
	}

	if err := sink.ClearPositions(ctx); err != nil {
		return fmt.Errorf("clear positions: %w", err)
	}

	// write in progress-interval batches so long runs show life in the log
	interval := cfg.GetProgressInterval()
	written := 0
	var writeErrs []error
	for start := 0; start < len(records); start += interval {
		end := start + interval
		if end > len(records) {
			end = len(records)
		}
		n, err := sink.WritePositions(ctx, records[start:end])
		written += n
		if err != nil {
			writeErrs = append(writeErrs, err)
		}
		log.Printf("Wrote %d/%d position rows", written, len(records))
	}
	writeErr := errors.Join(writeErrs...)

	if cfg.GetBuildCls() {
		clsRows, err := sink.BuildClsPositions(ctx)
		if err != nil {
			return fmt.Errorf("build cls positions: %w", err)
		}
		log.Printf("CLS table built: %d rows", clsRows)
	}

	id, err := sink.RecordGenerationRun(ctx, "positions", started, clock.Now(), mapRows, written)
	if err != nil {
		return fmt.Errorf("record generation run: %w", err)
	}
	log.Printf("Position generation run %s finished in %v", id, clock.Since(started).Round(time.Millisecond))

	return writeErr
}

// Events generates the line controller event schedule and replaces the
// event table.
func Events(ctx context.Context, source CoilSource, sink EventSink, cfg *config.TuningConfig) error {
	started := clock.Now()

	m, mapRows, err := loadMap(ctx, source)
	if err != nil {
		return err
	}

	evs := events.Generate(m)
	log.Printf("Event build complete: %d events", len(evs))

	if cfg.GetDebugTrace() {
		for _, ev := range evs {
			log.Printf("Event %d at angle %v", ev.ID, ev.Angle)
		}
	}

	if err := sink.ClearEvents(ctx); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}

	written, writeErr := sink.WriteEvents(ctx, evs)

	id, err := sink.RecordGenerationRun(ctx, "events", started, clock.Now(), mapRows, written)
	if err != nil {
		return fmt.Errorf("record generation run: %w", err)
	}
	log.Printf("Event generation run %s finished in %v", id, clock.Since(started).Round(time.Millisecond))

	return writeErr
}
