package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/coilwinder/internal/coilmap"
	"github.com/banshee-data/coilwinder/internal/events"
	"github.com/banshee-data/coilwinder/internal/monitoring"
	"github.com/banshee-data/coilwinder/internal/winding"
)

// LoadCoilMap reads the full coil map in angle order.
func (db *DB) LoadCoilMap(ctx context.Context) ([]coilmap.Row, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT angle, feature, hqp, layer, turn, azimuth, radius
		 FROM coil_map ORDER BY angle`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []coilmap.Row
	for rows.Next() {
		var r coilmap.Row
		if err := rows.Scan(&r.Angle, &r.Feature, &r.Hqp, &r.Layer, &r.Turn, &r.Azimuth, &r.Radius); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// ReplaceCoilMap truncates the coil_map table and loads rows in a single
// transaction.
func (db *DB) ReplaceCoilMap(ctx context.Context, mapRows []coilmap.Row) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM coil_map"); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO coil_map (angle, feature, hqp, layer, turn, azimuth, radius)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range mapRows {
		if _, err := stmt.ExecContext(ctx, r.Angle, r.Feature, r.Hqp, r.Layer, r.Turn, r.Azimuth, r.Radius); err != nil {
			return fmt.Errorf("insert coil map row at angle %v: %w", r.Angle, err)
		}
	}

	return tx.Commit()
}

// ClearPositions empties both axis position tables ahead of a
// regeneration.
func (db *DB) ClearPositions(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM cls_axis_positions"); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, "DELETE FROM scs_axis_positions")
	return err
}

// actionDescription extracts the operator display text from a logic
// trace: everything after the "*MS" move summary marker when present,
// otherwise the whole trace.
func actionDescription(trace string) string {
	if i := strings.Index(trace, "*MS"); i >= 0 {
		return trace[i+1:]
	}
	return trace
}

const scsSelectedInsert = `INSERT INTO scs_axis_positions (
	ria_angle, coil_angle, selected_axis, selected_dist,
	is_absolute, abs_adjust, is_transition, is_joggle, is_new_hqp,
	is_new_layer, is_last_turn, is_last_layer, hqp_adjust, layer_adjust,
	logic_trace, action_desc
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const scsAllAxesInsert = `INSERT INTO scs_axis_positions (
	ria_angle, coil_angle,
	a_foot_inner, a_foot_outer, b_foot_inner, b_foot_outer,
	c_foot_inner, c_foot_outer, d_foot_inner, d_foot_outer,
	e_foot_inner, e_foot_outer, f_foot_inner, f_foot_outer,
	a_column_inner, a_column_outer, b_column_inner, b_column_outer,
	c_column_inner, c_column_outer, d_column_inner, d_column_outer,
	e_column_inner, e_column_outer, f_column_inner, f_column_outer,
	is_absolute, abs_adjust, is_transition, is_joggle, is_new_hqp,
	is_new_layer, is_last_turn, is_last_layer, hqp_adjust, layer_adjust,
	logic_trace, action_desc
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// insertSelected writes a single-axis record. The absolute-adjust
// variant and the plain selected variant share a statement; the
// abs_adjust flag routes them apart downstream.
func insertSelected(ctx context.Context, stmt *sql.Stmt, rec winding.Record) error {
	_, err := stmt.ExecContext(ctx,
		rec.RIAAngle, rec.CoilAngle, rec.SelectedAxis.String(), rec.SelectedDist,
		rec.IsAbsolute, rec.AbsAdjust, rec.IsTransition, rec.IsJoggle, rec.IsNewHqp,
		rec.IsNewLayer, rec.IsLastTurn, rec.IsLastLayer, rec.HqpAdjust, rec.LayerAdjust,
		rec.LogicTrace, actionDescription(rec.LogicTrace),
	)
	return err
}

func insertAllAxes(ctx context.Context, stmt *sql.Stmt, rec winding.Record) error {
	args := make([]interface{}, 0, 38)
	args = append(args, rec.RIAAngle, rec.CoilAngle)
	for _, p := range rec.FootPos {
		args = append(args, p)
	}
	for _, p := range rec.ColumnPos {
		args = append(args, p)
	}
	args = append(args,
		rec.IsAbsolute, false, rec.IsTransition, rec.IsJoggle, rec.IsNewHqp,
		rec.IsNewLayer, rec.IsLastTurn, rec.IsLastLayer, rec.HqpAdjust, rec.LayerAdjust,
		rec.LogicTrace, actionDescription(rec.LogicTrace),
	)
	_, err := stmt.ExecContext(ctx, args...)
	return err
}

// WritePositions inserts the generated records. A failing row is logged
// and skipped so one bad record cannot abort the remainder; the returned
// error reports the failure count. Returns the number of rows written.
func (db *DB) WritePositions(ctx context.Context, records []winding.Record) (int, error) {
	selStmt, err := db.PrepareContext(ctx, scsSelectedInsert)
	if err != nil {
		return 0, err
	}
	defer selStmt.Close()

	allStmt, err := db.PrepareContext(ctx, scsAllAxesInsert)
	if err != nil {
		return 0, err
	}
	defer allStmt.Close()

	written := 0
	failed := 0
	for _, rec := range records {
		var err error
		if rec.Selected {
			err = insertSelected(ctx, selStmt, rec)
		} else {
			err = insertAllAxes(ctx, allStmt, rec)
		}
		if err != nil {
			failed++
			monitoring.Logf("Failed to insert position at RIA %d: %v", rec.RIAAngle, err)
			continue
		}
		written++
	}

	if failed > 0 {
		return written, fmt.Errorf("%d of %d position rows failed to insert", failed, len(records))
	}
	return written, nil
}

// BuildClsPositions derives the column lift table from the
// whole-machine rows of the last SCS write.
func (db *DB) BuildClsPositions(ctx context.Context) (int, error) {
	if _, err := db.ExecContext(ctx, "DELETE FROM cls_axis_positions"); err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO cls_axis_positions (
			ria_angle, coil_angle, is_joggle, is_new_hqp, is_new_layer,
			is_last_turn, is_last_layer, hqp_adjust, layer_adjust, action_desc
		 )
		 SELECT ria_angle, coil_angle, is_joggle, is_new_hqp, is_new_layer,
			is_last_turn, is_last_layer, hqp_adjust, layer_adjust, action_desc
		 FROM scs_axis_positions
		 WHERE selected_axis IS NULL
		 ORDER BY ria_angle`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ClearEvents empties the event list.
func (db *DB) ClearEvents(ctx context.Context) error {
	_, err := db.ExecContext(ctx, "DELETE FROM event_list")
	return err
}

// WriteEvents inserts the generated event schedule. Per-row failures are
// logged and counted like WritePositions.
func (db *DB) WriteEvents(ctx context.Context, evs []events.Event) (int, error) {
	stmt, err := db.PrepareContext(ctx,
		"INSERT INTO event_list (angle, event_id, logic_trace) VALUES (?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	written := 0
	failed := 0
	for _, ev := range evs {
		if _, err := stmt.ExecContext(ctx, ev.Angle, int(ev.ID), ev.Trace); err != nil {
			failed++
			monitoring.Logf("Failed to insert event %d at angle %v: %v", ev.ID, ev.Angle, err)
			continue
		}
		written++
	}

	if failed > 0 {
		return written, fmt.Errorf("%d of %d event rows failed to insert", failed, len(evs))
	}
	return written, nil
}

// RecordGenerationRun writes the audit row for a finished generation and
// returns its id.
func (db *DB) RecordGenerationRun(ctx context.Context, kind string, started, finished time.Time, mapRows, recordCount int) (string, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO generation_runs (id, kind, started_at, finished_at, map_rows, record_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, kind, started, finished, mapRows, recordCount)
	if err != nil {
		return "", err
	}
	return id, nil
}
