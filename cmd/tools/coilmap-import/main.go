// coilmap-import loads a coil map CSV into the coil_map table,
// replacing whatever was there. The CSV carries a header row and the
// columns angle,feature,hqp,layer,turn,azimuth,radius.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/banshee-data/coilwinder/internal/coilmap"
	"github.com/banshee-data/coilwinder/internal/db"
	"github.com/banshee-data/coilwinder/internal/fsutil"
)

var (
	dbPath  = flag.String("db", "coilwinder.db", "Path to the sqlite database")
	csvPath = flag.String("csv", "", "Path to the coil map CSV file")
)

func parseRow(fields []string) (coilmap.Row, error) {
	var r coilmap.Row
	if len(fields) != 7 {
		return r, fmt.Errorf("expected 7 columns, got %d", len(fields))
	}

	var err error
	if r.Angle, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return r, fmt.Errorf("bad angle %q: %w", fields[0], err)
	}
	r.Feature = fields[1]
	if r.Hqp, err = strconv.Atoi(fields[2]); err != nil {
		return r, fmt.Errorf("bad hqp %q: %w", fields[2], err)
	}
	if r.Layer, err = strconv.Atoi(fields[3]); err != nil {
		return r, fmt.Errorf("bad layer %q: %w", fields[3], err)
	}
	if r.Turn, err = strconv.Atoi(fields[4]); err != nil {
		return r, fmt.Errorf("bad turn %q: %w", fields[4], err)
	}
	if r.Azimuth, err = strconv.ParseFloat(fields[5], 64); err != nil {
		return r, fmt.Errorf("bad azimuth %q: %w", fields[5], err)
	}
	if r.Radius, err = strconv.ParseFloat(fields[6], 64); err != nil {
		return r, fmt.Errorf("bad radius %q: %w", fields[6], err)
	}
	return r, nil
}

func readCoilMapCSV(fsys fsutil.FileSystem, path string) ([]coilmap.Row, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows []coilmap.Row
	line := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		row, err := parseRow(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func main() {
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	rows, err := readCoilMapCSV(fsutil.OSFileSystem{}, *csvPath)
	if err != nil {
		log.Fatalf("Failed to read coil map CSV: %v", err)
	}

	// index the rows first so a broken file never reaches the table
	if _, err := coilmap.New(rows); err != nil {
		log.Fatalf("Coil map rejected: %v", err)
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.ReplaceCoilMap(context.Background(), rows); err != nil {
		log.Fatalf("Failed to load coil map: %v", err)
	}

	log.Printf("Loaded %d coil map rows from %s", len(rows), *csvPath)
}
