package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/coilwinder/internal/coilmap"
	"github.com/banshee-data/coilwinder/internal/fsutil"
)

const sampleCSV = `angle,feature,hqp,layer,turn,azimuth,radius
0,L,1,1,1,330,1100
320,T,1,1,1,290,1100
700,none,1,1,2,310,1153.5
`

func TestReadCoilMapCSV(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("map.csv", []byte(sampleCSV), 0o644))

	rows, err := readCoilMapCSV(fsys, "map.csv")
	require.NoError(t, err)

	want := []coilmap.Row{
		{Angle: 0, Feature: "L", Hqp: 1, Layer: 1, Turn: 1, Azimuth: 330, Radius: 1100},
		{Angle: 320, Feature: "T", Hqp: 1, Layer: 1, Turn: 1, Azimuth: 290, Radius: 1100},
		{Angle: 700, Feature: "none", Hqp: 1, Layer: 1, Turn: 2, Azimuth: 310, Radius: 1153.5},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("parsed rows mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCoilMapCSVBadRow(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("map.csv",
		[]byte("angle,feature,hqp,layer,turn,azimuth,radius\nnope,L,1,1,1,330,1100\n"), 0o644))

	_, err := readCoilMapCSV(fsys, "map.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "bad angle")
}

func TestReadCoilMapCSVMissingFile(t *testing.T) {
	t.Parallel()

	_, err := readCoilMapCSV(fsutil.NewMemoryFileSystem(), "absent.csv")
	require.Error(t, err)
}
