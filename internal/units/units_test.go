package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDegToRadUsesControllerPi(t *testing.T) {
	t.Parallel()

	// 180 degrees must come back as the controller's truncated pi, not math.Pi.
	assert.Equal(t, 3.14159, DegToRad(180))
	assert.InDelta(t, 180.0, RadToDeg(3.14159), 1e-12)
}

func TestNormalizeAzimuth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		angle float64
		want  float64
	}{
		{"in range", 90, 90},
		{"one revolution", 360, 0},
		{"many revolutions", 199440, 0},
		{"mid coil", 1530, 90},
		{"negative seed angle", -90, 270},
		{"negative under one rev", -30, 330},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, NormalizeAzimuth(tt.angle), 1e-9)
		})
	}
}

func TestCoilAngleMax(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 199440, CoilAngleMax)
}
