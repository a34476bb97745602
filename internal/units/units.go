// Package units provides angle conversions and machine geometry constants
package units

import "math"

// ControllerPi is the truncated pi the winding controller firmware uses for
// degree/radian conversion. Generated positions must match the controller
// to the digit, so all trigonometry in this module goes through it rather
// than math.Pi.
const ControllerPi = 3.14159

// Machine geometry constants
const (
	TurnsPerLayer = 14
	LayersPerCoil = 40

	// CoilAngleMax is the absolute angle of the final machine move. Six
	// full revolutions are consumed by leads and welds rather than turns.
	CoilAngleMax = (LayersPerCoil * TurnsPerLayer * 360) - (360 * 6)

	// ColumnIncrement is the angular spacing between winding columns.
	ColumnIncrement = 60

	// InitialColumnAngle is the azimuth of column A, the first column a
	// new coil passes.
	InitialColumnAngle = 30

	// TurnIndexNominal is the radial thickness of one conductor turn in mm.
	TurnIndexNominal = 53.0
)

// DegToRad converts degrees to radians using the controller's pi.
func DegToRad(deg float64) float64 {
	return deg * ControllerPi / 180.0
}

// RadToDeg converts radians to degrees using the controller's pi.
func RadToDeg(rad float64) float64 {
	return rad * 180.0 / ControllerPi
}

// NormalizeAzimuth folds an absolute coil angle into [0, 360). Negative
// angles (start-of-coil seeding happens below zero) fold up.
func NormalizeAzimuth(angle float64) float64 {
	azi := math.Mod(angle, 360)
	if azi < 0 {
		azi += 360
	}
	return azi
}
