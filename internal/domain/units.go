// Package domain contains the core types and pure logic for monthly climate
// raster extraction: variable kinds and unit conversion, year-month periods,
// observation date resolution, and the per-point result model.
package domain

import (
	"fmt"
	"math"
)

// VariableKind identifies the climate variable stored in a raster.
type VariableKind string

const (
	// VariableTemp is monthly average 2m temperature, stored in Kelvin.
	VariableTemp VariableKind = "temp"
	// VariablePrecip is monthly total precipitation, stored in meters.
	VariablePrecip VariableKind = "precip"
)

// ZeroCelsiusK is the Kelvin value of 0 degrees Celsius.
const ZeroCelsiusK = 273.15

// Valid reports whether the kind is one of the supported variables.
func (k VariableKind) Valid() bool {
	return k == VariableTemp || k == VariablePrecip
}

// ValidateVariableKind returns an error for kinds other than temp or precip.
// Callers must reject invalid kinds before any raster I/O happens.
func ValidateVariableKind(k VariableKind) error {
	if !k.Valid() {
		return fmt.Errorf("variable kind must be %q or %q, got %q", VariableTemp, VariablePrecip, k)
	}
	return nil
}

// ConvertUnits maps a raw raster value to the physical unit for the kind:
// Kelvin to Celsius for temperature, meters to millimeters for precipitation.
// Unrecognized kinds pass through unchanged; upstream validation rejects them
// before sampling starts.
func ConvertUnits(kind VariableKind, raw float64) float64 {
	switch kind {
	case VariableTemp:
		return raw - ZeroCelsiusK
	case VariablePrecip:
		return raw * 1000
	default:
		return raw
	}
}

// Round4 rounds to 4 decimal places. Applied to every converted value at the
// point of storage so both variable kinds share the same precision.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
