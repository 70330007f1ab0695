// Package units converts between the millimetres used on the command surface
// and the decimal feet the host document stores internally.
//
// Conversion happens once, in the operation that touches the document.
// Nothing else in the bridge should scale lengths.
package units

import "math"

// MillimetersPerFoot is the exact number of millimetres in one foot.
const MillimetersPerFoot = 304.8

// SquareMillimetersPerSquareMeter converts mm² to m².
const SquareMillimetersPerSquareMeter = 1e6

// MMToFeet converts millimetres to feet.
func MMToFeet(mm float64) float64 {
	return mm / MillimetersPerFoot
}

// FeetToMM converts feet to millimetres.
func FeetToMM(feet float64) float64 {
	return feet * MillimetersPerFoot
}

// SquareFeetToSquareMeters converts an area in ft² to m².
func SquareFeetToSquareMeters(sqft float64) float64 {
	mm := MillimetersPerFoot * MillimetersPerFoot
	return sqft * mm / SquareMillimetersPerSquareMeter
}

// DegreesToRadians converts degrees to radians.
func DegreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadiansToDegrees converts radians to degrees.
func RadiansToDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Round rounds value to the given number of decimals for presentation.
func Round(value float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(value*scale) / scale
}
