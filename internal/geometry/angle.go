package geometry

import "math"

// NormalizeAngle maps degrees into [0, 360).
func NormalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

// AngleDistance is the distance between two angles measured the short way
// around the circle, in [0, 180].
func AngleDistance(a, b float64) float64 {
	d := math.Abs(NormalizeAngle(a) - NormalizeAngle(b))
	return math.Min(d, 360-d)
}

// RotationEqual reports whether a and b are within threshold degrees of each
// other, so 359.95 equals 0 at a threshold of 0.1.
func RotationEqual(a, b, threshold float64) bool {
	return AngleDistance(a, b) <= threshold
}

// SnapRotation normalizes deg and snaps it to 0, 90, 180 or 270 when it is
// within threshold of one of them. The second result reports a snap.
func SnapRotation(deg, threshold float64) (float64, bool) {
	deg = NormalizeAngle(deg)
	for _, q := range [...]float64{0, 90, 180, 270} {
		if RotationEqual(deg, q, threshold) {
			return q, true
		}
	}
	return deg, false
}

// sincos returns exact values for multiples of 90 degrees.
func sincos(deg float64) (sin, cos float64) {
	switch NormalizeAngle(deg) {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	return math.Sincos(deg * math.Pi / 180)
}
