package geo

import "math"

// EarthCircumference in meters, the distance model assumes a perfect sphere
const EarthCircumference = 40000 * 1000

// Coordinates closer to zero than this are treated as "no fix"
const invalidThreshold = 1e-3

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance returns the great-circle distance between two positions in meters.
func Distance(lat0, lon0, lat1, lon1 float64) float64 {
	if lat0 == lat1 && lon0 == lon1 {
		return 0
	}

	phi0, phi1 := toRadians(lat0), toRadians(lat1)
	cosAngle := math.Sin(phi0)*math.Sin(phi1) + math.Cos(phi0)*math.Cos(phi1)*math.Cos(toRadians(lon1-lon0))

	// rounding can push nearby points slightly above 1
	cosAngle = math.Max(-1, math.Min(1, cosAngle))
	return math.Acos(cosAngle) / (2 * math.Pi) * EarthCircumference
}

// Valid reports whether a position looks like a real fix.
func Valid(lat, lon float64) bool {
	return math.Abs(lat) >= invalidThreshold && math.Abs(lon) >= invalidThreshold
}

// Odometer sums the distance travelled over a series of positions.
// The zero value is ready to use.
type Odometer struct {
	lat, lon float64
	total    float64
}

// Add records the next position and returns the total distance in meters.
// A leg is only counted when both of its ends are valid positions.
func (o *Odometer) Add(lat, lon float64) float64 {
	if Valid(o.lat, o.lon) && Valid(lat, lon) {
		o.total += Distance(o.lat, o.lon, lat, lon)
	}
	o.lat, o.lon = lat, lon
	return o.total
}

func (o *Odometer) Total() float64 {
	return o.total
}
