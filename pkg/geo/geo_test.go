package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	assert.Zero(t, Distance(51.49, 7.41, 51.49, 7.41))

	// a quarter of the equator
	assert.InDelta(t, EarthCircumference/4, Distance(0, 0, 0, 90), 1e-6)
	// pole to pole
	assert.InDelta(t, EarthCircumference/2, Distance(90, 0, -90, 0), 1e-6)

	// one degree of latitude
	assert.InDelta(t, 111111.1, Distance(51, 7, 52, 7), 0.1)

	// symmetric
	assert.InDelta(t, Distance(51.49, 7.41, 51.51, 7.46), Distance(51.51, 7.46, 51.49, 7.41), 1e-9)
}

func TestDistanceNearbyPoints(t *testing.T) {
	d := Distance(51.4900000, 7.4100000, 51.4900001, 7.4100000)
	assert.False(t, d != d, "distance must not be NaN")
	assert.Less(t, d, 1.0)
}

func TestOdometer(t *testing.T) {
	var o Odometer
	assert.Zero(t, o.Add(51, 7))
	assert.InDelta(t, 111111.1, o.Add(52, 7), 0.1)

	// no fix, the leg is skipped in both directions
	assert.InDelta(t, 111111.1, o.Add(0, 0), 0.1)
	assert.InDelta(t, 111111.1, o.Add(53, 7), 0.1)

	assert.InDelta(t, 222222.2, o.Add(52, 7), 0.1)
	assert.Equal(t, o.Add(52, 7), o.Total())
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(51.49, 7.41))
	assert.True(t, Valid(-33.9, -70.6))
	assert.False(t, Valid(0, 7.41))
	assert.False(t, Valid(51.49, 0.0005))
}
