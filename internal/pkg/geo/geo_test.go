package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var office = Point{Latitude: -6.200000, Longitude: 106.816666}

func TestDistance(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0, Distance(office, office), 1e-9)

	// One degree of latitude is roughly 111.2 km.
	north := Point{Latitude: office.Latitude + 1, Longitude: office.Longitude}
	assert.InDelta(t, 111195, Distance(office, north), 50)

	// Symmetric.
	assert.InDelta(t, Distance(office, north), Distance(north, office), 1e-6)
}

func TestIsWithinGeofence(t *testing.T) {
	t.Parallel()

	near := Point{Latitude: -6.200500, Longitude: 106.816666} // ~55 m south
	far := Point{Latitude: -6.210000, Longitude: 106.816666}  // ~1.1 km south

	cases := []struct {
		name   string
		point  *Point
		radius float64
		want   Result
	}{
		{"inside radius", &near, 100, ResultInside},
		{"exactly at center", &office, 1, ResultInside},
		{"outside radius", &far, 100, ResultOutside},
		{"missing location", nil, 100, ResultUnknown},
		{"no geofence configured", &near, 0, ResultUnknown},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, IsWithinGeofence(c.point, office, c.radius))
		})
	}
}

func TestSiteCheck(t *testing.T) {
	t.Parallel()

	var site *Site
	assert.Equal(t, ResultUnknown, site.Check(&office))

	site = &Site{Center: office, RadiusMeters: 50}
	assert.Equal(t, ResultInside, site.Check(&office))
	assert.True(t, ResultOutside.Flagged())
	assert.True(t, ResultUnknown.Flagged())
	assert.False(t, ResultInside.Flagged())
}

func TestPointValid(t *testing.T) {
	t.Parallel()

	assert.True(t, office.Valid())
	assert.False(t, Point{Latitude: 91}.Valid())
	assert.False(t, Point{Longitude: -181}.Valid())
}
