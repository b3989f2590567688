// Package layout converts turbine positions given as longitude/latitude into
// the local metric frame the flow field works in.
package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/wroge/wgs84"
)

var (
	// ErrShapeMismatch is returned when longitude and latitude lists differ in length.
	ErrShapeMismatch = errors.New("longitude and latitude lengths differ")
	// ErrInvalidCoordinates is returned for points outside the WGS84 range.
	ErrInvalidCoordinates = errors.New("invalid coordinates provided")
)

// FromGeographic projects lon/lat pairs (EPSG:4326) to Web Mercator
// (EPSG:3857) and returns offsets in metres relative to the first point.
// Mercator stretches distances by 1/cos(lat); offsets are scaled back by the
// cosine of the first point's latitude.
func FromGeographic(lon, lat []float64) (x, y []float64, err error) {
	if len(lon) != len(lat) {
		return nil, nil, fmt.Errorf("%w: %d longitudes, %d latitudes", ErrShapeMismatch, len(lon), len(lat))
	}
	if len(lon) == 0 {
		return []float64{}, []float64{}, nil
	}
	for i := range lon {
		if math.Abs(lon[i]) > 180 || math.Abs(lat[i]) >= 85 {
			return nil, nil, fmt.Errorf("%w: (%v, %v) at index %d", ErrInvalidCoordinates, lon[i], lat[i], i)
		}
	}

	f := wgs84.EPSG().Transform(4326, 3857)
	x0, y0, _ := f(lon[0], lat[0], 0)
	scale := math.Cos(lat[0] * math.Pi / 180)

	x = make([]float64, len(lon))
	y = make([]float64, len(lat))
	for i := range lon {
		px, py, _ := f(lon[i], lat[i], 0)
		x[i] = (px - x0) * scale
		y[i] = (py - y0) * scale
	}
	return x, y, nil
}
