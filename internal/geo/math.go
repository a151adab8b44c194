package geo

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
)

// WGS84 ellipsoid parameters.
const (
	wgs84A = 6378137.0
	wgs84F = 1 / 298.257223563
	wgs84B = wgs84A * (1 - wgs84F)
)

const (
	vincentyIterations = 200
	vincentyTolerance  = 1e-12
)

// ErrNoConvergence is returned when the geodesic solution does not converge,
// which happens for nearly antipodal points.
var ErrNoConvergence = errors.New("geodesic distance did not converge")

// Centroid returns the area-weighted centroid of mp in its own coordinates.
func Centroid(mp orb.MultiPolygon) (orb.Point, error) {
	c, area := planar.CentroidArea(mp)
	if area == 0 {
		return orb.Point{}, &GeometryError{Reason: "zero area"}
	}
	if !finite(c) {
		return orb.Point{}, &GeometryError{Reason: "non-finite centroid"}
	}
	return c, nil
}

// Distance returns the geodesic distance in meters between two lon/lat
// points on the WGS84 ellipsoid (Vincenty inverse formula).
func Distance(a, b orb.Point) (float64, error) {
	if !finite(a) || !finite(b) {
		return 0, &GeometryError{Reason: "non-finite coordinate"}
	}

	L := (b[0] - a[0]) * math.Pi / 180
	U1 := math.Atan((1 - wgs84F) * math.Tan(a[1]*math.Pi/180))
	U2 := math.Atan((1 - wgs84F) * math.Tan(b[1]*math.Pi/180))
	sinU1, cosU1 := math.Sincos(U1)
	sinU2, cosU2 := math.Sincos(U2)

	lambda := L
	var sinSigma, cosSigma, sigma, cos2Alpha, cos2SigmaM float64

	converged := false
	for range vincentyIterations {
		sinLambda, cosLambda := math.Sincos(lambda)

		sinSigma = math.Hypot(cosU2*sinLambda, cosU1*sinU2-sinU1*cosU2*cosLambda)
		if sinSigma == 0 {
			// Coincident points
			return 0, nil
		}
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)

		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cos2Alpha = 1 - sinAlpha*sinAlpha
		cos2SigmaM = 0
		if cos2Alpha != 0 {
			// Off the equatorial line
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cos2Alpha
		}

		C := wgs84F / 16 * cos2Alpha * (4 + wgs84F*(4-3*cos2Alpha))
		prev := lambda
		lambda = L + (1-C)*wgs84F*sinAlpha*
			(sigma+C*sinSigma*(cos2SigmaM+C*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))

		if math.Abs(lambda-prev) < vincentyTolerance {
			converged = true
			break
		}
	}
	if !converged {
		return 0, &GeometryError{Reason: "geodesic distance", Err: ErrNoConvergence}
	}

	u2 := cos2Alpha * (wgs84A*wgs84A - wgs84B*wgs84B) / (wgs84B * wgs84B)
	A := 1 + u2/16384*(4096+u2*(-768+u2*(320-175*u2)))
	B := u2 / 1024 * (256 + u2*(-128+u2*(74-47*u2)))
	deltaSigma := B * sinSigma * (cos2SigmaM + B/4*(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
		B/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))

	return wgs84B * A * (sigma - deltaSigma), nil
}

// ToMercator projects a lon/lat point to Web Mercator meters (EPSG:3857).
func ToMercator(p orb.Point) (orb.Point, error) {
	m := project.WGS84.ToMercator(p)
	if !finite(m) {
		return orb.Point{}, &GeometryError{Reason: "point outside the Mercator domain"}
	}
	return m, nil
}

// MultiPolygonToMercator returns a projected copy of mp; the input is not modified.
func MultiPolygonToMercator(mp orb.MultiPolygon) (orb.MultiPolygon, error) {
	out := mp.Clone()
	for _, poly := range out {
		for _, ring := range poly {
			for i := range ring {
				m, err := ToMercator(ring[i])
				if err != nil {
					return nil, err
				}
				ring[i] = m
			}
		}
	}
	return out, nil
}
