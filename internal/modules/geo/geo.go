// README: Pure geographic and fare computation: haversine distance, flat per-km fare, duration estimate.
package geo

import (
	"math"

	"uride/internal/types"
)

const earthRadiusKm = 6371.0

// Rates are the deterministic fare parameters. No surge, no time-of-day
// adjustment.
type Rates struct {
	BaseFare    float64
	PerKmRate   float64
	AvgSpeedKmh float64
}

var DefaultRates = Rates{BaseFare: 2.5, PerKmRate: 1.5, AvgSpeedKmh: 40}

type Calculator struct {
	rates Rates
}

func NewCalculator(r Rates) *Calculator {
	if r.BaseFare == 0 && r.PerKmRate == 0 {
		r.BaseFare = DefaultRates.BaseFare
		r.PerKmRate = DefaultRates.PerKmRate
	}
	if r.AvgSpeedKmh <= 0 {
		r.AvgSpeedKmh = DefaultRates.AvgSpeedKmh
	}
	return &Calculator{rates: r}
}

func (c *Calculator) DistanceKm(a, b types.Point) float64 {
	return DistanceKm(a, b)
}

// Fare is monotonic non-decreasing in distance for non-negative rates.
func (c *Calculator) Fare(distanceKm float64) float64 {
	return c.rates.BaseFare + c.rates.PerKmRate*distanceKm
}

// DurationMin estimates trip duration in whole minutes at the configured
// average speed.
func (c *Calculator) DurationMin(distanceKm float64) int {
	return int(math.Round(distanceKm / c.rates.AvgSpeedKmh * 60))
}

// DistanceKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func DistanceKm(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
