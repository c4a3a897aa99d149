// README: Shared identifier and coordinate value types used across modules.
package types

// ID is an opaque unique identifier for riders, drivers, rides, and
// notifications.
type ID string

// Point is a geographic coordinate. Address is optional human-readable text
// filled in by reverse geocoding; it never participates in distance math.
type Point struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}
