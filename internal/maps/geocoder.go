// README: Reverse geocoding through the Google Maps Geocoding API.
package maps

import (
	"context"
	"fmt"

	gmaps "googlemaps.github.io/maps"

	"uride/internal/types"
)

type Geocoder struct {
	client *gmaps.Client
}

func NewGeocoder(apiKey string) (*Geocoder, error) {
	client, err := gmaps.NewClient(gmaps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return &Geocoder{client: client}, nil
}

// ReverseGeocode returns the formatted address nearest to p, or "" when the
// API has no result for the coordinate.
func (g *Geocoder) ReverseGeocode(ctx context.Context, p types.Point) (string, error) {
	results, err := g.client.ReverseGeocode(ctx, &gmaps.GeocodingRequest{
		LatLng: &gmaps.LatLng{Lat: p.Lat, Lng: p.Lng},
	})
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	if len(results) == 0 {
		return "", nil
	}
	return results[0].FormattedAddress, nil
}
