package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/agrosathi/agrosathi/internal/domain/enrichment"
)

// Geocoder performs reverse lookups against the Google Geocoding API.
type Geocoder struct {
	client *maps.Client
}

// NewGeocoder builds a geocoder. baseURL overrides the API host and is only
// needed for tests or proxies.
func NewGeocoder(apiKey, baseURL string, httpClient *http.Client) (*Geocoder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("geocoding api key is required")
	}
	opts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, maps.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}
	if httpClient != nil {
		opts = append(opts, maps.WithHTTPClient(httpClient))
	}
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &Geocoder{client: client}, nil
}

// ReverseGeocode returns the address components of the first, most specific
// result only.
func (g *Geocoder) ReverseGeocode(ctx context.Context, coords enrichment.Coordinates) ([]enrichment.AddressComponent, error) {
	results, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: coords.Latitude, Lng: coords.Longitude},
	})
	if err != nil {
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	components := make([]enrichment.AddressComponent, 0, len(results[0].AddressComponents))
	for _, c := range results[0].AddressComponents {
		components = append(components, enrichment.AddressComponent{
			LongName: c.LongName,
			Types:    c.Types,
		})
	}
	return components, nil
}

var _ enrichment.ReverseGeocoder = (*Geocoder)(nil)
