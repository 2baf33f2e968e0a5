package enrichment

import (
	"context"
	"math"
	"strconv"
)

const (
	// UnknownPlace is reported when no usable place name could be resolved.
	UnknownPlace = "Unknown Area"
	// TemperaturePlaceholder is rendered when no temperature is available.
	TemperaturePlaceholder = "--°C"
)

// Coordinates is a device location as reported by the client.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Usable reports whether the coordinates can be sent to a provider.
func (c Coordinates) Usable() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) || math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// LocationInfo is the resolved place label.
type LocationInfo struct {
	Label string `json:"location"`
}

// Resolved reports whether the label came from the provider.
func (l LocationInfo) Resolved() bool {
	return l.Label != "" && l.Label != UnknownPlace
}

// WeatherSnapshot is the best-effort current weather at a location.
type WeatherSnapshot struct {
	TemperatureCelsius *int   `json:"temperature,omitempty"`
	WeatherCode        *int   `json:"weatherCode,omitempty"`
	Condition          string `json:"condition,omitempty"`
}

// Display renders the temperature for prompts and responses.
func (w WeatherSnapshot) Display() string {
	if w.TemperatureCelsius == nil {
		return TemperaturePlaceholder
	}
	return strconv.Itoa(*w.TemperatureCelsius) + "°C"
}

// AddressComponent is one granularity of a reverse geocoding result.
type AddressComponent struct {
	LongName string
	Types    []string
}

// ReverseGeocoder looks up address components for a coordinate pair.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, coords Coordinates) ([]AddressComponent, error)
}

// WeatherProvider returns the raw current weather payload for a coordinate pair.
type WeatherProvider interface {
	Current(ctx context.Context, coords Coordinates) ([]byte, error)
}
