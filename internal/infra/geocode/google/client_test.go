package google

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agrosathi/agrosathi/internal/domain/enrichment"
)

const mumbaiPayload = `{
  "status": "OK",
  "results": [
    {
      "formatted_address": "Bandra Kurla Complex, Mumbai, Maharashtra, India",
      "address_components": [
        {"long_name": "Bandra Kurla Complex", "short_name": "BKC", "types": ["sublocality_level_1", "sublocality", "political"]},
        {"long_name": "Mumbai", "short_name": "Mumbai", "types": ["locality", "political"]},
        {"long_name": "Mumbai Suburban", "short_name": "Mumbai Suburban", "types": ["administrative_area_level_2", "political"]}
      ]
    }
  ]
}`

func TestReverseGeocode_MapsComponents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/maps/api/geocode/json", r.URL.Path)
		require.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.Contains(t, r.URL.Query().Get("latlng"), "19.076")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(mumbaiPayload))
	}))
	defer server.Close()

	geocoder, err := NewGeocoder("test-key", server.URL, server.Client())
	require.NoError(t, err)

	components, err := geocoder.ReverseGeocode(context.Background(), enrichment.Coordinates{Latitude: 19.0760, Longitude: 72.8777})
	require.NoError(t, err)
	require.Len(t, components, 3)
	require.Equal(t, "Mumbai", components[1].LongName)
	require.Contains(t, components[1].Types, "locality")
}

func TestReverseGeocode_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid.","results":[]}`))
	}))
	defer server.Close()

	geocoder, err := NewGeocoder("bad-key", server.URL, server.Client())
	require.NoError(t, err)

	_, err = geocoder.ReverseGeocode(context.Background(), enrichment.Coordinates{Latitude: 19.0760, Longitude: 72.8777})
	require.Error(t, err)
}

func TestReverseGeocode_FeedsLocationResolver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(mumbaiPayload))
	}))
	defer server.Close()

	geocoder, err := NewGeocoder("test-key", server.URL, server.Client())
	require.NoError(t, err)

	resolver := enrichment.NewLocationResolver(geocoder, discardLogger())
	got := resolver.Resolve(context.Background(), enrichment.Coordinates{Latitude: 19.0760, Longitude: 72.8777})
	require.Equal(t, "Mumbai", got.Label)
}

const ruralPayload = `{
  "status": "OK",
  "results": [
    {
      "formatted_address": "Khed Shivapur, Haveli, Maharashtra, India",
      "address_components": [
        {"long_name": "Khed Shivapur", "short_name": "Khed Shivapur", "types": ["sublocality_level_1", "sublocality", "political"]},
        {"long_name": "Maharashtra", "short_name": "MH", "types": ["administrative_area_level_1", "political"]}
      ]
    },
    {
      "formatted_address": "Pune, Maharashtra, India",
      "address_components": [
        {"long_name": "Pune", "short_name": "Pune", "types": ["locality", "political"]}
      ]
    }
  ]
}`

func TestReverseGeocode_UsesFirstResultOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(ruralPayload))
	}))
	defer server.Close()

	geocoder, err := NewGeocoder("test-key", server.URL, server.Client())
	require.NoError(t, err)

	coords := enrichment.Coordinates{Latitude: 18.35, Longitude: 73.86}
	components, err := geocoder.ReverseGeocode(context.Background(), coords)
	require.NoError(t, err)
	require.Len(t, components, 2)

	resolver := enrichment.NewLocationResolver(geocoder, discardLogger())
	require.Equal(t, "Khed Shivapur", resolver.Resolve(context.Background(), coords).Label)
}

func TestReverseGeocode_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[]}`))
	}))
	defer server.Close()

	geocoder, err := NewGeocoder("test-key", server.URL, server.Client())
	require.NoError(t, err)

	components, err := geocoder.ReverseGeocode(context.Background(), enrichment.Coordinates{Latitude: 18.35, Longitude: 73.86})
	require.NoError(t, err)
	require.Empty(t, components)
}

func TestNewGeocoder_RequiresKey(t *testing.T) {
	_, err := NewGeocoder(" ", "", nil)
	require.Error(t, err)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
