package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestParseWeatherSupportedShapes(t *testing.T) {
	payloads := map[string]string{
		"currentConditions": `{"currentConditions":{"temperature":31.2}}`,
		"flat temperature":  `{"temperature":31}`,
		"flat temp":         `{"temp":"30.6"}`,
		"daily forecast":    `{"days":[{"temp":31.4},{"temp":20}]}`,
		"open-meteo":        `{"current_weather":{"temperature":30.5,"weathercode":3}}`,
		"open-meteo v2":     `{"current":{"temperature_2m":31.0}}`,
	}

	for name, raw := range payloads {
		t.Run(name, func(t *testing.T) {
			snapshot := ParseWeather([]byte(raw))
			require.NotNil(t, snapshot.TemperatureCelsius)
			require.Equal(t, 31, *snapshot.TemperatureCelsius)
			require.Equal(t, "31°C", snapshot.Display())
		})
	}
}

func TestParseWeatherPriorityOrder(t *testing.T) {
	raw := `{"temp":10,"currentConditions":{"temperature":25},"current_weather":{"temperature":40}}`

	value, name, ok := FirstValue(gjson.Parse(raw), TemperatureExtractors)
	require.True(t, ok)
	require.Equal(t, "currentConditions.temperature", name)
	require.Equal(t, 25.0, value)
}

func TestParseWeatherZeroIsAValue(t *testing.T) {
	snapshot := ParseWeather([]byte(`{"temperature":0}`))
	require.NotNil(t, snapshot.TemperatureCelsius)
	require.Equal(t, "0°C", snapshot.Display())
}

func TestParseWeatherMissingTemperature(t *testing.T) {
	for _, raw := range []string{`{"humidity":80}`, `{"temperature":null}`, `{"temp":"warm"}`, `not json`, ``} {
		snapshot := ParseWeather([]byte(raw))
		require.Nil(t, snapshot.TemperatureCelsius, raw)
		require.Equal(t, TemperaturePlaceholder, snapshot.Display())
	}
}

func TestParseWeatherCondition(t *testing.T) {
	snapshot := ParseWeather([]byte(`{"current_weather":{"temperature":22,"weathercode":63}}`))
	require.NotNil(t, snapshot.WeatherCode)
	require.Equal(t, 63, *snapshot.WeatherCode)
	require.Equal(t, "Rainy", snapshot.Condition)
}

func TestWeatherResolverDegradesOnError(t *testing.T) {
	resolver := NewWeatherResolver(&stubWeather{err: errors.New("timeout")}, discardLogger())

	snapshot := resolver.Resolve(context.Background(), Coordinates{Latitude: 19.07, Longitude: 72.87})
	require.Nil(t, snapshot.TemperatureCelsius)
	require.Equal(t, TemperaturePlaceholder, snapshot.Display())
}

func TestWeatherResolverSuccess(t *testing.T) {
	provider := &stubWeather{payload: []byte(`{"temperature":31}`)}
	resolver := NewWeatherResolver(provider, discardLogger())

	snapshot := resolver.Resolve(context.Background(), Coordinates{Latitude: 19.0760, Longitude: 72.8777})
	require.Equal(t, "31°C", snapshot.Display())
	require.Equal(t, Coordinates{Latitude: 19.0760, Longitude: 72.8777}, provider.last)
}

type stubWeather struct {
	payload []byte
	err     error
	last    Coordinates
}

func (s *stubWeather) Current(ctx context.Context, coords Coordinates) ([]byte, error) {
	s.last = coords
	return s.payload, s.err
}

func TestParseWeatherRejectsNonFiniteValues(t *testing.T) {
	snapshot := ParseWeather([]byte(`{"temperature":1e400,"temp":"NaN","current_weather":{"temperature":30,"weathercode":-1e400},"weatherCode":1e12}`))
	require.NotNil(t, snapshot.TemperatureCelsius)
	require.Equal(t, 30, *snapshot.TemperatureCelsius)
	require.Nil(t, snapshot.WeatherCode)
	require.Empty(t, snapshot.Condition)

	snapshot = ParseWeather([]byte(`{"temperature":"-Inf"}`))
	require.Nil(t, snapshot.TemperatureCelsius)
}
