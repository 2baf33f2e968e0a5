package enrichment

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/agrosathi/agrosathi/pkg/logger"
)

// Extractor pulls one optional number out of an upstream payload.
type Extractor struct {
	Name    string
	Extract func(payload gjson.Result) (float64, bool)
}

// PathExtractor builds an Extractor reading a gjson path.
func PathExtractor(path string) Extractor {
	return Extractor{
		Name: path,
		Extract: func(payload gjson.Result) (float64, bool) {
			return number(payload.Get(path))
		},
	}
}

// TemperatureExtractors lists the supported temperature locations, probed in order.
var TemperatureExtractors = []Extractor{
	PathExtractor("currentConditions.temperature"),
	PathExtractor("temperature"),
	PathExtractor("temp"),
	PathExtractor("days.0.temp"),
	PathExtractor("current_weather.temperature"),
	PathExtractor("current.temperature_2m"),
}

// WeatherCodeExtractors lists the supported WMO weather code locations.
var WeatherCodeExtractors = []Extractor{
	PathExtractor("current_weather.weathercode"),
	PathExtractor("current.weather_code"),
	PathExtractor("weatherCode"),
	PathExtractor("weathercode"),
}

// FirstValue returns the first value any extractor finds, with its name.
func FirstValue(payload gjson.Result, extractors []Extractor) (float64, string, bool) {
	for _, e := range extractors {
		if v, ok := e.Extract(payload); ok {
			return v, e.Name, true
		}
	}
	return 0, "", false
}

// maxReading bounds accepted values well inside the int range.
const maxReading = 1e6

func number(r gjson.Result) (float64, bool) {
	var v float64
	switch r.Type {
	case gjson.Number:
		v = r.Float()
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return 0, false
		}
		v = parsed
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > maxReading {
		return 0, false
	}
	return v, true
}

// WeatherResolver reads the current temperature for a location.
type WeatherResolver struct {
	provider WeatherProvider
	logger   *slog.Logger
}

// NewWeatherResolver wires the resolver to a weather provider.
func NewWeatherResolver(provider WeatherProvider, logger *slog.Logger) *WeatherResolver {
	return &WeatherResolver{provider: provider, logger: logger.With("component", "enrichment.weather")}
}

// Resolve never fails: on error the snapshot carries no temperature.
func (r *WeatherResolver) Resolve(ctx context.Context, coords Coordinates) WeatherSnapshot {
	log := logger.FromContext(ctx, r.logger)
	if !coords.Usable() || r.provider == nil {
		return WeatherSnapshot{}
	}
	raw, err := r.provider.Current(ctx, coords)
	if err != nil {
		log.Warn("weather lookup degraded", "error", err)
		return WeatherSnapshot{}
	}
	snapshot := ParseWeather(raw)
	if snapshot.TemperatureCelsius == nil {
		log.Info("weather payload carried no known temperature field")
	}
	return snapshot
}

// ParseWeather extracts a snapshot from any supported payload shape.
func ParseWeather(raw []byte) WeatherSnapshot {
	if !gjson.ValidBytes(raw) {
		return WeatherSnapshot{}
	}
	payload := gjson.ParseBytes(raw)

	var snapshot WeatherSnapshot
	if temp, _, ok := FirstValue(payload, TemperatureExtractors); ok {
		rounded := int(math.Round(temp))
		snapshot.TemperatureCelsius = &rounded
	}
	if code, _, ok := FirstValue(payload, WeatherCodeExtractors); ok {
		c := int(code)
		snapshot.WeatherCode = &c
		snapshot.Condition = conditionFor(c)
	}
	return snapshot
}

// conditionFor maps a WMO weather code to a short description.
func conditionFor(code int) string {
	switch code {
	case 1, 2, 3:
		return "Partly Cloudy"
	case 45, 48:
		return "Foggy"
	case 51, 53, 55, 61, 63, 65:
		return "Rainy"
	case 71, 73, 75:
		return "Snowy"
	case 95, 96, 99:
		return "Thunderstorm"
	default:
		return "Clear"
	}
}
