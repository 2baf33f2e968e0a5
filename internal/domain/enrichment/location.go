package enrichment

import (
	"context"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/agrosathi/agrosathi/pkg/logger"
)

// Component types in priority order: city, urban area, district.
var placeTypePriority = []string{"locality", "sublocality", "administrative_area_level_2"}

var adminSuffix = regexp.MustCompile(`(?i)\s*\b(district|division)\b`)

// LocationResolver turns coordinates into a short place label.
type LocationResolver struct {
	geocoder ReverseGeocoder
	logger   *slog.Logger
}

// NewLocationResolver wires the resolver to a geocoding provider.
func NewLocationResolver(geocoder ReverseGeocoder, logger *slog.Logger) *LocationResolver {
	return &LocationResolver{geocoder: geocoder, logger: logger.With("component", "enrichment.location")}
}

// Resolve never fails: provider errors and empty results yield UnknownPlace.
func (r *LocationResolver) Resolve(ctx context.Context, coords Coordinates) LocationInfo {
	log := logger.FromContext(ctx, r.logger)
	if !coords.Usable() {
		log.Debug("location lookup skipped", "reason", "unusable coordinates")
		return LocationInfo{Label: UnknownPlace}
	}
	if r.geocoder == nil {
		return LocationInfo{Label: UnknownPlace}
	}
	components, err := r.geocoder.ReverseGeocode(ctx, coords)
	if err != nil {
		log.Warn("location lookup degraded", "error", err)
		return LocationInfo{Label: UnknownPlace}
	}
	label := normalizePlace(pickPlace(components))
	if label == "" {
		log.Info("location lookup returned no usable component", "components", len(components))
		return LocationInfo{Label: UnknownPlace}
	}
	return LocationInfo{Label: label}
}

func pickPlace(components []AddressComponent) string {
	for _, want := range placeTypePriority {
		for _, c := range components {
			if slices.Contains(c.Types, want) && strings.TrimSpace(c.LongName) != "" {
				return c.LongName
			}
		}
	}
	return ""
}

func normalizePlace(name string) string {
	return strings.TrimSpace(adminSuffix.ReplaceAllString(name, ""))
}
