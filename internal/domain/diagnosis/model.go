package diagnosis

import (
	"context"
	"time"

	"github.com/agrosathi/agrosathi/internal/domain/advice"
	"github.com/agrosathi/agrosathi/internal/domain/enrichment"
)

// Stage names the step a request is in. Failed is reachable only from
// StageClassifying or StageSynthesizing.
type Stage string

const (
	StageReceived     Stage = "received"
	StageClassifying  Stage = "classifying"
	StageEnriching    Stage = "enriching"
	StageSynthesizing Stage = "synthesizing"
	StageResponded    Stage = "responded"
	StageFailed       Stage = "failed"
)

// ImageRequest is a leaf photo submitted for diagnosis.
type ImageRequest struct {
	Image     []byte
	ContactID string
	Language  string
	// Coordinates is nil when the device did not share its location.
	Coordinates *enrichment.Coordinates
}

// TextRequest is a typed or transcribed farmer question.
type TextRequest struct {
	Query     string `json:"query"`
	ContactID string `json:"phone"`
	Language  string `json:"language"`
}

// ClassificationResult is the normalized output of the disease model.
type ClassificationResult struct {
	DiseaseLabel string
	Confidence   *float64
}

// Response is returned to the caller of the image path.
type Response struct {
	Disease     string   `json:"disease"`
	Confidence  *float64 `json:"confidence"`
	Location    string   `json:"location"`
	Temperature string   `json:"temperature"`
	Advice      string   `json:"suggestion"`
	Degraded    bool     `json:"degraded,omitempty"`
}

// QueryResponse is returned to the caller of the text path.
type QueryResponse struct {
	Reply    string `json:"reply"`
	Degraded bool   `json:"degraded,omitempty"`
}

// Classifier turns a leaf image into a disease label.
type Classifier interface {
	Classify(ctx context.Context, image []byte) (ClassificationResult, error)
}

// LocationResolver resolves a place label and never fails.
type LocationResolver interface {
	Resolve(ctx context.Context, coords enrichment.Coordinates) enrichment.LocationInfo
}

// WeatherResolver resolves current weather and never fails.
type WeatherResolver interface {
	Resolve(ctx context.Context, coords enrichment.Coordinates) enrichment.WeatherSnapshot
}

// AdviceSynthesizer produces localized treatment text.
type AdviceSynthesizer interface {
	Synthesize(ctx context.Context, adviceCtx advice.Context, lang advice.Language) (advice.Bundle, error)
}

// Notifier relays the final text to the farmer without blocking.
type Notifier interface {
	Notify(ctx context.Context, contactID, text string)
}

// Config bounds each outbound call of a request.
type Config struct {
	ClassificationTimeout time.Duration
	EnrichmentTimeout     time.Duration
	GenerationTimeout     time.Duration
}
