package advice

import "github.com/agrosathi/agrosathi/pkg/metrics"

// Kind selects the prompt family.
type Kind int

const (
	// KindImage is a diagnosis of a classified leaf image.
	KindImage Kind = iota
	// KindQuery is a free text or transcribed voice question.
	KindQuery
)

// Context is the data a prompt is built from.
type Context struct {
	Kind        Kind
	Place       string
	Temperature string
	Disease     string
	Query       string
}

// ImageContext builds the context for a classified image.
func ImageContext(place, temperature, disease string) Context {
	return Context{Kind: KindImage, Place: place, Temperature: temperature, Disease: disease}
}

// QueryContext builds the context for a farmer question.
func QueryContext(query string) Context {
	return Context{Kind: KindQuery, Query: query}
}

// Bundle is the generated advisory text.
type Bundle struct {
	Text     string
	Degraded bool
	Usage    metrics.TokenUsage
}

// Config tunes the generation call.
type Config struct {
	Model       string
	Temperature float32
	MaxTokens   int
}
