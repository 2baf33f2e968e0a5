package diagnosis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agrosathi/agrosathi/internal/domain/advice"
	"github.com/agrosathi/agrosathi/internal/domain/enrichment"
	apperrors "github.com/agrosathi/agrosathi/pkg/errors"
	"github.com/agrosathi/agrosathi/pkg/logger"
)

const queryNotificationHeader = "AgroSathi Suggestion:\n"

// Service aggregates classification, enrichment and advice into one answer.
type Service interface {
	DiagnoseImage(ctx context.Context, req ImageRequest) (Response, error)
	AnswerQuery(ctx context.Context, req TextRequest) (QueryResponse, error)
}

type service struct {
	cfg        Config
	classifier Classifier
	location   LocationResolver
	weather    WeatherResolver
	advisor    AdviceSynthesizer
	notifier   Notifier
	logger     *slog.Logger
}

// NewService wires the aggregator. notifier may be nil.
func NewService(
	cfg Config,
	classifier Classifier,
	location LocationResolver,
	weather WeatherResolver,
	advisor AdviceSynthesizer,
	notifier Notifier,
	logger *slog.Logger,
) Service {
	return &service{
		cfg:        cfg,
		classifier: classifier,
		location:   location,
		weather:    weather,
		advisor:    advisor,
		notifier:   notifier,
		logger:     logger.With("component", "diagnosis.service"),
	}
}

func (s *service) DiagnoseImage(ctx context.Context, req ImageRequest) (Response, error) {
	log := logger.FromContext(ctx, s.logger)
	start := time.Now()
	s.enter(log, StageReceived)

	if len(req.Image) == 0 {
		return Response{}, apperrors.InvalidInput("image is required")
	}
	lang := advice.NormalizeLanguage(req.Language)

	var (
		result   ClassificationResult
		place    = enrichment.LocationInfo{Label: enrichment.UnknownPlace}
		snapshot enrichment.WeatherSnapshot
	)

	g, gctx := errgroup.WithContext(ctx)
	s.enter(log, StageClassifying)
	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(gctx, s.cfg.ClassificationTimeout)
		defer cancel()
		classified, err := s.classifier.Classify(callCtx, req.Image)
		if err != nil {
			return err
		}
		result = classified
		return nil
	})
	if req.Coordinates != nil {
		coords := *req.Coordinates
		s.enter(log, StageEnriching)
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, s.cfg.EnrichmentTimeout)
			defer cancel()
			place = s.location.Resolve(callCtx, coords)
			return nil
		})
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, s.cfg.EnrichmentTimeout)
			defer cancel()
			snapshot = s.weather.Resolve(callCtx, coords)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.fail(log, StageClassifying, err)
		if apperrors.CodeOf(err) == "" {
			err = apperrors.Wrap(apperrors.CodeClassificationFailed, "image prediction failed", err)
		}
		return Response{}, err
	}
	temperature := snapshot.Display()
	log.Info("diagnosis inputs ready",
		"disease", result.DiseaseLabel,
		"location_resolved", place.Resolved(),
		"temperature", temperature,
	)

	s.enter(log, StageSynthesizing)
	bundle, err := s.synthesize(ctx, advice.ImageContext(place.Label, temperature, result.DiseaseLabel), lang)
	if err != nil {
		s.fail(log, StageSynthesizing, err)
		return Response{}, err
	}

	s.notify(ctx, req.ContactID, fmt.Sprintf("%s | %s\n%s\n\n%s", place.Label, temperature, result.DiseaseLabel, bundle.Text))

	s.enter(log, StageResponded)
	log.Info("diagnosis completed", "language", lang, "degraded", bundle.Degraded, "latency_ms", time.Since(start).Milliseconds())
	return Response{
		Disease:     result.DiseaseLabel,
		Confidence:  result.Confidence,
		Location:    place.Label,
		Temperature: temperature,
		Advice:      bundle.Text,
		Degraded:    bundle.Degraded,
	}, nil
}

func (s *service) AnswerQuery(ctx context.Context, req TextRequest) (QueryResponse, error) {
	log := logger.FromContext(ctx, s.logger)
	start := time.Now()
	s.enter(log, StageReceived)

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return QueryResponse{}, apperrors.InvalidInput("query is required")
	}
	lang := advice.NormalizeLanguage(req.Language)

	s.enter(log, StageSynthesizing)
	bundle, err := s.synthesize(ctx, advice.QueryContext(query), lang)
	if err != nil {
		s.fail(log, StageSynthesizing, err)
		return QueryResponse{}, err
	}

	s.notify(ctx, req.ContactID, queryNotificationHeader+bundle.Text)

	s.enter(log, StageResponded)
	log.Info("query answered", "language", lang, "degraded", bundle.Degraded, "latency_ms", time.Since(start).Milliseconds())
	return QueryResponse{Reply: bundle.Text, Degraded: bundle.Degraded}, nil
}

func (s *service) synthesize(ctx context.Context, adviceCtx advice.Context, lang advice.Language) (advice.Bundle, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()
	bundle, err := s.advisor.Synthesize(callCtx, adviceCtx, lang)
	if err != nil {
		if apperrors.CodeOf(err) == "" {
			err = apperrors.Wrap(apperrors.CodeAdviceGenerationFailed, "AI suggestion failed", err)
		}
		return advice.Bundle{}, err
	}
	return bundle, nil
}

func (s *service) notify(ctx context.Context, contactID, text string) {
	if s.notifier == nil || strings.TrimSpace(contactID) == "" {
		return
	}
	s.notifier.Notify(ctx, contactID, text)
}

func (s *service) enter(log *slog.Logger, stage Stage) {
	log.Debug("diagnosis stage", "stage", stage)
}

func (s *service) fail(log *slog.Logger, from Stage, err error) {
	log.Error("diagnosis failed", "stage", StageFailed, "from", from, "code", apperrors.CodeOf(err), "error", err)
}
