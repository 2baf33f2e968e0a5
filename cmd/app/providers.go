package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/agrosathi/agrosathi/internal/domain/advice"
	"github.com/agrosathi/agrosathi/internal/domain/diagnosis"
	"github.com/agrosathi/agrosathi/internal/domain/enrichment"
	"github.com/agrosathi/agrosathi/internal/domain/notification"
	"github.com/agrosathi/agrosathi/internal/infra/classifier"
	"github.com/agrosathi/agrosathi/internal/infra/config"
	"github.com/agrosathi/agrosathi/internal/infra/geocode/google"
	"github.com/agrosathi/agrosathi/internal/infra/llm/chatgpt"
	"github.com/agrosathi/agrosathi/internal/infra/messaging/twilio"
	"github.com/agrosathi/agrosathi/internal/infra/notifyqueue"
	"github.com/agrosathi/agrosathi/internal/infra/weather/openmeteo"
	"github.com/agrosathi/agrosathi/pkg/metrics"
)

func provideAdviceConfig(cfg *config.Config) advice.Config {
	return advice.Config{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}
}

func provideDiagnosisConfig(cfg *config.Config) diagnosis.Config {
	return diagnosis.Config{
		ClassificationTimeout: cfg.Diagnosis.ClassificationTimeout,
		EnrichmentTimeout:     cfg.Diagnosis.EnrichmentTimeout,
		GenerationTimeout:     cfg.Diagnosis.GenerationTimeout,
	}
}

func provideNotificationConfig(cfg *config.Config) notification.Config {
	return notification.Config{
		Enabled:            cfg.Notification.Enabled,
		MaxLength:          cfg.Notification.MaxLength,
		SendTimeout:        cfg.Notification.SendTimeout,
		DefaultCountryCode: cfg.Notification.DefaultCountryCode,
	}
}

func provideChatGPTClient(cfg *config.Config) (*chatgpt.Client, error) {
	var opts []chatgpt.Option
	if cfg.LLM.Referer != "" {
		opts = append(opts, chatgpt.WithHeader("HTTP-Referer", cfg.LLM.Referer))
	}
	if cfg.LLM.AppTitle != "" {
		opts = append(opts, chatgpt.WithHeader("X-Title", cfg.LLM.AppTitle))
	}
	return chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, opts...)
}

func provideTokenCounter(cfg *config.Config) *metrics.TokenCounter {
	return metrics.NewTokenCounter(cfg.LLM.Model)
}

func provideClassifierClient(cfg *config.Config) *classifier.Client {
	return classifier.NewClient(cfg.Classifier.BaseURL, &http.Client{})
}

// provideGeocoder returns nil when no API key is configured; the location
// resolver then always reports the unknown place.
func provideGeocoder(cfg *config.Config, logger *slog.Logger) enrichment.ReverseGeocoder {
	if strings.TrimSpace(cfg.Geocoding.APIKey) == "" {
		logger.Warn("geocoding api key not set, locations will be reported as unknown")
		return nil
	}
	geocoder, err := google.NewGeocoder(cfg.Geocoding.APIKey, cfg.Geocoding.BaseURL, &http.Client{})
	if err != nil {
		logger.Error("failed to create geocoder, locations will be reported as unknown", "error", err)
		return nil
	}
	return geocoder
}

func provideWeatherProvider(cfg *config.Config) enrichment.WeatherProvider {
	return openmeteo.NewClient(cfg.Weather.BaseURL, &http.Client{})
}

// provideSender returns nil when Twilio is not configured, which disables
// notifications.
func provideSender(cfg *config.Config, logger *slog.Logger) notification.Sender {
	if !cfg.Notification.Enabled {
		return nil
	}
	tw := cfg.Notification.Twilio
	sender, err := twilio.NewSender(tw.AccountSID, tw.AuthToken, tw.From)
	if err != nil {
		logger.Warn("whatsapp notifications disabled", "reason", err.Error())
		return nil
	}
	return sender
}

func provideNotificationQueue(cfg *config.Config, logger *slog.Logger) notification.Queue {
	if cfg.Notification.Queue != config.QueueValkey {
		return notifyqueue.NewImmediateQueue()
	}
	opt, err := buildValkeyOptions(cfg.Notification.Valkey.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to immediate queue", "error", err)
		return notifyqueue.NewImmediateQueue()
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to immediate queue", "error", err)
		return notifyqueue.NewImmediateQueue()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to immediate queue", "error", err)
		client.Close()
		return notifyqueue.NewImmediateQueue()
	}
	logger.Info("notification valkey queue enabled", "addr", cfg.Notification.Valkey.Addr)
	return notifyqueue.NewValkeyQueue(client, cfg.Notification.Valkey.QueueKey, logger)
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}
