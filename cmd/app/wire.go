//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/agrosathi/agrosathi/internal/bootstrap"
	"github.com/agrosathi/agrosathi/internal/domain/advice"
	"github.com/agrosathi/agrosathi/internal/domain/diagnosis"
	"github.com/agrosathi/agrosathi/internal/domain/enrichment"
	"github.com/agrosathi/agrosathi/internal/domain/notification"
	"github.com/agrosathi/agrosathi/internal/infra/classifier"
	"github.com/agrosathi/agrosathi/internal/infra/config"
	"github.com/agrosathi/agrosathi/internal/infra/llm/chatgpt"
	httpiface "github.com/agrosathi/agrosathi/internal/interface/http"
	"github.com/agrosathi/agrosathi/pkg/logger"
	"github.com/agrosathi/agrosathi/pkg/metrics"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAdviceConfig,
		provideDiagnosisConfig,
		provideNotificationConfig,
		provideChatGPTClient,
		provideTokenCounter,
		provideClassifierClient,
		provideGeocoder,
		provideWeatherProvider,
		provideSender,
		provideNotificationQueue,
		advice.LoadCatalog,
		advice.NewService,
		enrichment.NewLocationResolver,
		enrichment.NewWeatherResolver,
		notification.NewDispatcher,
		diagnosis.NewService,
		wire.Bind(new(advice.ChatClient), new(*chatgpt.Client)),
		wire.Bind(new(advice.TokenCounter), new(*metrics.TokenCounter)),
		wire.Bind(new(diagnosis.Classifier), new(*classifier.Client)),
		wire.Bind(new(diagnosis.LocationResolver), new(*enrichment.LocationResolver)),
		wire.Bind(new(diagnosis.WeatherResolver), new(*enrichment.WeatherResolver)),
		wire.Bind(new(diagnosis.AdviceSynthesizer), new(advice.Service)),
		wire.Bind(new(diagnosis.Notifier), new(*notification.Dispatcher)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
