package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/altsignals/scenario-engine/config"
	"github.com/altsignals/scenario-engine/internal/api/sentiment"
	"github.com/altsignals/scenario-engine/internal/engine"
	binancegw "github.com/altsignals/scenario-engine/internal/gateway/binance"
	"github.com/altsignals/scenario-engine/internal/reasoner"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandling(cancel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogging(cfg.LogLevel)
	log.Info().Msg("Starting Futures Scenario Analyzer")
	printConfig(cfg)

	sentimentClient := sentiment.NewClient(sentiment.ClientOptions{
		BaseURL:        cfg.SentimentBaseURL,
		RequestTimeout: cfg.RequestTimeout,
		RequestsPerSec: cfg.RequestsPerSec,
	})

	gateway := binancegw.New(cfg, sentimentClient)
	if err := gateway.StartLiquidationFeed(cfg.Symbol); err != nil {
		log.Warn().Err(err).Msg("Liquidation feed unavailable, proceeding without liquidation data")
	}
	defer gateway.StopLiquidationFeed()

	llm, err := reasoner.NewClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create reasoner client")
	}

	eng := engine.New(cfg, gateway, llm)

	result, err := eng.Analyze(ctx, engine.AnalysisRequest{
		Symbol:       cfg.Symbol,
		Timeframe:    cfg.Timeframe,
		MaxScenarios: cfg.MaxScenarios,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}

	out, err := sonic.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode result")
	}
	fmt.Println(string(out))
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, exiting...")
		cancel()
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// printConfig outputs the current configuration
func printConfig(cfg *config.Config) {
	log.Info().
		Str("Symbol", cfg.Symbol).
		Str("Timeframe", cfg.Timeframe).
		Int("MaxScenarios", cfg.MaxScenarios).
		Int("CandleCount", cfg.CandleCount).
		Int("SwingWindow", cfg.SwingWindow).
		Int("RangeLookback", cfg.RangeLookback).
		Float64("LiqBinPct", cfg.LiqBinPct).
		Float64("LiqSpikeFactor", cfg.LiqSpikeFactor).
		Str("OpenAIModel", cfg.OpenAIModel).
		Dur("ReasonerTimeout", cfg.ReasonerTimeout).
		Msg("Configuration loaded")
}
