package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration. Every calibration parameter of
// the analyzers is exposed here rather than hardcoded; the defaults are
// starting points meant to be tuned against historical data.
type Config struct {
	// Credentials and endpoints
	BinanceAPIKey    string
	BinanceSecretKey string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	SentimentBaseURL string

	// Request defaults
	Symbol       string
	Timeframe    string
	MaxScenarios int
	CandleCount  int

	// Price structure
	MinCandles     int
	SwingWindow    int
	MaxSwingPoints int
	RangeLookback  int

	// Indicator periods
	ATRPeriod     int
	RSIPeriod     int
	EMAFastPeriod int
	EMASlowPeriod int
	SMAPeriod     int
	ADXPeriod     int

	// Volatility regime thresholds, ATR as percent of price
	VolVeryLowPct     float64
	VolCompressionPct float64
	VolExpansionPct   float64
	VolVeryHighPct    float64

	// Liquidation clustering
	LiqBinPct          float64 // bin size as fraction of current price
	LiqTierMediumUSD   float64
	LiqTierHighUSD     float64
	LiqTierVeryHighUSD float64
	LiqSpikeFactor     float64
	LiqWindow          time.Duration // rolling window kept by the gateway feed

	// Context scoring
	SentimentBaseWeight float64
	NeutralBand         float64 // |score| below this is labelled neutral

	// Candidate levels
	MaxCandidates     int
	LevelTolerancePct float64 // relative tolerance for candidate price matching

	// Reasoning step
	ReasonerTimeout    time.Duration
	ReasonerMaxRetries int
	LLMTemperature     float64

	// Post-processing
	TimeValidMultiplier float64 // validity = multiplier * timeframe hours

	// Platform
	RequestTimeout time.Duration
	RequestsPerSec int
	LogLevel       string
}

// Load initializes configuration from environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &Config{
		BinanceAPIKey:    os.Getenv("BINANCE_API_KEY"),
		BinanceSecretKey: os.Getenv("BINANCE_SECRET_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    getEnvWithDefault("OPENAI_BASE_URL", ""),
		OpenAIModel:      getEnvWithDefault("OPENAI_MODEL", "gpt-4o"),
		SentimentBaseURL: getEnvWithDefault("SENTIMENT_BASE_URL", "https://api.alternative.me"),

		Symbol:       getEnvWithDefault("SYMBOL", "BTCUSDT"),
		Timeframe:    getEnvWithDefault("TIMEFRAME", "4h"),
		MaxScenarios: getEnvIntWithDefault("MAX_SCENARIOS", 3),
		CandleCount:  getEnvIntWithDefault("CANDLE_COUNT", 100),

		MinCandles:     getEnvIntWithDefault("MIN_CANDLES", 20),
		SwingWindow:    getEnvIntWithDefault("SWING_WINDOW", 2),
		MaxSwingPoints: getEnvIntWithDefault("MAX_SWING_POINTS", 5),
		RangeLookback:  getEnvIntWithDefault("RANGE_LOOKBACK", 50),

		ATRPeriod:     getEnvIntWithDefault("ATR_PERIOD", 14),
		RSIPeriod:     getEnvIntWithDefault("RSI_PERIOD", 14),
		EMAFastPeriod: getEnvIntWithDefault("EMA_FAST_PERIOD", 20),
		EMASlowPeriod: getEnvIntWithDefault("EMA_SLOW_PERIOD", 50),
		SMAPeriod:     getEnvIntWithDefault("SMA_PERIOD", 50),
		ADXPeriod:     getEnvIntWithDefault("ADX_PERIOD", 14),

		VolVeryLowPct:     getEnvFloatWithDefault("VOL_VERY_LOW_PCT", 1.0),
		VolCompressionPct: getEnvFloatWithDefault("VOL_COMPRESSION_PCT", 1.5),
		VolExpansionPct:   getEnvFloatWithDefault("VOL_EXPANSION_PCT", 2.5),
		VolVeryHighPct:    getEnvFloatWithDefault("VOL_VERY_HIGH_PCT", 4.0),

		LiqBinPct:          getEnvFloatWithDefault("LIQ_BIN_PCT", 0.005),
		LiqTierMediumUSD:   getEnvFloatWithDefault("LIQ_TIER_MEDIUM_USD", 500_000),
		LiqTierHighUSD:     getEnvFloatWithDefault("LIQ_TIER_HIGH_USD", 2_000_000),
		LiqTierVeryHighUSD: getEnvFloatWithDefault("LIQ_TIER_VERY_HIGH_USD", 10_000_000),
		LiqSpikeFactor:     getEnvFloatWithDefault("LIQ_SPIKE_FACTOR", 3.0),
		LiqWindow:          getEnvDurationWithDefault("LIQ_WINDOW", 6*time.Hour),

		SentimentBaseWeight: getEnvFloatWithDefault("SENTIMENT_BASE_WEIGHT", 0.5),
		NeutralBand:         getEnvFloatWithDefault("NEUTRAL_BAND", 0.15),

		MaxCandidates:     getEnvIntWithDefault("MAX_CANDIDATES", 5),
		LevelTolerancePct: getEnvFloatWithDefault("LEVEL_TOLERANCE_PCT", 0.2),

		ReasonerTimeout:    getEnvDurationWithDefault("REASONER_TIMEOUT", 90*time.Second),
		ReasonerMaxRetries: getEnvIntWithDefault("REASONER_MAX_RETRIES", 2),
		LLMTemperature:     getEnvFloatWithDefault("LLM_TEMPERATURE", 0.2),

		TimeValidMultiplier: getEnvFloatWithDefault("TIME_VALID_MULTIPLIER", 24),

		RequestTimeout: getEnvDurationWithDefault("REQUEST_TIMEOUT", 30*time.Second),
		RequestsPerSec: getEnvIntWithDefault("REQUESTS_PER_SEC", 5),
		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
