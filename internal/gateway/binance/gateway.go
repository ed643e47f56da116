// Package binance implements the market data gateway over the Binance
// USDT-M futures API. One REST snapshot per request, plus a long-lived
// websocket feed collecting forced-liquidation prints into a rolling window.
package binance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/altsignals/scenario-engine/config"
	"github.com/altsignals/scenario-engine/internal/api/sentiment"
	"github.com/altsignals/scenario-engine/models"
)

const (
	// oiPeriod / oiLimit cover 24 hours of open interest history at 5 minute
	// resolution, used for the average the context scorer compares against.
	oiPeriod = "5m"
	oiLimit  = 288
)

// Gateway assembles MarketSnapshots from the futures REST API and the
// liquidation feed. Candles and the current price are mandatory; funding,
// open interest, liquidations and sentiment degrade to zero values so a
// partial exchange outage does not fail the whole analysis.
type Gateway struct {
	client    *futures.Client
	sentiment *sentiment.Client
	cfg       *config.Config
	feed      *liquidationFeed
	logger    zerolog.Logger
}

// New creates a gateway. The sentiment client may be nil, in which case the
// snapshot carries the neutral index.
func New(cfg *config.Config, sentimentClient *sentiment.Client) *Gateway {
	return &Gateway{
		client:    binance.NewFuturesClient(cfg.BinanceAPIKey, cfg.BinanceSecretKey),
		sentiment: sentimentClient,
		cfg:       cfg,
		feed:      newLiquidationFeed(cfg.LiqWindow),
		logger:    log.With().Str("component", "binance_gateway").Logger(),
	}
}

// StartLiquidationFeed subscribes to the forced-liquidation stream for the
// symbol and keeps a rolling window of events. It returns after the
// subscription is established; reconnection on stream loss is handled by
// resubscribing from the watchdog goroutine.
func (g *Gateway) StartLiquidationFeed(symbol string) error {
	return g.feed.start(symbol, g.logger)
}

// StopLiquidationFeed closes the stream. Safe to call when never started.
func (g *Gateway) StopLiquidationFeed() {
	g.feed.stop()
}

// Snapshot fetches all telemetry for one (symbol, timeframe) pair.
func (g *Gateway) Snapshot(ctx context.Context, symbol, timeframe string) (models.MarketSnapshot, error) {
	if !models.ValidTimeframe(timeframe) {
		return models.MarketSnapshot{}, fmt.Errorf("invalid timeframe %q", timeframe)
	}

	snap := models.MarketSnapshot{
		Symbol:         symbol,
		Timeframe:      timeframe,
		SentimentIndex: sentiment.NeutralIndex,
	}

	g2, gctx := errgroup.WithContext(ctx)

	// Candles and price are the analysis substrate: either failing fails
	// the snapshot.
	g2.Go(func() error {
		candles, err := g.fetchCandles(gctx, symbol, timeframe)
		if err != nil {
			return fmt.Errorf("fetch klines for %s %s: %w", symbol, timeframe, err)
		}
		snap.Candles = candles
		return nil
	})
	g2.Go(func() error {
		price, err := g.fetchCurrentPrice(gctx, symbol)
		if err != nil {
			return fmt.Errorf("fetch price for %s: %w", symbol, err)
		}
		snap.CurrentPrice = price
		return nil
	})

	// Everything below degrades: the snapshot ships without it.
	g2.Go(func() error {
		rate, err := g.fetchFundingRate(gctx, symbol)
		if err != nil {
			g.logger.Warn().Err(err).Str("symbol", symbol).Msg("Funding rate unavailable")
			return nil
		}
		snap.FundingRate = rate
		return nil
	})
	g2.Go(func() error {
		latest, avg, err := g.fetchOpenInterest(gctx, symbol)
		if err != nil {
			g.logger.Warn().Err(err).Str("symbol", symbol).Msg("Open interest unavailable")
			return nil
		}
		snap.OpenInterest = latest
		snap.OpenInterestAvg = avg
		return nil
	})
	g2.Go(func() error {
		if g.sentiment == nil {
			return nil
		}
		idx, err := g.sentiment.CurrentIndex(gctx)
		if err != nil {
			g.logger.Warn().Err(err).Msg("Sentiment unavailable, using neutral index")
		}
		snap.SentimentIndex = idx
		return nil
	})

	if err := g2.Wait(); err != nil {
		return models.MarketSnapshot{}, err
	}

	snap.LiquidationEvents = g.feed.events(time.Now())
	return snap, nil
}

func (g *Gateway) fetchCandles(ctx context.Context, symbol, timeframe string) ([]models.Candle, error) {
	limit := g.cfg.CandleCount
	if limit <= 0 {
		limit = 100
	}
	klines, err := g.client.NewKlinesService().
		Symbol(symbol).
		Interval(timeframe).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	candles := make([]models.Candle, 0, len(klines))
	for _, k := range klines {
		o, _ := strconv.ParseFloat(k.Open, 64)
		h, _ := strconv.ParseFloat(k.High, 64)
		l, _ := strconv.ParseFloat(k.Low, 64)
		c, _ := strconv.ParseFloat(k.Close, 64)
		v, _ := strconv.ParseFloat(k.Volume, 64)
		candles = append(candles, models.Candle{
			OpenTime: time.UnixMilli(k.OpenTime).UTC(),
			Open:     o,
			High:     h,
			Low:      l,
			Close:    c,
			Volume:   v,
		})
	}
	return candles, nil
}

func (g *Gateway) fetchCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := g.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, err
	}
	// The API returns a slice even when a symbol is specified.
	for _, p := range prices {
		if p.Symbol == symbol {
			return strconv.ParseFloat(p.Price, 64)
		}
	}
	return 0, errors.New("symbol not found in price list")
}

func (g *Gateway) fetchFundingRate(ctx context.Context, symbol string) (float64, error) {
	res, err := g.client.NewPremiumIndexService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, err
	}
	for _, r := range res {
		if r.Symbol == symbol {
			return strconv.ParseFloat(r.LastFundingRate, 64)
		}
	}
	return 0, errors.New("symbol not found in premium index")
}

func (g *Gateway) fetchOpenInterest(ctx context.Context, symbol string) (latest, avg float64, err error) {
	var g2 errgroup.Group

	g2.Go(func() error {
		res, err := g.client.NewGetOpenInterestService().Symbol(symbol).Do(ctx)
		if err != nil {
			return fmt.Errorf("open interest: %w", err)
		}
		latest, err = strconv.ParseFloat(res.OpenInterest, 64)
		return err
	})
	g2.Go(func() error {
		hist, err := g.client.NewOpenInterestStatisticsService().
			Symbol(symbol).
			Period(oiPeriod).
			Limit(oiLimit).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("open interest history: %w", err)
		}
		if len(hist) == 0 {
			return nil
		}
		var sum float64
		for _, h := range hist {
			oi, _ := strconv.ParseFloat(h.SumOpenInterest, 64)
			sum += oi
		}
		avg = sum / float64(len(hist))
		return nil
	})

	if err := g2.Wait(); err != nil {
		return 0, 0, err
	}
	return latest, avg, nil
}
