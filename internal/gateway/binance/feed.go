package binance

import (
	"strconv"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/rs/zerolog"

	"github.com/altsignals/scenario-engine/models"
)

// liquidationFeed keeps a rolling window of forced-liquidation prints from
// the futures websocket. The exchange only streams these live; there is no
// historical endpoint, so the window fills up as the process runs.
type liquidationFeed struct {
	window time.Duration

	mu     sync.Mutex
	buf    []models.LiquidationEvent
	stopC  chan struct{}
	closed chan struct{}
}

func newLiquidationFeed(window time.Duration) *liquidationFeed {
	if window <= 0 {
		window = 6 * time.Hour
	}
	return &liquidationFeed{window: window}
}

func (f *liquidationFeed) start(symbol string, logger zerolog.Logger) error {
	handler := func(event *futures.WsLiquidationOrderEvent) {
		f.record(event)
	}
	errHandler := func(err error) {
		logger.Warn().Err(err).Msg("Liquidation stream error")
	}

	doneC, stopC, err := futures.WsLiquidationOrderServe(symbol, handler, errHandler)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.stopC = stopC
	f.closed = make(chan struct{})
	closed := f.closed
	f.mu.Unlock()

	// Resubscribe when the stream drops, until stop() is called.
	go func() {
		for {
			select {
			case <-closed:
				return
			case <-doneC:
			}

			select {
			case <-closed:
				return
			case <-time.After(5 * time.Second):
			}

			newDone, newStop, err := futures.WsLiquidationOrderServe(symbol, handler, errHandler)
			if err != nil {
				logger.Warn().Err(err).Str("symbol", symbol).Msg("Liquidation stream resubscribe failed")
				continue
			}
			f.mu.Lock()
			f.stopC = newStop
			f.mu.Unlock()
			doneC = newDone
			logger.Info().Str("symbol", symbol).Msg("Liquidation stream resubscribed")
		}
	}()

	logger.Info().Str("symbol", symbol).Dur("window", f.window).Msg("Liquidation stream started")
	return nil
}

func (f *liquidationFeed) stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed != nil {
		close(f.closed)
		f.closed = nil
	}
	if f.stopC != nil {
		close(f.stopC)
		f.stopC = nil
	}
}

func (f *liquidationFeed) record(event *futures.WsLiquidationOrderEvent) {
	order := event.LiquidationOrder

	price, _ := strconv.ParseFloat(order.AvgPrice, 64)
	if price <= 0 {
		price, _ = strconv.ParseFloat(order.Price, 64)
	}
	qty, _ := strconv.ParseFloat(order.LastFilledQty, 64)
	if qty <= 0 {
		qty, _ = strconv.ParseFloat(order.OrigQuantity, 64)
	}
	if price <= 0 || qty <= 0 {
		return
	}

	// A SELL liquidation order force-closes a long position, and vice versa.
	side := "long"
	if order.Side == futures.SideTypeBuy {
		side = "short"
	}

	ev := models.LiquidationEvent{
		Price:     price,
		Side:      side,
		VolumeUSD: price * qty,
		Timestamp: time.UnixMilli(order.TradeTime).UTC(),
	}

	f.mu.Lock()
	f.buf = append(f.buf, ev)
	f.pruneLocked(time.Now())
	f.mu.Unlock()
}

// events returns a copy of the window, pruned relative to now.
func (f *liquidationFeed) events(now time.Time) []models.LiquidationEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruneLocked(now)
	out := make([]models.LiquidationEvent, len(f.buf))
	copy(out, f.buf)
	return out
}

func (f *liquidationFeed) pruneLocked(now time.Time) {
	cutoff := now.Add(-f.window)
	i := 0
	for i < len(f.buf) && f.buf[i].Timestamp.Before(cutoff) {
		i++
	}
	if i > 0 {
		f.buf = f.buf[i:]
	}
}
