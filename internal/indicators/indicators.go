// Package indicators derives the shared indicator bundle from a snapshot's
// candle series. The bundle is computed once per request and read by every
// analyzer; classic oscillators come from the indicator library, the
// directional-movement block is computed locally.
package indicators

import (
	"math"

	"github.com/cinar/indicator"
	"github.com/samber/lo"

	"github.com/altsignals/scenario-engine/config"
	"github.com/altsignals/scenario-engine/models"
)

// Compute builds the indicator bundle for the given candles. With too few
// candles the library functions still return series; the bundle simply
// carries less reliable values, which the analyzers account for.
func Compute(candles []models.Candle, cfg *config.Config) models.IndicatorBundle {
	var bundle models.IndicatorBundle
	if len(candles) == 0 {
		return bundle
	}

	high := make([]float64, len(candles))
	low := make([]float64, len(candles))
	closing := make([]float64, len(candles))
	volume := make([]float64, len(candles))
	for i, c := range candles {
		high[i] = c.High
		low[i] = c.Low
		closing[i] = c.Close
		volume[i] = c.Volume
	}

	lastClose := closing[len(closing)-1]

	_, atr := indicator.Atr(cfg.ATRPeriod, high, low, closing)
	bundle.ATR = lo.LastOrEmpty(atr)
	if lastClose > 0 {
		bundle.ATRPct = bundle.ATR / lastClose * 100
	}

	bundle.EMAFast = lo.LastOrEmpty(indicator.Ema(cfg.EMAFastPeriod, closing))
	bundle.EMASlow = lo.LastOrEmpty(indicator.Ema(cfg.EMASlowPeriod, closing))
	bundle.SMA = lo.LastOrEmpty(indicator.Sma(cfg.SMAPeriod, closing))

	_, rsi := indicator.RsiPeriod(cfg.RSIPeriod, closing)
	bundle.RSI = lo.LastOrEmpty(rsi)

	macd, signal := indicator.Macd(closing)
	bundle.MACDHist = lo.LastOrEmpty(macd) - lo.LastOrEmpty(signal)

	bundle.VWAP = vwap(closing, volume)

	bundle.ADX, bundle.PlusDI, bundle.MinusDI = adx(candles, cfg.ADXPeriod)
	bundle.TrendStrength = math.Min(bundle.ADX/50.0, 1.0)

	return bundle
}

// vwap is the volume-weighted average price over the full series. A series
// without volume data degrades to the plain mean close.
func vwap(closing, volume []float64) float64 {
	var pv, v float64
	for i := range closing {
		pv += closing[i] * volume[i]
		v += volume[i]
	}
	if v > 0 {
		return pv / v
	}
	return lo.Sum(closing) / float64(len(closing))
}

// adx computes the average directional index with Wilder smoothing and
// returns ADX, +DI and -DI. Requires at least 2*period candles.
func adx(candles []models.Candle, period int) (float64, float64, float64) {
	if len(candles) < period*2 {
		return 0, 0, 0
	}

	var plusDM, minusDM, trueRange []float64
	for i := 1; i < len(candles); i++ {
		upMove := candles[i].High - candles[i-1].High
		downMove := candles[i-1].Low - candles[i].Low

		pDM := 0.0
		if upMove > downMove && upMove > 0 {
			pDM = upMove
		}
		plusDM = append(plusDM, pDM)

		mDM := 0.0
		if downMove > upMove && downMove > 0 {
			mDM = downMove
		}
		minusDM = append(minusDM, mDM)

		tr1 := candles[i].High - candles[i].Low
		tr2 := math.Abs(candles[i].High - candles[i-1].Close)
		tr3 := math.Abs(candles[i].Low - candles[i-1].Close)
		trueRange = append(trueRange, math.Max(tr1, math.Max(tr2, tr3)))
	}

	var smoothedPlusDM, smoothedMinusDM, smoothedTR float64
	for i := 0; i < period; i++ {
		smoothedPlusDM += plusDM[i]
		smoothedMinusDM += minusDM[i]
		smoothedTR += trueRange[i]
	}
	if smoothedTR == 0 {
		return 0, 0, 0
	}

	plusDI := (smoothedPlusDM / smoothedTR) * 100
	minusDI := (smoothedMinusDM / smoothedTR) * 100

	adxVal := 0.0
	if plusDI+minusDI > 0 {
		adxVal = math.Abs(plusDI-minusDI) / (plusDI + minusDI) * 100
	}

	for i := period; i < len(trueRange); i++ {
		smoothedPlusDM = smoothedPlusDM - (smoothedPlusDM / float64(period)) + plusDM[i]
		smoothedMinusDM = smoothedMinusDM - (smoothedMinusDM / float64(period)) + minusDM[i]
		smoothedTR = smoothedTR - (smoothedTR / float64(period)) + trueRange[i]
		if smoothedTR == 0 {
			continue
		}

		newPlusDI := (smoothedPlusDM / smoothedTR) * 100
		newMinusDI := (smoothedMinusDM / smoothedTR) * 100
		if newPlusDI+newMinusDI == 0 {
			continue
		}

		newDX := math.Abs(newPlusDI-newMinusDI) / (newPlusDI + newMinusDI) * 100
		adxVal = ((float64(period-1) * adxVal) + newDX) / float64(period)

		plusDI = newPlusDI
		minusDI = newMinusDI
	}

	return adxVal, plusDI, minusDI
}
