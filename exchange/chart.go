package exchange

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one hour of trades. Y holds open, high, low and close.
type Candle struct {
	X time.Time          `json:"x"`
	Y [4]decimal.Decimal `json:"y"`
}

func (c Candle) Open() decimal.Decimal  { return c.Y[0] }
func (c Candle) High() decimal.Decimal  { return c.Y[1] }
func (c Candle) Low() decimal.Decimal   { return c.Y[2] }
func (c Candle) Close() decimal.Decimal { return c.Y[3] }

type CandleSeries struct {
	Data []Candle `json:"data"`
}

type PriceChart struct {
	LastPrice       decimal.Decimal `json:"last_price"`
	LastPriceChange string          `json:"last_price_change"`
	Series          []CandleSeries  `json:"series"`
}

// PriceChart returns hourly candles and the last price move for the pair, or
// nil when no pair is selected.
func (v *Views) PriceChart(filled []Order, pair Pair) *PriceChart {
	if !pair.Ready() {
		return nil
	}

	trades := v.chronologicalTrades(filled, pair)

	lastPrice, secondLastPrice := decimal.Zero, decimal.Zero
	if n := len(trades); n > 0 {
		lastPrice = trades[n-1].TokenPrice
		if n > 1 {
			secondLastPrice = trades[n-2].TokenPrice
		}
	}

	change := PRICE_DOWN
	if lastPrice.GreaterThanOrEqual(secondLastPrice) {
		change = PRICE_UP
	}

	return &PriceChart{
		LastPrice:       lastPrice,
		LastPriceChange: change,
		Series:          []CandleSeries{{Data: BuildCandles(trades)}},
	}
}

// BuildCandles buckets trades, which must already be in ascending time order,
// by the hour they fall in.
func BuildCandles(trades []DecoratedOrder) []Candle {
	candles := []Candle{}
	buckets := map[int64]int{}
	for _, t := range trades {
		hour := time.Unix(t.Timestamp, 0).UTC().Truncate(time.Hour)
		price := t.TokenPrice

		i, ok := buckets[hour.Unix()]
		if !ok {
			buckets[hour.Unix()] = len(candles)
			candles = append(candles, Candle{X: hour, Y: [4]decimal.Decimal{price, price, price, price}})
			continue
		}

		c := &candles[i]
		c.Y[1] = decimal.Max(c.Y[1], price)
		c.Y[2] = decimal.Min(c.Y[2], price)
		c.Y[3] = price
	}
	return candles
}
