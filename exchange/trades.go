package exchange

import "slices"

// chronologicalTrades returns the decorated trades of the pair, oldest first.
func (v *Views) chronologicalTrades(filled []Order, pair Pair) []DecoratedOrder {
	trades := filterPair(filled, pair)
	sortByTimeAsc(trades)
	return v.decorateAll(trades, pair)
}

// TradeHistory returns the trades of the pair newest first. Each trade is
// green when its price did not drop against the trade before it.
func (v *Views) TradeHistory(filled []Order, pair Pair) []DecoratedOrder {
	if !pair.Ready() {
		return []DecoratedOrder{}
	}

	trades := v.chronologicalTrades(filled, pair)
	for i := range trades {
		if i == 0 || trades[i].TokenPrice.GreaterThanOrEqual(trades[i-1].TokenPrice) {
			trades[i].TokenPriceClass = COLOR_GREEN
		} else {
			trades[i].TokenPriceClass = COLOR_RED
		}
	}
	slices.Reverse(trades)
	return trades
}
