package monitor

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/msalopek/exchange_monitor/exchange"
)

// Every read takes its own snapshot so concurrent callers never see a
// half-applied event.

func (m *Monitor) pairOrSelected(pair exchange.Pair, snap exchange.Snapshot) exchange.Pair {
	if pair == (exchange.Pair{}) {
		return snap.Pair
	}
	return pair
}

func (m *Monitor) SelectMarket(pair exchange.Pair) {
	m.store.SelectMarket(pair)
	m.logger.Info().
		Str("base", pair.Base.Hex()).
		Str("quote", pair.Quote.Hex()).
		Msg("selected market")
}

func (m *Monitor) OpenOrders(market common.Address) []exchange.Order {
	snap := m.store.Snapshot()
	if market == (common.Address{}) {
		market = snap.SelectedMarket()
	}
	return snap.OpenOrders(market)
}

func (m *Monitor) OrderBook(pair exchange.Pair) *exchange.OrderBook {
	snap := m.store.Snapshot()
	pair = m.pairOrSelected(pair, snap)
	return m.views.OrderBook(snap.OpenOrders(pair.Base), pair)
}

func (m *Monitor) PriceChart(pair exchange.Pair) *exchange.PriceChart {
	snap := m.store.Snapshot()
	return m.views.PriceChart(snap.FilledOrders, m.pairOrSelected(pair, snap))
}

func (m *Monitor) TradeHistory(pair exchange.Pair) []exchange.DecoratedOrder {
	snap := m.store.Snapshot()
	return m.views.TradeHistory(snap.FilledOrders, m.pairOrSelected(pair, snap))
}

func (m *Monitor) MyOpenOrders(account common.Address, pair exchange.Pair) []exchange.DecoratedOrder {
	snap := m.store.Snapshot()
	pair = m.pairOrSelected(pair, snap)
	return m.views.MyOpenOrders(account, pair, snap.OpenOrders(pair.Base))
}

func (m *Monitor) MyFilledOrders(account common.Address, pair exchange.Pair) []exchange.DecoratedOrder {
	snap := m.store.Snapshot()
	return m.views.MyFilledOrders(account, m.pairOrSelected(pair, snap), snap.FilledOrders)
}

func (m *Monitor) Balances(account common.Address) []exchange.DisplayBalance {
	return m.views.Balances(account, m.store.Snapshot().Balances)
}

func (m *Monitor) Activity(limit int) []ActivityEntry {
	return m.store.Activity(limit)
}
