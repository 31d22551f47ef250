package exchange

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// MyOpenOrders returns the account's open orders in the pair, newest first,
// classified from the maker's side.
func (v *Views) MyOpenOrders(account common.Address, pair Pair, open []Order) []DecoratedOrder {
	if account == (common.Address{}) || !pair.Ready() {
		return []DecoratedOrder{}
	}

	mine := []Order{}
	for _, o := range open {
		if o.User == account && pair.Contains(o) {
			mine = append(mine, o)
		}
	}

	orders := v.decorateAll(mine, pair)
	for i := range orders {
		setSide(&orders[i], makerSide(orders[i].Order, pair))
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Timestamp > orders[j].Timestamp
	})
	return orders
}

// MyFilledOrders returns the trades the account took part in, newest first.
// When the account filled the order (creator) the side is the opposite of the
// maker's. A self-trade is reported from the taker's side.
func (v *Views) MyFilledOrders(account common.Address, pair Pair, filled []Order) []DecoratedOrder {
	if account == (common.Address{}) || !pair.Ready() {
		return []DecoratedOrder{}
	}

	mine := []Order{}
	for _, o := range filled {
		if (o.User == account || o.Creator == account) && pair.Contains(o) {
			mine = append(mine, o)
		}
	}
	sortByTimeDesc(mine)

	orders := v.decorateAll(mine, pair)
	for i := range orders {
		side := makerSide(orders[i].Order, pair)
		if orders[i].Creator == account {
			side = side.Opposite()
		}
		setSide(&orders[i], side)
	}
	return orders
}

func setSide(o *DecoratedOrder, side OrderType) {
	o.OrderType = side
	o.OrderTypeClass = side.Class()
	o.OrderSign = side.Sign()
}

type DisplayBalance struct {
	Token   common.Address  `json:"token"`
	Balance decimal.Decimal `json:"balance"`
}

// Balances returns the account's exchange balances in token units, sorted by
// token address.
func (v *Views) Balances(account common.Address, balances []Balance) []DisplayBalance {
	out := []DisplayBalance{}
	if account == (common.Address{}) {
		return out
	}
	for _, b := range balances {
		if b.User != account || b.Balance == nil {
			continue
		}
		out = append(out, DisplayBalance{
			Token:   b.Token,
			Balance: decimal.NewFromBigInt(b.Balance, -TOKEN_DECIMALS),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Token.Hex() < out[j].Token.Hex()
	})
	return out
}
