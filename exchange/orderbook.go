package exchange

type OrderBook struct {
	BuyOrders  []DecoratedOrder `json:"buy_orders"`
	SellOrders []DecoratedOrder `json:"sell_orders"`
}

// OrderBook splits the open orders of the pair into buy and sell ladders.
// Both ladders are sorted by price, highest first. Nil means no pair is selected.
func (v *Views) OrderBook(open []Order, pair Pair) *OrderBook {
	if !pair.Ready() {
		return nil
	}

	book := &OrderBook{
		BuyOrders:  []DecoratedOrder{},
		SellOrders: []DecoratedOrder{},
	}
	for _, o := range v.decorateAll(filterPair(open, pair), pair) {
		o.OrderType = makerSide(o.Order, pair)
		o.OrderTypeClass = o.OrderType.Class()
		o.OrderFillAction = o.OrderType.Opposite()
		if o.OrderType == OrderTypeBuy {
			book.BuyOrders = append(book.BuyOrders, o)
		} else {
			book.SellOrders = append(book.SellOrders, o)
		}
	}

	sortByPriceDesc(book.BuyOrders)
	sortByPriceDesc(book.SellOrders)
	return book
}
