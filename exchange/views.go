package exchange

import (
	"sort"

	"github.com/rs/zerolog"
)

// Views builds the decorated order book, trade and personal views. Its
// methods only read their arguments and are safe to call concurrently.
type Views struct {
	logger *zerolog.Logger
}

func NewViews(logger *zerolog.Logger) *Views {
	return &Views{logger: logger}
}

// decorateAll skips orders that cannot be decorated so one bad row does not
// empty the whole view.
func (v *Views) decorateAll(orders []Order, pair Pair) []DecoratedOrder {
	decorated := make([]DecoratedOrder, 0, len(orders))
	for _, o := range orders {
		d, err := Decorate(o, pair)
		if err != nil {
			v.logger.Warn().Err(err).Str("order_id", o.ID).Msg("skipping order")
			continue
		}
		decorated = append(decorated, d)
	}
	return decorated
}

func filterPair(orders []Order, pair Pair) []Order {
	out := []Order{}
	for _, o := range orders {
		if pair.Contains(o) {
			out = append(out, o)
		}
	}
	return out
}

func sortByTimeAsc(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Timestamp < orders[j].Timestamp
	})
}

func sortByTimeDesc(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Timestamp > orders[j].Timestamp
	})
}

func sortByPriceDesc(orders []DecoratedOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].TokenPrice.GreaterThan(orders[j].TokenPrice)
	})
}
