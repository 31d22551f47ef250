package exchange

import "github.com/ethereum/go-ethereum/common"

// ResolveOpenOrders returns the orders of all that were neither cancelled nor
// filled and that trade market on either side. Output keeps the order of all.
func ResolveOpenOrders(all, cancelled, filled []Order, market common.Address) []Order {
	closed := make(map[string]struct{}, len(cancelled)+len(filled))
	for _, o := range cancelled {
		closed[o.ID] = struct{}{}
	}
	for _, o := range filled {
		closed[o.ID] = struct{}{}
	}

	open := []Order{}
	for _, o := range all {
		if o.ID == "" {
			continue
		}
		if _, ok := closed[o.ID]; ok {
			continue
		}
		if o.TokenGet != market && o.TokenGive != market {
			continue
		}
		open = append(open, o)
	}
	return open
}
