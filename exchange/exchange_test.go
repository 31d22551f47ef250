package exchange

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

var (
	base  = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	quote = common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")
	mdai  = common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0")
	alice = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	bob   = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")

	pair = Pair{Base: base, Quote: quote}
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func newTestViews() *Views {
	logger := zerolog.Nop()
	return NewViews(&logger)
}

// buyOrder is a maker giving quote for base at price quoteAmount/baseAmount.
func buyOrder(id string, user common.Address, baseAmount, quoteAmount int64, ts int64) Order {
	return Order{
		ID:         id,
		User:       user,
		TokenGet:   base,
		AmountGet:  ether(baseAmount),
		TokenGive:  quote,
		AmountGive: ether(quoteAmount),
		Timestamp:  ts,
	}
}

// sellOrder is a maker giving base for quote.
func sellOrder(id string, user common.Address, baseAmount, quoteAmount int64, ts int64) Order {
	return Order{
		ID:         id,
		User:       user,
		TokenGet:   quote,
		AmountGet:  ether(quoteAmount),
		TokenGive:  base,
		AmountGive: ether(baseAmount),
		Timestamp:  ts,
	}
}

func at(hour, minute int) int64 {
	return time.Date(2024, time.March, 4, hour, minute, 0, 0, time.UTC).Unix()
}

func ids(orders []DecoratedOrder) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}
