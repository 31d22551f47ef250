package exchange

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const (
	COLOR_GREEN = "#25CE8F"
	COLOR_RED   = "#F45353"

	PRICE_UP   = "+"
	PRICE_DOWN = "-"

	TOKEN_DECIMALS = 18
)

type OrderType string

const (
	OrderTypeBuy  OrderType = "buy"
	OrderTypeSell OrderType = "sell"
)

func (t OrderType) Opposite() OrderType {
	if t == OrderTypeBuy {
		return OrderTypeSell
	}
	return OrderTypeBuy
}

func (t OrderType) Class() string {
	if t == OrderTypeBuy {
		return COLOR_GREEN
	}
	return COLOR_RED
}

func (t OrderType) Sign() string {
	if t == OrderTypeBuy {
		return PRICE_UP
	}
	return PRICE_DOWN
}

// Order is the canonical record decoded from Order, Cancel and Trade events.
// Creator is only set on trades and holds the taker.
type Order struct {
	ID         string         `json:"id"`
	User       common.Address `json:"user"`
	Creator    common.Address `json:"creator"`
	TokenGet   common.Address `json:"token_get"`
	AmountGet  *big.Int       `json:"amount_get"`
	TokenGive  common.Address `json:"token_give"`
	AmountGive *big.Int       `json:"amount_give"`
	Timestamp  int64          `json:"timestamp"`
}

func (o Order) Clone() Order {
	c := o
	if o.AmountGet != nil {
		c.AmountGet = new(big.Int).Set(o.AmountGet)
	}
	if o.AmountGive != nil {
		c.AmountGive = new(big.Int).Set(o.AmountGive)
	}
	return c
}

func CloneOrders(orders []Order) []Order {
	out := make([]Order, len(orders))
	for i, o := range orders {
		out[i] = o.Clone()
	}
	return out
}

// Pair is the active market. Base is token0 and Quote is token1.
type Pair struct {
	Base  common.Address `json:"base"`
	Quote common.Address `json:"quote"`
}

// Ready reports whether both sides of the pair are set.
func (p Pair) Ready() bool {
	return p.Base != (common.Address{}) && p.Quote != (common.Address{})
}

func (p Pair) Has(token common.Address) bool {
	return token == p.Base || token == p.Quote
}

// Contains reports whether both tokens of the order belong to the pair.
func (p Pair) Contains(o Order) bool {
	return p.Has(o.TokenGet) && p.Has(o.TokenGive)
}

// DecoratedOrder is an Order with its display fields computed for a pair.
// Token0Amount is always the base asset amount and Token1Amount the quote amount.
type DecoratedOrder struct {
	Order
	Token0Amount       decimal.Decimal `json:"token0_amount"`
	Token1Amount       decimal.Decimal `json:"token1_amount"`
	TokenPrice         decimal.Decimal `json:"token_price"`
	FormattedTimestamp string          `json:"formatted_timestamp"`
	OrderType          OrderType       `json:"order_type,omitempty"`
	OrderTypeClass     string          `json:"order_type_class,omitempty"`
	OrderFillAction    OrderType       `json:"order_fill_action,omitempty"`
	OrderSign          string          `json:"order_sign,omitempty"`
	TokenPriceClass    string          `json:"token_price_class,omitempty"`
}

// Balance is the last exchange balance reported for a user and token.
type Balance struct {
	User    common.Address `json:"user"`
	Token   common.Address `json:"token"`
	Balance *big.Int       `json:"balance"`
}

// Snapshot is an immutable copy of the event store handed to the builders.
type Snapshot struct {
	AllOrders       []Order   `json:"all_orders"`
	CancelledOrders []Order   `json:"cancelled_orders"`
	FilledOrders    []Order   `json:"filled_orders"`
	Balances        []Balance `json:"balances"`
	Pair            Pair      `json:"pair"`
}

// SelectedMarket is the base token of the selected pair.
func (s Snapshot) SelectedMarket() common.Address {
	return s.Pair.Base
}

func (s Snapshot) OpenOrders(market common.Address) []Order {
	return ResolveOpenOrders(s.AllOrders, s.CancelledOrders, s.FilledOrders, market)
}
