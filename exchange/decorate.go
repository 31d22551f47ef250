package exchange

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

const PRICE_PRECISION = 5

var priceScale = big.NewInt(100000)

// Decorate computes the display fields of an order for the given pair.
// Orders without both amounts cannot be priced and return ErrMalformedOrder.
func Decorate(order Order, pair Pair) (DecoratedOrder, error) {
	if order.AmountGet == nil || order.AmountGive == nil {
		return DecoratedOrder{}, fmt.Errorf("%w: order %q is missing amounts", ErrMalformedOrder, order.ID)
	}

	base, quote := order.AmountGive, order.AmountGet
	if order.TokenGive == pair.Quote {
		base, quote = order.AmountGet, order.AmountGive
	}

	return DecoratedOrder{
		Order:              order,
		Token0Amount:       decimal.NewFromBigInt(base, -TOKEN_DECIMALS),
		Token1Amount:       decimal.NewFromBigInt(quote, -TOKEN_DECIMALS),
		TokenPrice:         tokenPrice(base, quote),
		FormattedTimestamp: FormatTimestamp(order.Timestamp),
	}, nil
}

// tokenPrice is token1/token0 truncated to five decimals using integer math.
func tokenPrice(token0, token1 *big.Int) decimal.Decimal {
	if token0.Sign() == 0 {
		return decimal.Zero
	}
	scaled := new(big.Int).Mul(token1, priceScale)
	scaled.Quo(scaled, token0)
	return decimal.NewFromBigInt(scaled, -PRICE_PRECISION)
}

// FormatTimestamp renders unix seconds as "3:04:05pm 2 Jan 5" in UTC, where the
// middle number is the weekday (0 is Sunday). Zero yields an empty string.
func FormatTimestamp(ts int64) string {
	if ts == 0 {
		return ""
	}
	t := time.Unix(ts, 0).UTC()
	return fmt.Sprintf("%s %d %s", t.Format("3:04:05pm"), int(t.Weekday()), t.Format("Jan 2"))
}

func makerSide(o Order, pair Pair) OrderType {
	if o.TokenGive == pair.Quote {
		return OrderTypeBuy
	}
	return OrderTypeSell
}
