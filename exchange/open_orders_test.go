package exchange

import (
	"math/rand"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func orderIDs(orders []Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

func TestResolveOpenOrders(t *testing.T) {
	all := []Order{
		buyOrder("1", alice, 1, 2, 1),
		sellOrder("2", bob, 1, 2, 2),
		buyOrder("3", alice, 1, 2, 3),
		buyOrder("", alice, 1, 2, 4),
		sellOrder("4", bob, 1, 2, 5),
	}
	cancelled := []Order{all[0]}
	filled := []Order{all[2]}

	open := ResolveOpenOrders(all, cancelled, filled, base)
	assert.Equal(t, []string{"2", "4"}, orderIDs(open))
}

func TestResolveOpenOrdersFiltersMarket(t *testing.T) {
	other := Order{ID: "5", TokenGet: mdai, AmountGet: ether(1), TokenGive: quote, AmountGive: ether(1)}
	all := []Order{buyOrder("1", alice, 1, 2, 1), other}

	assert.Equal(t, []string{"1"}, orderIDs(ResolveOpenOrders(all, nil, nil, base)))
	assert.Equal(t, []string{"1", "5"}, orderIDs(ResolveOpenOrders(all, nil, nil, quote)))
	assert.Empty(t, ResolveOpenOrders(all, nil, nil, alice))
}

func TestResolveOpenOrdersCancelledAndFilled(t *testing.T) {
	o := buyOrder("1", alice, 1, 2, 1)
	open := ResolveOpenOrders([]Order{o}, []Order{o}, []Order{o}, base)
	assert.Empty(t, open)
}

func TestResolveOpenOrdersCancelBeforeOrder(t *testing.T) {
	// the cancel stream was merged before the order stream
	cancel := buyOrder("1", alice, 1, 2, 1)
	all := []Order{buyOrder("2", bob, 1, 2, 2), buyOrder("1", alice, 1, 2, 1)}

	open := ResolveOpenOrders(all, []Order{cancel}, nil, base)
	assert.Equal(t, []string{"2"}, orderIDs(open))
}

func TestResolveOpenOrdersOrderIndependent(t *testing.T) {
	all := []Order{}
	cancelled := []Order{}
	filled := []Order{}
	for i := 1; i <= 30; i++ {
		o := buyOrder(strconv.Itoa(i), alice, 1, int64(i), int64(i))
		all = append(all, o)
		switch i % 3 {
		case 0:
			cancelled = append(cancelled, o)
		case 1:
			filled = append(filled, o)
		}
	}

	want := []string{}
	for i := 2; i <= 30; i += 3 {
		want = append(want, strconv.Itoa(i))
	}
	sort.Strings(want)

	r := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		r.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
		r.Shuffle(len(cancelled), func(i, j int) { cancelled[i], cancelled[j] = cancelled[j], cancelled[i] })
		r.Shuffle(len(filled), func(i, j int) { filled[i], filled[j] = filled[j], filled[i] })

		got := orderIDs(ResolveOpenOrders(all, cancelled, filled, base))
		sort.Strings(got)
		assert.Equal(t, want, got, "round %d", round)
	}
}
