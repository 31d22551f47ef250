package monitor

import (
	"math/big"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/msalopek/exchange_monitor/exchange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func txHash(n int) common.Hash {
	return common.BigToHash(big.NewInt(int64(n)))
}

func testOrder(id string, user common.Address) exchange.Order {
	return exchange.Order{
		ID:         id,
		User:       user,
		TokenGet:   meth,
		AmountGet:  ether(10),
		TokenGive:  dapp,
		AmountGive: ether(1),
		Timestamp:  1709546400,
	}
}

func orderEvent(n int, o exchange.Order) exchange.OrderEvent {
	return exchange.OrderEvent{EventMeta: exchange.EventMeta{TxHash: txHash(n), BlockNumber: uint64(n)}, Order: o}
}

func transferEvent(n int, kind exchange.EventKind, user, token common.Address, balance int64) exchange.TransferEvent {
	return exchange.TransferEvent{
		EventMeta: exchange.EventMeta{TxHash: txHash(n), BlockNumber: uint64(n)},
		Direction: kind,
		Token:     token,
		User:      user,
		Amount:    ether(1),
		Balance:   ether(balance),
	}
}

func TestStoreIgnoresDuplicates(t *testing.T) {
	s := NewStore(0)

	assert.True(t, s.Apply(orderEvent(1, testOrder("1", user1))))
	assert.False(t, s.Apply(orderEvent(2, testOrder("1", user2))))
	assert.True(t, s.Apply(exchange.CancelEvent{Order: testOrder("1", user1)}))
	assert.False(t, s.Apply(exchange.CancelEvent{Order: testOrder("1", user1)}))
	assert.True(t, s.Apply(exchange.TradeEvent{Order: testOrder("2", user1)}))
	assert.False(t, s.Apply(exchange.TradeEvent{Order: testOrder("2", user1)}))

	snap := s.Snapshot()
	require.Len(t, snap.AllOrders, 1)
	assert.Equal(t, user1, snap.AllOrders[0].User)
	assert.Len(t, snap.CancelledOrders, 1)
	assert.Len(t, snap.FilledOrders, 1)
	assert.Len(t, s.Activity(0), 3)
}

func TestStoreRejectsOrderWithoutID(t *testing.T) {
	s := NewStore(0)
	assert.False(t, s.Apply(orderEvent(1, testOrder("", user1))))
	assert.Empty(t, s.Snapshot().AllOrders)
	assert.Empty(t, s.Activity(0))
}

func TestStoreSnapshotIsolation(t *testing.T) {
	s := NewStore(0)
	s.Apply(orderEvent(1, testOrder("1", user1)))

	snap := s.Snapshot()
	snap.AllOrders[0].AmountGet.SetInt64(0)
	snap.AllOrders[0].User = user2
	s.Apply(orderEvent(2, testOrder("2", user1)))

	assert.Len(t, snap.AllOrders, 1)
	fresh := s.Snapshot()
	require.Len(t, fresh.AllOrders, 2)
	assert.Equal(t, ether(10), fresh.AllOrders[0].AmountGet)
	assert.Equal(t, user1, fresh.AllOrders[0].User)
}

func TestStoreDoesNotAliasInput(t *testing.T) {
	s := NewStore(0)
	o := testOrder("1", user1)
	s.Apply(orderEvent(1, o))
	o.AmountGet.SetInt64(3)

	assert.Equal(t, ether(10), s.Snapshot().AllOrders[0].AmountGet)
}

func TestStoreActivityNewestFirstAndCapped(t *testing.T) {
	s := NewStore(3)
	for i := 1; i <= 5; i++ {
		s.Apply(orderEvent(i, testOrder(strconv.Itoa(i), user1)))
	}

	activity := s.Activity(0)
	require.Len(t, activity, 3)
	assert.Equal(t, "5", activity[0].ID)
	assert.Equal(t, "4", activity[1].ID)
	assert.Equal(t, "3", activity[2].ID)
	assert.Equal(t, exchange.KindOrder, activity[0].Kind)
	assert.Equal(t, txHash(5), activity[0].TxHash)
	assert.Equal(t, int64(1709546400), activity[0].Timestamp)

	assert.Len(t, s.Activity(2), 2)
	assert.Len(t, s.Activity(10), 3)
}

func TestStoreTransferActivityUsesClock(t *testing.T) {
	s := NewStore(0)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }

	assert.True(t, s.Apply(transferEvent(1, exchange.KindDeposit, user1, dapp, 10)))
	assert.False(t, s.Apply(transferEvent(1, exchange.KindDeposit, user1, dapp, 10)))

	activity := s.Activity(0)
	require.Len(t, activity, 1)
	assert.Equal(t, exchange.KindDeposit, activity[0].Kind)
	assert.Equal(t, int64(1700000000), activity[0].Timestamp)
	assert.Equal(t, user1, activity[0].User)
	assert.Empty(t, activity[0].ID)
}

func TestStoreBalancesKeepNewest(t *testing.T) {
	s := NewStore(0)
	// withdraw at block 5 arrives before the deposit at block 2
	s.Apply(transferEvent(5, exchange.KindWithdraw, user1, dapp, 7))
	s.Apply(transferEvent(2, exchange.KindDeposit, user1, dapp, 10))
	s.Apply(transferEvent(3, exchange.KindDeposit, user2, meth, 4))

	balances := map[common.Address]map[common.Address]*big.Int{}
	for _, b := range s.Snapshot().Balances {
		if balances[b.User] == nil {
			balances[b.User] = map[common.Address]*big.Int{}
		}
		balances[b.User][b.Token] = b.Balance
	}
	assert.Equal(t, ether(7), balances[user1][dapp])
	assert.Equal(t, ether(4), balances[user2][meth])
	assert.Equal(t, 3, s.Counts().Transfers)
}

func TestStoreOnChange(t *testing.T) {
	s := NewStore(0)
	var got []ActivityEntry
	s.OnChange(func(e ActivityEntry) { got = append(got, e) })

	s.Apply(orderEvent(1, testOrder("1", user1)))
	s.Apply(orderEvent(1, testOrder("1", user1)))
	s.Apply(exchange.TradeEvent{Order: testOrder("1", user2)})

	require.Len(t, got, 2)
	assert.Equal(t, exchange.KindOrder, got[0].Kind)
	assert.Equal(t, exchange.KindTrade, got[1].Kind)
	assert.Equal(t, user2, got[1].User)
}

func TestStoreConcurrentApplyAndSnapshot(t *testing.T) {
	s := NewStore(10)
	s.SelectMarket(dappMeth)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id := strconv.Itoa(w*1000 + i)
				s.Apply(orderEvent(w*1000+i, testOrder(id, user1)))
				snap := s.Snapshot()
				_ = snap.OpenOrders(snap.SelectedMarket())
			}
		}(w)
	}
	wg.Wait()

	assert.Len(t, s.Snapshot().AllOrders, 200)
	assert.Len(t, s.Activity(0), 10)
}
