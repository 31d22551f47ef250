package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/msalopek/exchange_monitor/exchange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEthSubscription struct {
	errc chan error
	once sync.Once
}

func (s *fakeEthSubscription) Unsubscribe() {
	s.once.Do(func() { close(s.errc) })
}

func (s *fakeEthSubscription) Err() <-chan error {
	return s.errc
}

type fakeFilterer struct {
	head    uint64
	logs    []types.Log
	err     error
	queries []ethereum.FilterQuery
	live    chan<- types.Log
	sub     *fakeEthSubscription
}

func (f *fakeFilterer) BlockNumber(ctx context.Context) (uint64, error) {
	return f.head, nil
}

func (f *fakeFilterer) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.queries = append(f.queries, q)
	return f.logs, f.err
}

func (f *fakeFilterer) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	f.queries = append(f.queries, q)
	f.live = ch
	f.sub = &fakeEthSubscription{errc: make(chan error, 1)}
	return f.sub, nil
}

func TestEthChainHistoricalEvents(t *testing.T) {
	d := MustInitDecoder()
	broken := orderLog(t, d, exchange.KindOrder, 13, 2, user1, 1)
	broken.Data = broken.Data[:10]
	f := &fakeFilterer{
		head: 99,
		logs: []types.Log{
			orderLog(t, d, exchange.KindOrder, 12, 1, user1, 1),
			broken,
			orderLog(t, d, exchange.KindOrder, 14, 3, user2, 2),
		},
	}
	chain := newEthChain(f, exchangeAddr, newTestLogger())

	head, err := chain.LatestBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(99), head)

	events, err := chain.HistoricalEvents(context.Background(), exchange.KindOrder, 5, 99)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "1", events[0].(exchange.OrderEvent).Order.ID)
	assert.Equal(t, "3", events[1].(exchange.OrderEvent).Order.ID)

	require.Len(t, f.queries, 1)
	q := f.queries[0]
	topic, _ := d.Topic(exchange.KindOrder)
	assert.Equal(t, int64(5), q.FromBlock.Int64())
	assert.Equal(t, int64(99), q.ToBlock.Int64())
	assert.Equal(t, exchangeAddr, q.Addresses[0])
	assert.Equal(t, topic, q.Topics[0][0])
}

func TestEthChainHistoricalEventsError(t *testing.T) {
	f := &fakeFilterer{err: errors.New("limit exceeded")}
	chain := newEthChain(f, exchangeAddr, newTestLogger())

	_, err := chain.HistoricalEvents(context.Background(), exchange.KindTrade, 0, 1)
	assert.ErrorContains(t, err, "filter Trade logs")
	assert.ErrorIs(t, err, f.err)
}

func TestEthChainSubscribe(t *testing.T) {
	d := MustInitDecoder()
	f := &fakeFilterer{}
	chain := newEthChain(f, exchangeAddr, newTestLogger())

	var mu sync.Mutex
	var got []string
	sub, err := chain.Subscribe(context.Background(), exchange.KindOrder, func(ev exchange.Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev.(exchange.OrderEvent).Order.ID)
	})
	require.NoError(t, err)
	require.NotNil(t, f.live)

	removed := orderLog(t, d, exchange.KindOrder, 21, 2, user1, 1)
	removed.Removed = true
	f.live <- orderLog(t, d, exchange.KindOrder, 20, 1, user1, 1)
	f.live <- removed
	f.live <- orderLog(t, d, exchange.KindOrder, 22, 3, user1, 1)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"1", "3"}, got)
	mu.Unlock()

	sub.Unsubscribe()
	sub.Unsubscribe()
	_, open := <-sub.Err()
	assert.False(t, open)
}

func TestEthChainSubscribesOnLiveClient(t *testing.T) {
	rpc := &fakeFilterer{head: 10}
	ws := &fakeFilterer{}
	chain := newEthChain(rpc, exchangeAddr, newTestLogger())
	chain.live = ws

	_, err := chain.HistoricalEvents(context.Background(), exchange.KindTrade, 0, 10)
	require.NoError(t, err)
	sub, err := chain.Subscribe(context.Background(), exchange.KindTrade, func(exchange.Event) {})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	assert.Len(t, rpc.queries, 1)
	assert.Nil(t, rpc.live)
	assert.Len(t, ws.queries, 1)
	assert.NotNil(t, ws.live)
}
