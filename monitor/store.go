package monitor

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/msalopek/exchange_monitor/exchange"
)

type orderCollection struct {
	orders []exchange.Order
	ids    map[string]struct{}
}

func newOrderCollection() orderCollection {
	return orderCollection{ids: map[string]struct{}{}}
}

func (c *orderCollection) add(o exchange.Order) bool {
	if o.ID == "" {
		return false
	}
	if _, ok := c.ids[o.ID]; ok {
		return false
	}
	c.ids[o.ID] = struct{}{}
	c.orders = append(c.orders, o.Clone())
	return true
}

type balanceKey struct {
	user  common.Address
	token common.Address
}

type balanceEntry struct {
	balance *big.Int
	meta    exchange.EventMeta
}

func (e balanceEntry) olderThan(meta exchange.EventMeta) bool {
	if e.meta.BlockNumber != meta.BlockNumber {
		return e.meta.BlockNumber < meta.BlockNumber
	}
	return e.meta.LogIndex < meta.LogIndex
}

// Store holds every event seen in this session. Readers get copies through
// Snapshot and never share memory with it.
type Store struct {
	mu sync.RWMutex

	all       orderCollection
	cancelled orderCollection
	filled    orderCollection
	transfers map[string]struct{}
	balances  map[balanceKey]balanceEntry
	pair      exchange.Pair

	activity    []ActivityEntry
	activityCap int
	listeners   []func(ActivityEntry)

	now func() time.Time
}

func NewStore(activityCap int) *Store {
	return &Store{
		all:         newOrderCollection(),
		cancelled:   newOrderCollection(),
		filled:      newOrderCollection(),
		transfers:   map[string]struct{}{},
		balances:    map[balanceKey]balanceEntry{},
		activityCap: activityCap,
		now:         time.Now,
	}
}

// Apply adds the event to its collection. It returns false when the event was
// already seen or cannot be stored.
func (s *Store) Apply(ev exchange.Event) bool {
	s.mu.Lock()

	var (
		changed bool
		entry   ActivityEntry
	)
	switch e := ev.(type) {
	case exchange.OrderEvent:
		changed = s.all.add(e.Order)
		entry = s.orderActivity(e.Kind(), e.Meta(), e.Order)
	case exchange.CancelEvent:
		changed = s.cancelled.add(e.Order)
		entry = s.orderActivity(e.Kind(), e.Meta(), e.Order)
	case exchange.TradeEvent:
		changed = s.filled.add(e.Order)
		entry = s.orderActivity(e.Kind(), e.Meta(), e.Order)
	case exchange.TransferEvent:
		changed = s.applyTransfer(e)
		entry = ActivityEntry{
			Kind:      e.Kind(),
			Timestamp: s.now().Unix(),
			User:      e.User,
			TxHash:    e.TxHash,
		}
	}

	if !changed {
		s.mu.Unlock()
		return false
	}

	s.activity = append([]ActivityEntry{entry}, s.activity...)
	if s.activityCap > 0 && len(s.activity) > s.activityCap {
		s.activity = s.activity[:s.activityCap]
	}
	listeners := append([]func(ActivityEntry){}, s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(entry)
	}
	return true
}

func (s *Store) orderActivity(kind exchange.EventKind, meta exchange.EventMeta, o exchange.Order) ActivityEntry {
	ts := o.Timestamp
	if ts == 0 {
		ts = s.now().Unix()
	}
	return ActivityEntry{
		ID:        o.ID,
		Kind:      kind,
		Timestamp: ts,
		User:      o.User,
		TxHash:    meta.TxHash,
	}
}

// applyTransfer keeps the newest balance per user and token, whatever order
// the transfers arrive in.
func (s *Store) applyTransfer(e exchange.TransferEvent) bool {
	id := fmt.Sprintf("%s:%d", e.TxHash.Hex(), e.LogIndex)
	if _, ok := s.transfers[id]; ok {
		return false
	}
	s.transfers[id] = struct{}{}

	if e.Balance == nil {
		return true
	}
	key := balanceKey{user: e.User, token: e.Token}
	if cur, ok := s.balances[key]; ok && !cur.olderThan(e.EventMeta) {
		return true
	}
	s.balances[key] = balanceEntry{balance: new(big.Int).Set(e.Balance), meta: e.EventMeta}
	return true
}

// OnChange registers fn to be called after every accepted event.
func (s *Store) OnChange(fn func(ActivityEntry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) SelectMarket(pair exchange.Pair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
}

func (s *Store) Pair() exchange.Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair
}

func (s *Store) Snapshot() exchange.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balances := make([]exchange.Balance, 0, len(s.balances))
	for k, b := range s.balances {
		balances = append(balances, exchange.Balance{
			User:    k.user,
			Token:   k.token,
			Balance: new(big.Int).Set(b.balance),
		})
	}

	return exchange.Snapshot{
		AllOrders:       exchange.CloneOrders(s.all.orders),
		CancelledOrders: exchange.CloneOrders(s.cancelled.orders),
		FilledOrders:    exchange.CloneOrders(s.filled.orders),
		Balances:        balances,
		Pair:            s.pair,
	}
}

// Activity returns up to limit entries, newest first. A limit of 0 returns all.
func (s *Store) Activity(limit int) []ActivityEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.activity)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]ActivityEntry, n)
	copy(out, s.activity[:n])
	return out
}

func (s *Store) Counts() StoreCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreCounts{
		Orders:    len(s.all.orders),
		Cancelled: len(s.cancelled.orders),
		Filled:    len(s.filled.orders),
		Transfers: len(s.transfers),
	}
}
