package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/msalopek/exchange_monitor/exchange"
)

type backfillResult struct {
	kind   exchange.EventKind
	events []exchange.Event
	err    error
}

// Ingest hands one event to the store and archives it when requested.
// Duplicates are ignored.
func (m *Monitor) Ingest(ev exchange.Event, saveRawEvents bool) bool {
	if !m.store.Apply(ev) {
		m.logger.Debug().
			Str("kind", string(ev.Kind())).
			Str("tx_hash", ev.Meta().TxHash.Hex()).
			Msg("ignoring duplicate event")
		return false
	}

	if saveRawEvents && m.db != nil {
		if err := m.InsertRawEvent(ev); err != nil {
			m.logger.Error().Err(err).
				Str("kind", string(ev.Kind())).
				Str("tx_hash", ev.Meta().TxHash.Hex()).
				Msg("failed to archive event")
		}
	}
	return true
}

// Backfill queries every event kind from the configured start block up to the
// current head. The queries run concurrently and are applied in the order they
// complete. It returns the head block.
func (m *Monitor) Backfill(ctx context.Context, saveRawEvents bool) (uint64, error) {
	toBlock, err := m.chain.LatestBlock(ctx)
	if err != nil {
		return 0, fmt.Errorf("latest block: %w", err)
	}
	fromBlock := m.cfg.Chain.StartBlock

	results := make(chan backfillResult, len(exchange.EventKinds))
	var wg sync.WaitGroup
	for _, kind := range exchange.EventKinds {
		wg.Add(1)
		go func(kind exchange.EventKind) {
			defer wg.Done()
			events, err := m.chain.HistoricalEvents(ctx, kind, fromBlock, toBlock)
			results <- backfillResult{kind: kind, events: events, err: err}
		}(kind)
	}
	wg.Wait()
	close(results)

	var errs []error
	for r := range results {
		if r.err != nil {
			m.logger.Error().Err(r.err).Str("kind", string(r.kind)).Msg("backfill query failed")
			errs = append(errs, fmt.Errorf("%s backfill: %w", r.kind, r.err))
			continue
		}

		inserted := 0
		for _, ev := range r.events {
			if m.Ingest(ev, saveRawEvents) {
				inserted++
			}
		}
		m.logger.Info().
			Str("kind", string(r.kind)).
			Int("total", len(r.events)).
			Int("new", inserted).
			Uint64("from_block", fromBlock).
			Uint64("to_block", toBlock).
			Msg("finished backfill")
	}
	return toBlock, errors.Join(errs...)
}

// liveBuffer holds the live events of one kind until the backfill of that
// kind has been applied, so events of a kind reach the store in chain order.
type liveBuffer struct {
	mu     sync.Mutex
	held   []exchange.Event
	live   bool
	ingest func(exchange.Event)
}

func (b *liveBuffer) handle(ev exchange.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.live {
		b.held = append(b.held, ev)
		return
	}
	b.ingest(ev)
}

// release applies the held events and passes later ones straight through.
func (b *liveBuffer) release() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	held := len(b.held)
	for _, ev := range b.held {
		b.ingest(ev)
	}
	b.held = nil
	b.live = true
	return held
}

func (m *Monitor) subscribeAll(ctx context.Context, saveRawEvents bool) ([]Subscription, []*liveBuffer, error) {
	subs := make([]Subscription, 0, len(exchange.EventKinds))
	buffers := make([]*liveBuffer, 0, len(exchange.EventKinds))
	for _, kind := range exchange.EventKinds {
		buf := &liveBuffer{ingest: func(ev exchange.Event) { m.Ingest(ev, saveRawEvents) }}
		sub, err := m.chain.Subscribe(ctx, kind, buf.handle)
		if err != nil {
			unsubscribeAll(subs)
			return nil, nil, fmt.Errorf("%s subscription: %w", kind, err)
		}
		subs = append(subs, sub)
		buffers = append(buffers, buf)
	}
	return subs, buffers, nil
}

func unsubscribeAll(subs []Subscription) {
	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

// Run subscribes to live events, backfills history and then follows the chain
// until ctx is done or a subscription fails. Live events received during the
// backfill are held and applied after it. Those that overlap the backfill are
// deduplicated by the store.
func (m *Monitor) Run(ctx context.Context, saveRawEvents bool) error {
	subs, buffers, err := m.subscribeAll(ctx, saveRawEvents)
	if err != nil {
		return err
	}
	defer unsubscribeAll(subs)

	head, err := m.Backfill(ctx, saveRawEvents)
	if err != nil {
		return err
	}
	held := 0
	for _, buf := range buffers {
		held += buf.release()
	}
	counts := m.store.Counts()
	m.logger.Info().
		Uint64("head", head).
		Int("held_live_events", held).
		Int("orders", counts.Orders).
		Int("cancelled", counts.Cancelled).
		Int("filled", counts.Filled).
		Msg("history loaded -- following live events")

	errc := make(chan error, len(subs))
	for _, sub := range subs {
		go func(sub Subscription) {
			select {
			case err, ok := <-sub.Err():
				if !ok || err == nil {
					err = ErrSubscriptionClosed
				}
				errc <- err
			case <-ctx.Done():
			}
		}(sub)
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errc:
		return fmt.Errorf("live events: %w", err)
	}
}
