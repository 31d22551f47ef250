package monitor

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/msalopek/exchange_monitor/exchange"
	"github.com/rs/zerolog"
)

const LIVE_LOG_BUFFER = 128

// EventHandler receives live events of one kind in emission order.
type EventHandler func(exchange.Event)

// Subscription matches ethereum.Subscription.
type Subscription interface {
	Unsubscribe()
	Err() <-chan error
}

// ChainClient is the read side of the exchange contract.
type ChainClient interface {
	LatestBlock(ctx context.Context) (uint64, error)
	HistoricalEvents(ctx context.Context, kind exchange.EventKind, fromBlock, toBlock uint64) ([]exchange.Event, error)
	Subscribe(ctx context.Context, kind exchange.EventKind, handler EventHandler) (Subscription, error)
}

// logFilterer is the part of ethclient.Client used here.
type logFilterer interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

// EthChain reads exchange events from an Ethereum JSON-RPC node. History is
// queried on client and live logs are subscribed on live, which needs a
// websocket or IPC endpoint.
type EthChain struct {
	client   logFilterer
	live     logFilterer
	closer   func()
	exchange common.Address
	decoder  *EventDecoder
	logger   *zerolog.Logger
}

func DialEthChain(ctx context.Context, cfg ChainEntry, logger *zerolog.Logger) (*EthChain, error) {
	if !common.IsHexAddress(cfg.ExchangeAddress) {
		return nil, fmt.Errorf("invalid exchange address %q", cfg.ExchangeAddress)
	}
	client, err := ethclient.DialContext(ctx, cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RpcUrl, err)
	}

	if cfg.ChainId != 0 {
		chainId, err := client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("chain id: %w", err)
		}
		if chainId.Int64() != cfg.ChainId {
			client.Close()
			return nil, fmt.Errorf("connected to chain %s, expected %d", chainId, cfg.ChainId)
		}
	}

	chain := newEthChain(client, common.HexToAddress(cfg.ExchangeAddress), logger)
	chain.closer = client.Close
	if cfg.WsUrl != "" && cfg.WsUrl != cfg.RpcUrl {
		wsClient, err := ethclient.DialContext(ctx, cfg.WsUrl)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("dial %s: %w", cfg.WsUrl, err)
		}
		chain.live = wsClient
		chain.closer = func() {
			wsClient.Close()
			client.Close()
		}
	}
	return chain, nil
}

func newEthChain(client logFilterer, exchangeAddr common.Address, logger *zerolog.Logger) *EthChain {
	return &EthChain{
		client:   client,
		live:     client,
		exchange: exchangeAddr,
		decoder:  MustInitDecoder(),
		logger:   logger,
	}
}

func (c *EthChain) Close() {
	if c.closer != nil {
		c.closer()
	}
}

func (c *EthChain) LatestBlock(ctx context.Context) (uint64, error) {
	return c.client.BlockNumber(ctx)
}

func (c *EthChain) query(kind exchange.EventKind) (ethereum.FilterQuery, error) {
	topic, err := c.decoder.Topic(kind)
	if err != nil {
		return ethereum.FilterQuery{}, err
	}
	return ethereum.FilterQuery{
		Addresses: []common.Address{c.exchange},
		Topics:    [][]common.Hash{{topic}},
	}, nil
}

// HistoricalEvents returns the events of one kind in block order.
func (c *EthChain) HistoricalEvents(ctx context.Context, kind exchange.EventKind, fromBlock, toBlock uint64) ([]exchange.Event, error) {
	q, err := c.query(kind)
	if err != nil {
		return nil, err
	}
	q.FromBlock = new(big.Int).SetUint64(fromBlock)
	q.ToBlock = new(big.Int).SetUint64(toBlock)

	logs, err := c.client.FilterLogs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("filter %s logs: %w", kind, err)
	}

	events := make([]exchange.Event, 0, len(logs))
	for _, l := range logs {
		ev, err := c.decoder.DecodeLog(l)
		if err != nil {
			c.logger.Warn().Err(err).
				Str("tx_hash", l.TxHash.Hex()).
				Uint64("block_number", l.BlockNumber).
				Msg("dropping undecodable log")
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// Subscribe delivers new events of one kind to handler from a single
// goroutine until the subscription ends.
func (c *EthChain) Subscribe(ctx context.Context, kind exchange.EventKind, handler EventHandler) (Subscription, error) {
	q, err := c.query(kind)
	if err != nil {
		return nil, err
	}

	logs := make(chan types.Log, LIVE_LOG_BUFFER)
	sub, err := c.live.SubscribeFilterLogs(ctx, q, logs)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s logs: %w", kind, err)
	}

	ls := &logSubscription{sub: sub, done: make(chan struct{})}
	go func() {
		for {
			select {
			case l := <-logs:
				if l.Removed {
					c.logger.Warn().Str("tx_hash", l.TxHash.Hex()).Msg("ignoring log removed by reorg")
					continue
				}
				ev, err := c.decoder.DecodeLog(l)
				if err != nil {
					c.logger.Warn().Err(err).Str("tx_hash", l.TxHash.Hex()).Msg("dropping undecodable log")
					continue
				}
				handler(ev)
			case <-ls.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return ls, nil
}

type logSubscription struct {
	sub  ethereum.Subscription
	done chan struct{}
	once sync.Once
}

func (s *logSubscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		s.sub.Unsubscribe()
	})
}

func (s *logSubscription) Err() <-chan error {
	return s.sub.Err()
}

var ErrSubscriptionClosed = errors.New("subscription closed")
