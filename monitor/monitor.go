package monitor

import (
	"database/sql"
	"os"

	"github.com/ethereum/go-ethereum/common"
	_ "github.com/mattn/go-sqlite3"
	"github.com/msalopek/exchange_monitor/exchange"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

const DEFAULT_ACTIVITY_CAP = 100

type ChainEntry struct {
	RpcUrl          string `json:"rpc_url,omitempty" yaml:"rpc_url,omitempty" toml:"rpc_url,omitempty"`
	WsUrl           string `json:"ws_url,omitempty" yaml:"ws_url,omitempty" toml:"ws_url,omitempty"`
	ExchangeAddress string `json:"exchange_address,omitempty" yaml:"exchange_address,omitempty" toml:"exchange_address,omitempty"`
	StartBlock      uint64 `json:"start_block,omitempty" yaml:"start_block,omitempty" toml:"start_block,omitempty"`
	ChainId         int64  `json:"chain_id,omitempty" yaml:"chain_id,omitempty" toml:"chain_id,omitempty"`
}

type MarketEntry struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	Base  string `json:"base" yaml:"base" toml:"base"`
	Quote string `json:"quote" yaml:"quote" toml:"quote"`
}

func (e MarketEntry) Pair() exchange.Pair {
	return exchange.Pair{
		Base:  common.HexToAddress(e.Base),
		Quote: common.HexToAddress(e.Quote),
	}
}

type ServerEntry struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty" toml:"addr,omitempty"`
}

type Config struct {
	Chain         ChainEntry    `json:"chain,omitempty" yaml:"chain,omitempty" toml:"chain,omitempty"`
	Markets       []MarketEntry `json:"markets,omitempty" yaml:"markets,omitempty" toml:"markets,omitempty"`
	Server        ServerEntry   `json:"server,omitempty" yaml:"server,omitempty" toml:"server,omitempty"`
	DefaultMarket string        `json:"default_market,omitempty" yaml:"default_market,omitempty" toml:"default_market,omitempty"`
	ActivityCap   int           `json:"activity_cap,omitempty" yaml:"activity_cap,omitempty" toml:"activity_cap,omitempty"`
}

func MustLoadConfig(path string) *Config {
	cfg := &Config{}
	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	if err = toml.Unmarshal(file, cfg); err != nil {
		panic(err)
	}
	if cfg.ActivityCap == 0 {
		cfg.ActivityCap = DEFAULT_ACTIVITY_CAP
	}
	return cfg
}

// DefaultPair is the market named by default_market, or the first configured one.
func (c *Config) DefaultPair() (exchange.Pair, bool) {
	if len(c.Markets) == 0 {
		return exchange.Pair{}, false
	}
	for _, m := range c.Markets {
		if m.Name == c.DefaultMarket {
			return m.Pair(), true
		}
	}
	return c.Markets[0].Pair(), true
}

type Monitor struct {
	store  *Store
	views  *exchange.Views
	chain  ChainClient
	db     *sql.DB
	cfg    *Config
	logger *zerolog.Logger
}

// NewMonitor wires the store to a chain client. db may be nil when raw
// events are not archived.
func NewMonitor(db *sql.DB, cfg *Config, chain ChainClient, logger *zerolog.Logger) *Monitor {
	if db != nil {
		InitDB(db)
	}

	store := NewStore(cfg.ActivityCap)
	if pair, ok := cfg.DefaultPair(); ok {
		store.SelectMarket(pair)
	}

	return &Monitor{
		store:  store,
		views:  exchange.NewViews(logger),
		chain:  chain,
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

func (m *Monitor) Store() *Store {
	return m.store
}
