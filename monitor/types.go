package monitor

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/msalopek/exchange_monitor/exchange"
)

// RawEventArgs carries the event arguments as the chain client reports them.
// Numbers are base-10 strings.
type RawEventArgs struct {
	ID         string `json:"id,omitempty" validate:"omitempty,number"`
	User       string `json:"user,omitempty" validate:"omitempty,eth_addr"`
	Creator    string `json:"creator,omitempty" validate:"omitempty,eth_addr"`
	TokenGet   string `json:"tokenGet,omitempty" validate:"omitempty,eth_addr"`
	AmountGet  string `json:"amountGet,omitempty" validate:"omitempty,number"`
	TokenGive  string `json:"tokenGive,omitempty" validate:"omitempty,eth_addr"`
	AmountGive string `json:"amountGive,omitempty" validate:"omitempty,number"`
	Timestamp  string `json:"timestamp,omitempty" validate:"omitempty,number"`
	Token      string `json:"token,omitempty" validate:"omitempty,eth_addr"`
	Amount     string `json:"amount,omitempty" validate:"omitempty,number"`
	Balance    string `json:"balance,omitempty" validate:"omitempty,number"`
}

type RawEvent struct {
	Event           string       `json:"event" validate:"required"`
	Args            RawEventArgs `json:"args"`
	TransactionHash string       `json:"transactionHash" validate:"required"`
	BlockNumber     uint64       `json:"blockNumber"`
	LogIndex        uint         `json:"logIndex"`
}

// ActivityEntry is a short notice about an ingested event, used for alerts.
type ActivityEntry struct {
	ID        string             `json:"id,omitempty"`
	Kind      exchange.EventKind `json:"type"`
	Timestamp int64              `json:"timestamp"`
	User      common.Address     `json:"user"`
	TxHash    common.Hash        `json:"transaction_hash"`
}

type StoreCounts struct {
	Orders    int `json:"orders"`
	Cancelled int `json:"cancelled"`
	Filled    int `json:"filled"`
	Transfers int `json:"transfers"`
}
