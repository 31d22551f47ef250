package exchange

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type EventKind string

const (
	KindDeposit  EventKind = "Deposit"
	KindWithdraw EventKind = "Withdraw"
	KindOrder    EventKind = "Order"
	KindCancel   EventKind = "Cancel"
	KindTrade    EventKind = "Trade"
)

var EventKinds = []EventKind{KindDeposit, KindWithdraw, KindOrder, KindCancel, KindTrade}

func ParseEventKind(name string) (EventKind, error) {
	for _, k := range EventKinds {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEventKind, name)
}

// EventMeta locates an event on chain.
type EventMeta struct {
	TxHash      common.Hash `json:"transaction_hash"`
	BlockNumber uint64      `json:"block_number"`
	LogIndex    uint        `json:"log_index"`
}

// Event is one of OrderEvent, CancelEvent, TradeEvent or TransferEvent.
type Event interface {
	Kind() EventKind
	Meta() EventMeta
}

type OrderEvent struct {
	EventMeta
	Order Order `json:"order"`
}

func (OrderEvent) Kind() EventKind   { return KindOrder }
func (e OrderEvent) Meta() EventMeta { return e.EventMeta }

type CancelEvent struct {
	EventMeta
	Order Order `json:"order"`
}

func (CancelEvent) Kind() EventKind   { return KindCancel }
func (e CancelEvent) Meta() EventMeta { return e.EventMeta }

type TradeEvent struct {
	EventMeta
	Order Order `json:"order"`
}

func (TradeEvent) Kind() EventKind   { return KindTrade }
func (e TradeEvent) Meta() EventMeta { return e.EventMeta }

// TransferEvent is a Deposit or a Withdraw. Balance is the user's exchange
// balance of Token after the transfer.
type TransferEvent struct {
	EventMeta
	Direction EventKind      `json:"direction"`
	Token     common.Address `json:"token"`
	User      common.Address `json:"user"`
	Amount    *big.Int       `json:"amount"`
	Balance   *big.Int       `json:"balance"`
}

func (e TransferEvent) Kind() EventKind { return e.Direction }
func (e TransferEvent) Meta() EventMeta { return e.EventMeta }

// NewOrderEvent wraps an order in the variant matching kind.
func NewOrderEvent(kind EventKind, meta EventMeta, order Order) (Event, error) {
	if order.ID == "" {
		return nil, ErrMissingOrderID
	}
	switch kind {
	case KindOrder:
		return OrderEvent{EventMeta: meta, Order: order}, nil
	case KindCancel:
		return CancelEvent{EventMeta: meta, Order: order}, nil
	case KindTrade:
		return TradeEvent{EventMeta: meta, Order: order}, nil
	}
	return nil, fmt.Errorf("%w: %q does not carry an order", ErrUnknownEventKind, kind)
}
