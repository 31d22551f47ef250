package monitor

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/msalopek/exchange_monitor/exchange"
)

// None of the exchange event parameters are indexed, so every field lives in
// the log data.
const EXCHANGE_EVENTS_ABI = `[
  {"anonymous":false,"name":"Deposit","type":"event","inputs":[
    {"indexed":false,"name":"token","type":"address"},
    {"indexed":false,"name":"user","type":"address"},
    {"indexed":false,"name":"amount","type":"uint256"},
    {"indexed":false,"name":"balance","type":"uint256"}]},
  {"anonymous":false,"name":"Withdraw","type":"event","inputs":[
    {"indexed":false,"name":"token","type":"address"},
    {"indexed":false,"name":"user","type":"address"},
    {"indexed":false,"name":"amount","type":"uint256"},
    {"indexed":false,"name":"balance","type":"uint256"}]},
  {"anonymous":false,"name":"Order","type":"event","inputs":[
    {"indexed":false,"name":"id","type":"uint256"},
    {"indexed":false,"name":"user","type":"address"},
    {"indexed":false,"name":"tokenGet","type":"address"},
    {"indexed":false,"name":"amountGet","type":"uint256"},
    {"indexed":false,"name":"tokenGive","type":"address"},
    {"indexed":false,"name":"amountGive","type":"uint256"},
    {"indexed":false,"name":"timestamp","type":"uint256"}]},
  {"anonymous":false,"name":"Cancel","type":"event","inputs":[
    {"indexed":false,"name":"id","type":"uint256"},
    {"indexed":false,"name":"user","type":"address"},
    {"indexed":false,"name":"tokenGet","type":"address"},
    {"indexed":false,"name":"amountGet","type":"uint256"},
    {"indexed":false,"name":"tokenGive","type":"address"},
    {"indexed":false,"name":"amountGive","type":"uint256"},
    {"indexed":false,"name":"timestamp","type":"uint256"}]},
  {"anonymous":false,"name":"Trade","type":"event","inputs":[
    {"indexed":false,"name":"id","type":"uint256"},
    {"indexed":false,"name":"user","type":"address"},
    {"indexed":false,"name":"tokenGet","type":"address"},
    {"indexed":false,"name":"amountGet","type":"uint256"},
    {"indexed":false,"name":"tokenGive","type":"address"},
    {"indexed":false,"name":"amountGive","type":"uint256"},
    {"indexed":false,"name":"creator","type":"address"},
    {"indexed":false,"name":"timestamp","type":"uint256"}]}
]`

// EventDecoder turns exchange contract logs into events.
type EventDecoder struct {
	abi   abi.ABI
	kinds map[common.Hash]exchange.EventKind
}

func MustInitDecoder() *EventDecoder {
	parsed, err := abi.JSON(strings.NewReader(EXCHANGE_EVENTS_ABI))
	if err != nil {
		panic(err)
	}

	kinds := map[common.Hash]exchange.EventKind{}
	for _, kind := range exchange.EventKinds {
		ev, ok := parsed.Events[string(kind)]
		if !ok {
			panic(fmt.Sprintf("exchange abi has no %s event", kind))
		}
		kinds[ev.ID] = kind
	}
	return &EventDecoder{abi: parsed, kinds: kinds}
}

// Topic is the event signature hash used to filter logs of one kind.
func (d *EventDecoder) Topic(kind exchange.EventKind) (common.Hash, error) {
	ev, ok := d.abi.Events[string(kind)]
	if !ok {
		return common.Hash{}, fmt.Errorf("%w: %q", exchange.ErrUnknownEventKind, kind)
	}
	return ev.ID, nil
}

func (d *EventDecoder) DecodeLog(l types.Log) (exchange.Event, error) {
	if len(l.Topics) == 0 {
		return nil, fmt.Errorf("%w: log has no topics", exchange.ErrUnknownEventKind)
	}
	kind, ok := d.kinds[l.Topics[0]]
	if !ok {
		return nil, fmt.Errorf("%w: topic %s", exchange.ErrUnknownEventKind, l.Topics[0].Hex())
	}

	args := map[string]interface{}{}
	if err := d.abi.UnpackIntoMap(args, string(kind), l.Data); err != nil {
		return nil, fmt.Errorf("unpack %s log: %w", kind, err)
	}

	meta := exchange.EventMeta{
		TxHash:      l.TxHash,
		BlockNumber: l.BlockNumber,
		LogIndex:    l.Index,
	}
	return eventFromArgs(kind, meta, args)
}

func eventFromArgs(kind exchange.EventKind, meta exchange.EventMeta, args map[string]interface{}) (exchange.Event, error) {
	if kind == exchange.KindDeposit || kind == exchange.KindWithdraw {
		return exchange.TransferEvent{
			EventMeta: meta,
			Direction: kind,
			Token:     addressArg(args, "token"),
			User:      addressArg(args, "user"),
			Amount:    bigArg(args, "amount"),
			Balance:   bigArg(args, "balance"),
		}, nil
	}

	order := exchange.Order{
		User:       addressArg(args, "user"),
		Creator:    addressArg(args, "creator"),
		TokenGet:   addressArg(args, "tokenGet"),
		AmountGet:  bigArg(args, "amountGet"),
		TokenGive:  addressArg(args, "tokenGive"),
		AmountGive: bigArg(args, "amountGive"),
	}
	if id := bigArg(args, "id"); id != nil {
		order.ID = id.String()
	}
	if ts := bigArg(args, "timestamp"); ts != nil {
		order.Timestamp = ts.Int64()
	}
	return exchange.NewOrderEvent(kind, meta, order)
}

func addressArg(args map[string]interface{}, name string) common.Address {
	addr, _ := args[name].(common.Address)
	return addr
}

func bigArg(args map[string]interface{}, name string) *big.Int {
	v, _ := args[name].(*big.Int)
	return v
}
