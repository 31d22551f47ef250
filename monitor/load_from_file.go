package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/msalopek/exchange_monitor/exchange"
)

var validate = validator.New()

// ToEvent validates the raw event and decodes it into its typed variant.
func (r RawEvent) ToEvent() (exchange.Event, error) {
	if err := validate.Struct(r); err != nil {
		return nil, fmt.Errorf("invalid raw event: %w", err)
	}
	kind, err := exchange.ParseEventKind(r.Event)
	if err != nil {
		return nil, err
	}

	meta := exchange.EventMeta{
		TxHash:      common.HexToHash(r.TransactionHash),
		BlockNumber: r.BlockNumber,
		LogIndex:    r.LogIndex,
	}
	args := map[string]interface{}{}
	putAddress(args, "user", r.Args.User)
	putAddress(args, "creator", r.Args.Creator)
	putAddress(args, "tokenGet", r.Args.TokenGet)
	putAddress(args, "tokenGive", r.Args.TokenGive)
	putAddress(args, "token", r.Args.Token)
	putBig(args, "id", r.Args.ID)
	putBig(args, "amountGet", r.Args.AmountGet)
	putBig(args, "amountGive", r.Args.AmountGive)
	putBig(args, "timestamp", r.Args.Timestamp)
	putBig(args, "amount", r.Args.Amount)
	putBig(args, "balance", r.Args.Balance)

	return eventFromArgs(kind, meta, args)
}

func putAddress(args map[string]interface{}, name, value string) {
	if value != "" {
		args[name] = common.HexToAddress(value)
	}
}

func putBig(args map[string]interface{}, name, value string) {
	if value == "" {
		return
	}
	if v, ok := new(big.Int).SetString(value, 10); ok {
		args[name] = v
	}
}

// EventsFromFile reads a JSON array of raw events. Records that fail to
// decode are logged and skipped.
func (m *Monitor) EventsFromFile(path string) ([]exchange.Event, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []RawEvent
	if err := json.Unmarshal(file, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}

	events := make([]exchange.Event, 0, len(raw))
	for i, r := range raw {
		ev, err := r.ToEvent()
		if err != nil {
			logEvent := m.logger.Warn()
			if errors.Is(err, exchange.ErrMissingOrderID) {
				logEvent = m.logger.Debug()
			}
			logEvent.Err(err).
				Int("index", i).
				Str("event", r.Event).
				Str("tx_hash", r.TransactionHash).
				Msg("skipping raw event")
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// LoadFromFile ingests a fixture file into the store.
func (m *Monitor) LoadFromFile(path string, saveRawEvents bool) error {
	m.logger.Info().Str("file", path).Msg("loading events from file")
	events, err := m.EventsFromFile(path)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to load events from file")
		return err
	}

	inserted := 0
	for _, ev := range events {
		if m.Ingest(ev, saveRawEvents) {
			inserted++
		}
	}
	m.logger.Info().Int("events", len(events)).Int("new", inserted).Msg("loaded events from file")
	return nil
}
