package monitor

import (
	"database/sql"
	"encoding/json"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/msalopek/exchange_monitor/exchange"
)

type DbRawEvent struct {
	TxHash             string    `json:"tx_hash"`
	LogIndex           uint      `json:"log_index"`
	BlockNumber        uint64    `json:"block_number"`
	Kind               string    `json:"kind"`
	Payload            []byte    `json:"payload"`
	IngestionTimestamp time.Time `json:"ingestion_timestamp"`
}

func InitDB(db *sql.DB) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS raw_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tx_hash TEXT NOT NULL,
			log_index INTEGER NOT NULL,
			block_number INTEGER,
			kind TEXT,
			payload TEXT,
			ingestion_timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (tx_hash, log_index)
		)
	`)
	if err != nil {
		log.Fatal(err)
	}
}

// InsertRawEvent archives an ingested event. Events already archived are
// left untouched.
func (m *Monitor) InsertRawEvent(ev exchange.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	meta := ev.Meta()
	_, err = m.db.Exec(`
		INSERT OR IGNORE INTO raw_events (tx_hash, log_index, block_number, kind, payload, ingestion_timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, meta.TxHash.Hex(), meta.LogIndex, meta.BlockNumber, string(ev.Kind()), string(payload), time.Now().UTC())
	return err
}

func ReadRawEvents(db *sql.DB, kind string) []DbRawEvent {
	rows, err := db.Query(`
		SELECT tx_hash, log_index, block_number, kind, payload, ingestion_timestamp
		FROM raw_events
		WHERE kind = ?
		ORDER BY block_number, log_index
	`, kind)
	if err != nil {
		log.Fatal(err)
	}
	defer rows.Close()

	var events []DbRawEvent
	for rows.Next() {
		var e DbRawEvent
		var payload string
		err := rows.Scan(&e.TxHash, &e.LogIndex, &e.BlockNumber, &e.Kind, &payload, &e.IngestionTimestamp)
		if err != nil {
			log.Fatal(err)
		}
		e.Payload = []byte(payload)
		events = append(events, e)
	}
	return events
}
