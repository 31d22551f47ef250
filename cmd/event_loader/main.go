package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	_ "github.com/mattn/go-sqlite3"
	"github.com/msalopek/exchange_monitor/exchange"
	"github.com/msalopek/exchange_monitor/monitor"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	logFormat  string
	configPath string
	dbPath     string
	filePath   string
	account    string
	market     string
	kind       string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "event_loader",
		Short: "A tool for inspecting and archiving exchange events",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "Set the logging level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "Set the log output format (json or text)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "events.db", "Path to the db file")

	// Views command
	viewsCmd := &cobra.Command{
		Use:   "views",
		Short: "Print the derived views for events in a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := monitor.NewMonitor(nil, monitor.MustLoadConfig(configPath), nil, &log.Logger)
			if err := m.LoadFromFile(filePath, false); err != nil {
				return err
			}
			pair, err := marketPair(m)
			if err != nil {
				return err
			}
			if account != "" && !common.IsHexAddress(account) {
				return fmt.Errorf("invalid account %q", account)
			}
			acc := common.HexToAddress(account)
			return printJSON(map[string]interface{}{
				"pair":             pair,
				"open_orders":      m.OpenOrders(pair.Base),
				"orderbook":        m.OrderBook(pair),
				"chart":            m.PriceChart(pair),
				"trades":           m.TradeHistory(pair),
				"my_open_orders":   m.MyOpenOrders(acc, pair),
				"my_filled_orders": m.MyFilledOrders(acc, pair),
				"balances":         m.Balances(acc),
				"activity":         m.Activity(0),
			})
		},
	}
	viewsCmd.Flags().StringVar(&filePath, "file", "", "JSON file with raw events")
	viewsCmd.Flags().StringVar(&account, "account", "", "Account for the personal views")
	viewsCmd.Flags().StringVar(&market, "market", "", "Market name from the config. Defaults to default_market.")
	viewsCmd.MarkFlagRequired("file")

	// Archive command
	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Archive events from a file to the db",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, m := setupMonitor()
			defer db.Close()
			return m.LoadFromFile(filePath, true)
		},
	}
	archiveCmd.Flags().StringVar(&filePath, "file", "", "JSON file with raw events")
	archiveCmd.MarkFlagRequired("file")

	// Stats command
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print per kind counts of archived events",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, m := setupMonitor()
			defer db.Close()
			stats, err := m.GetDbEventStats()
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	}

	// Dump command
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Print archived events of one kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := exchange.ParseEventKind(kind)
			if err != nil {
				return err
			}
			db, _ := setupMonitor()
			defer db.Close()
			for _, e := range monitor.ReadRawEvents(db, string(k)) {
				fmt.Printf("%d\t%s\t%d\t%s\n", e.BlockNumber, e.TxHash, e.LogIndex, e.Payload)
			}
			return nil
		},
	}
	dumpCmd.Flags().StringVar(&kind, "kind", "", "Event kind (Deposit, Withdraw, Order, Cancel, Trade)")
	dumpCmd.MarkFlagRequired("kind")

	rootCmd.AddCommand(viewsCmd, archiveCmd, statsCmd, dumpCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func marketPair(m *monitor.Monitor) (exchange.Pair, error) {
	if market == "" {
		return m.Store().Pair(), nil
	}
	cfg := monitor.MustLoadConfig(configPath)
	for _, e := range cfg.Markets {
		if e.Name == market {
			return e.Pair(), nil
		}
	}
	return exchange.Pair{}, fmt.Errorf("unknown market %q", market)
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func setupLogging() {
	// Logs go to stderr so printed views stay parseable
	if logFormat == "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		output := zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
		output.FormatLevel = func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		}
		output.FormatMessage = func(i interface{}) string {
			return fmt.Sprintf("message: %s", i)
		}
		output.FormatFieldName = func(i interface{}) string {
			return fmt.Sprintf("%s:", i)
		}
		output.FormatFieldValue = func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("%s", i))
		}
		log.Logger = log.Output(output)
	}

	// Set log level
	switch strings.TrimSpace(strings.ToUpper(logLevel)) {
	case "DEBUG":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "INFO":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "WARN":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "ERROR":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func setupMonitor() (*sql.DB, *monitor.Monitor) {
	cfg := monitor.MustLoadConfig(configPath)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	return db, monitor.NewMonitor(db, cfg, nil, &log.Logger)
}
