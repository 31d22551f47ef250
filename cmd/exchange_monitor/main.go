package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/msalopek/exchange_monitor/monitor"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultHttpAddr = ":8080"

func main() {
	logLevel := flag.String("log-level", "INFO", "Set the logging level")
	logFormat := flag.String("log-format", "json", "Set the log output format")
	configPath := flag.String("config", "config.toml", "Path to the config file")
	saveRawEvents := flag.Bool("save-raw-events", false, "Archive ingested events to the db")
	dbPath := flag.String("db", "events.db", "Path to the db file")
	httpAddr := flag.String("http-addr", "", "Address to serve the read API on. Overrides server.addr from the config.")
	loadFromFile := flag.String("load-from-file", "", "Serve events from a JSON file instead of following the chain.")
	flag.Parse()

	// Set up logging
	if *logFormat == "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
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
	switch strings.TrimSpace(strings.ToUpper(*logLevel)) {
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

	cfg := monitor.MustLoadConfig(*configPath)

	addr := cfg.Server.Addr
	if *httpAddr != "" {
		addr = *httpAddr
	}
	if addr == "" {
		addr = defaultHttpAddr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var db *sql.DB
	if *saveRawEvents {
		var err error
		db, err = sql.Open("sqlite3", *dbPath)
		if err != nil {
			log.Fatal().Err(err).Send()
		}
		defer db.Close()
	}

	var chain monitor.ChainClient
	if *loadFromFile == "" {
		ethChain, err := monitor.DialEthChain(ctx, cfg.Chain, &log.Logger)
		if err != nil {
			log.Fatal().Err(err).Str("rpc_url", cfg.Chain.RpcUrl).Msg("failed to connect to chain")
		}
		defer ethChain.Close()
		chain = ethChain
	}

	m := monitor.NewMonitor(db, cfg, chain, &log.Logger)
	if *loadFromFile != "" {
		if err := m.LoadFromFile(*loadFromFile, *saveRawEvents); err != nil {
			return
		}
	}

	log.Logger.Debug().Strs("details", []string{
		"exchange address", cfg.Chain.ExchangeAddress,
		"http addr", addr}).Msg("monitor started")

	var wg sync.WaitGroup
	server := monitor.NewServer(m)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.RunWithContext(ctx, addr); err != nil {
			log.Error().Err(err).Msg("server stopped")
			cancel()
		}
	}()

	if chain != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.Run(ctx, *saveRawEvents); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("event ingestion stopped")
				cancel()
			}
		}()
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigs:
		log.Info().Msg("shutdown signal received")
		cancel()
	case <-ctx.Done():
		log.Info().Msg("context cancelled")
	}
	log.Info().Msg("waiting for ongoing operations to complete...")
	wg.Wait()
}
