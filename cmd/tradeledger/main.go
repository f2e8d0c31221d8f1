package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	"tradeledger/internal/api"
	"tradeledger/internal/config"
	"tradeledger/internal/engine"
	"tradeledger/internal/repository"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	csvPath := flag.String("csv", "", "fill log CSV, overrides source.csv")
	serve := flag.Bool("serve", false, "run the HTTP API instead of a batch run")
	addr := flag.String("addr", "", "HTTP listen address, overrides server.addr")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	if *csvPath != "" {
		cfg.Source.CSV = *csvPath
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger, err := cfg.Logger()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serve {
		if err := runServer(ctx, cfg, logger); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
		return
	}
	if err := runBatch(ctx, cfg, logger); err != nil {
		logger.Fatal("Run failed", zap.Error(err))
	}
}

func runBatch(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if err := cfg.RequireSource(); err != nil {
		return err
	}
	engineConfig, err := cfg.EngineConfig()
	if err != nil {
		return err
	}

	var source engine.OrderSource
	if cfg.Source.CSV != "" {
		source = repository.NewCSVFileSource(cfg.Source.CSV)
	} else {
		db, err := repository.NewDatabase(cfg.Source.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		start, end, err := cfg.FillWindow()
		if err != nil {
			return err
		}
		source = db.FillSource(repository.FillQuery{
			Symbols: cfg.Source.Symbols,
			Start:   start,
			End:     end,
		})
	}

	result, err := engine.NewEngine(source, engineConfig, logger).Run(ctx)
	if err != nil {
		return err
	}
	for _, f := range result.Files {
		logger.Info("Report written", zap.String("path", f))
	}
	return nil
}

func runServer(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	server := api.NewServer(cfg.Server.Addr, logger)
	errs := make(chan error, 1)
	go func() { errs <- server.Start() }()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
