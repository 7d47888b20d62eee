package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dexbot/internal/alert"
	"dexbot/internal/config"
	"dexbot/internal/dispatcher"
	"dexbot/internal/executor"
	"dexbot/internal/model"
	"dexbot/internal/notifier"
	"dexbot/internal/recorder"
	"dexbot/internal/scheduler"

	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] DexBot relay starting...")

	if err := godotenv.Load(); err == nil {
		log.Println("[INFO] loaded .env")
	}

	// Load config; an incomplete document must never start the process.
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			log.Fatalf("[FATAL] incomplete configuration: %v", cfgErr)
		}
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Chat transport and delivery channel
	transport := notifier.NewTelegramTransport(cfg.Telegram.BotToken, cfg.Proxy)
	channel := notifier.NewChannel(
		transport,
		cfg.Delivery.DedupMaxKeys,
		time.Duration(cfg.Delivery.DedupWindowSec)*time.Second,
	)

	// Trading boundary
	exec := executor.NewClient(
		cfg.APIs.TradeEndpoint,
		cfg.APIs.TradeKey,
		time.Duration(cfg.APIs.TimeoutSeconds)*time.Second,
		cfg.Proxy,
	)

	// Event formatter for the alert channel
	formatter := alert.NewFormatter(cfg.Telegram.ChannelID, time.Duration(cfg.Delivery.BucketSec)*time.Second)

	// Recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Work queue: the inbound listener and the monitoring boundary feed the
	// dispatcher through these channels.
	inbound := make(chan model.InboundMessage, 64)
	events := make(chan model.Event, 64)

	disp := dispatcher.New(exec, formatter, channel, rec, cfg.Blacklists.Tokens, inbound, events)
	go disp.Run(ctx)

	// Daily summary
	sched := scheduler.NewScheduler(rec, channel, cfg.Telegram.ChannelID)
	if err := sched.Register(cfg.Schedule.SummaryCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Inbound listener
	go transport.StartPolling(ctx, inbound)
	log.Println("[INFO] Telegram polling started")

	log.Println("[INFO] DexBot relay is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] DexBot relay stopped")
}
